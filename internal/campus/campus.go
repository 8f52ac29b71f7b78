// Package campus is the registry at the root of the system. It owns every
// cafeteria, the customer directory, the order arena, and the single shared
// menu index, and it is the only entry point the presentation and simulation
// layers call.
package campus

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
	"github.com/mensahq/mensa/internal/cafeteria"
	"github.com/mensahq/mensa/internal/customer"
	"github.com/mensahq/mensa/internal/menuindex"
	"github.com/mensahq/mensa/internal/observability"
	"github.com/mensahq/mensa/internal/order"
)

// Campus is the top-level registry.
type Campus struct {
	name      string
	directory *customer.Directory
	arena     *order.Arena
	index     *menuindex.Cache

	mu         sync.RWMutex
	cafeterias map[string]*cafeteria.Cafeteria
	roster     []string
}

// New creates an empty campus with an invalid index cache.
func New(name string) *Campus {
	c := &Campus{
		name:       name,
		directory:  customer.NewDirectory(),
		arena:      order.NewArena(),
		cafeterias: make(map[string]*cafeteria.Cafeteria),
	}
	c.index = menuindex.NewCache(c)
	return c
}

// Name returns the campus name.
func (c *Campus) Name() string { return c.name }

// Index exposes the shared menu index cache.
func (c *Campus) Index() *menuindex.Cache { return c.index }

// Directory exposes the customer directory.
func (c *Campus) Directory() *customer.Directory { return c.directory }

// AddCafeteria registers a new cafeteria with an empty menu.
func (c *Campus) AddCafeteria(name string) (*cafeteria.Cafeteria, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.cafeterias[name]; exists {
		return nil, errs.New("campus/cafeterias", errs.CodeInvalid,
			errs.WithMessage("cafeteria "+name+" already exists"),
			errs.WithField("cafeteria", name))
	}
	caf := cafeteria.New(name, c.arena, c.directory, c.index)
	c.cafeterias[name] = caf
	c.roster = append(c.roster, name)
	return caf, nil
}

// Cafeteria resolves a cafeteria by name.
func (c *Campus) Cafeteria(name string) (*cafeteria.Cafeteria, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	caf, ok := c.cafeterias[name]
	if !ok {
		return nil, errs.New("campus/cafeterias", errs.CodeNotFound,
			errs.WithMessage(name+" is not available on campus"),
			errs.WithField("cafeteria", name))
	}
	return caf, nil
}

// Cafeterias lists every cafeteria in registration order.
func (c *Campus) Cafeterias() []*cafeteria.Cafeteria {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*cafeteria.Cafeteria, 0, len(c.roster))
	for _, name := range c.roster {
		out = append(out, c.cafeterias[name])
	}
	return out
}

// AddStudent registers a student customer.
func (c *Campus) AddStudent(id, name string) (*customer.Customer, error) {
	return c.directory.Add(id, name, customer.KindStudent)
}

// AddStaff registers a staff customer.
func (c *Campus) AddStaff(id, name string) (*customer.Customer, error) {
	return c.directory.Add(id, name, customer.KindStaff)
}

// AddGuest registers a guest customer under a generated id. Guests may only
// browse and search.
func (c *Campus) AddGuest(name string) (*customer.Customer, error) {
	return c.directory.Add(uuid.NewString(), name, customer.KindGuest)
}

// GenerateCustomers bulk-registers students and staff with generated ids,
// for the simulation harness.
func (c *Campus) GenerateCustomers(students, staff int) error {
	for i := 0; i < students; i++ {
		if _, err := c.AddStudent("", fmt.Sprintf("Student %d", i+1)); err != nil {
			return err
		}
	}
	for i := 0; i < staff; i++ {
		if _, err := c.AddStaff("", fmt.Sprintf("Staff %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

// CatalogEntries concatenates every cafeteria's current catalog for index
// rebuilds. The registry lock is released before the catalogs are read so a
// rebuild never holds it while the index lock is taken.
func (c *Campus) CatalogEntries() []menuindex.Entry {
	cafeterias := c.Cafeterias()
	var out []menuindex.Entry
	for _, caf := range cafeterias {
		for _, item := range caf.Catalog().Items() {
			out = append(out, menuindex.Entry{
				Item:        item.Name,
				Description: item.Description,
				Price:       item.Price,
				Quantity:    item.Quantity,
				Cafeteria:   caf.Name(),
			})
		}
	}
	return out
}

// SortedMenu returns the campus-wide sorted menu, rebuilding the index first
// when it is invalid.
func (c *Campus) SortedMenu() []menuindex.Entry {
	return c.index.Read()
}

// Search returns every cafeteria stocking the named item, at list price.
func (c *Campus) Search(item string) ([]menuindex.Entry, error) {
	return c.index.Search(item)
}

// CloseCafeteria closes one cafeteria and returns its pre-reset revenue.
func (c *Campus) CloseCafeteria(name string) (decimal.Decimal, error) {
	caf, err := c.Cafeteria(name)
	if err != nil {
		return decimal.Zero, err
	}
	revenue := caf.CloseOut()
	observability.Log().Info("cafeteria closed",
		observability.F("cafeteria", name),
		observability.F("revenue", revenue.String()))
	return revenue, nil
}

// CloseAll closes every cafeteria and returns the total revenue plus the
// per-cafeteria breakdown.
func (c *Campus) CloseAll() (decimal.Decimal, map[string]decimal.Decimal) {
	total := decimal.Zero
	breakdown := make(map[string]decimal.Decimal)
	for _, caf := range c.Cafeterias() {
		revenue := caf.CloseOut()
		breakdown[caf.Name()] = revenue
		total = total.Add(revenue)
	}
	observability.Log().Info("campus closed",
		observability.F("campus", c.name),
		observability.F("total_revenue", total.String()))
	return total, breakdown
}

// Order resolves an order snapshot by id.
func (c *Campus) Order(id uint64) (order.Order, error) {
	return c.arena.Get(id)
}
