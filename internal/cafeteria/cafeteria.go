// Package cafeteria implements the vendor-level fulfillment engine: reserving
// inventory, creating orders, driving their lifecycle, and accounting revenue
// and popularity.
package cafeteria

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
	"github.com/mensahq/mensa/internal/menu"
	"github.com/mensahq/mensa/internal/observability"
	"github.com/mensahq/mensa/internal/order"
)

// Refunder credits a customer's balance when an order is reversed.
type Refunder interface {
	Credit(customerID string, amount decimal.Decimal) error
}

// Request describes one reservation attempt against a cafeteria.
type Request struct {
	CustomerID      string
	CustomerKind    string
	Item            string
	Quantity        int64
	DiscountPercent int64
}

// Cafeteria owns one catalog plus the open-order set, revenue accumulator,
// and popularity counters derived from fulfillment history. All mutations are
// serialized by a single vendor lock, acquired before the shared index lock.
type Cafeteria struct {
	name     string
	catalog  *menu.Catalog
	arena    *order.Arena
	refunder Refunder
	notifier menu.Notifier

	mu         sync.Mutex
	open       []uint64
	popularity map[string]int64
	popOrder   []string
	revenue    decimal.Decimal
}

// New creates a cafeteria whose catalog reports into the given notifier.
func New(name string, arena *order.Arena, refunder Refunder, notifier menu.Notifier) *Cafeteria {
	return &Cafeteria{
		name:       name,
		catalog:    menu.NewCatalog(name, notifier),
		arena:      arena,
		refunder:   refunder,
		notifier:   notifier,
		popularity: make(map[string]int64),
	}
}

// Name returns the cafeteria name.
func (c *Cafeteria) Name() string { return c.name }

// Catalog exposes the cafeteria's menu for browsing and administration.
func (c *Cafeteria) Catalog() *menu.Catalog { return c.catalog }

// Fulfill validates the request, reserves stock, and creates an Accepted
// order. A request above the available stock is clamped and the advisory
// string reports the reduced quantity; a request against empty stock fails
// OutOfStock. The popularity counter advances by the fulfilled quantity.
//
// When debit is non-nil it is invoked with the post-clamp total while the
// vendor lock is held; a debit failure rolls the reservation back and no
// order is created, so balance movement and order creation stay one critical
// section.
func (c *Cafeteria) Fulfill(req Request, debit func(total decimal.Decimal) error) (string, order.Order, error) {
	if req.Quantity <= 0 {
		return "", order.Order{}, errs.New("cafeteria/fulfill", errs.CodeInvalid,
			errs.WithMessage("quantity must be greater than zero"))
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return "", order.Order{}, errs.New("cafeteria/fulfill", errs.CodeInvalid,
			errs.WithMessage("discount must be between 0 and 100"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.catalog.Reserve(req.Item, req.Quantity)
	if err != nil {
		observability.Telemetry().IncCounter("orders.rejected", 1, map[string]string{"cafeteria": c.name})
		return "", order.Order{}, err
	}

	if debit != nil {
		total := order.TotalPrice(res.UnitPrice, res.Fulfilled, req.DiscountPercent)
		if err := debit(total); err != nil {
			c.catalog.Restore(req.Item, res.Fulfilled, res.UnitPrice)
			observability.Telemetry().IncCounter("orders.rejected", 1, map[string]string{"cafeteria": c.name})
			return "", order.Order{}, err
		}
	}

	ord := c.arena.Create(c.name, req.CustomerID, req.CustomerKind, req.Item,
		res.Fulfilled, res.UnitPrice, req.DiscountPercent)

	if _, seen := c.popularity[req.Item]; !seen {
		c.popOrder = append(c.popOrder, req.Item)
	}
	c.popularity[req.Item] += res.Fulfilled
	c.open = append(c.open, ord.ID)

	advisory := ""
	if res.Clamped {
		advisory = fmt.Sprintf("only %d %s(s) available", res.Fulfilled, req.Item)
	}
	observability.Telemetry().IncCounter("orders.placed", 1, map[string]string{"cafeteria": c.name})
	return advisory, ord, nil
}

// Complete transitions an open Accepted order to Completed and records its
// total as revenue. Stock was already decremented at reservation time; the
// emitted notification only reconciles the index with the current catalog
// quantity in case it went stale since.
func (c *Cafeteria) Complete(id uint64) (order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.holdsLocked(id) {
		return order.Order{}, c.unknownOrder(id)
	}
	ord, err := c.arena.Complete(id)
	if err != nil {
		return order.Order{}, err
	}
	c.revenue = c.revenue.Add(ord.Total)

	if item, ok := c.catalog.Get(ord.Item); ok {
		c.notifier.ItemChanged(menu.Change{Item: item.Name, Cafeteria: c.name, Quantity: item.Quantity})
	}
	metrics := observability.Telemetry()
	metrics.IncCounter("orders.completed", 1, map[string]string{"cafeteria": c.name})
	metrics.SetGauge("cafeteria.revenue", c.revenue.InexactFloat64(), map[string]string{"cafeteria": c.name})
	return ord, nil
}

// Cancel reverses an open order: the fulfilled quantity flows back into the
// catalog (recreating the item at its implied price when it was removed in
// the meantime) and the frozen total is credited back to the customer.
// Revenue already recorded by a completion is not reversed.
func (c *Cafeteria) Cancel(id uint64) (order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelLocked(id)
}

func (c *Cafeteria) cancelLocked(id uint64) (order.Order, error) {
	if !c.holdsLocked(id) {
		return order.Order{}, c.unknownOrder(id)
	}
	ord, err := c.arena.Cancel(id)
	if err != nil {
		return order.Order{}, err
	}
	c.dropLocked(id)

	c.catalog.Restore(ord.Item, ord.Quantity, ord.ImpliedUnitPrice())
	if err := c.refunder.Credit(ord.CustomerID, ord.Total); err != nil && !errs.HasCode(err, errs.CodeNotFound) {
		return order.Order{}, err
	}
	observability.Telemetry().IncCounter("orders.cancelled", 1, map[string]string{"cafeteria": c.name})
	return ord, nil
}

// PickUp transitions a Completed order to PickedUp and retires it from the
// open set.
func (c *Cafeteria) PickUp(id uint64) (order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.holdsLocked(id) {
		return order.Order{}, c.unknownOrder(id)
	}
	ord, err := c.arena.PickUp(id)
	if err != nil {
		return order.Order{}, err
	}
	c.dropLocked(id)
	observability.Telemetry().IncCounter("orders.picked_up", 1, map[string]string{"cafeteria": c.name})
	return ord, nil
}

// OpenOrders resolves the open set against the arena, oldest first.
func (c *Cafeteria) OpenOrders() []order.Order {
	c.mu.Lock()
	ids := make([]uint64, len(c.open))
	copy(ids, c.open)
	c.mu.Unlock()

	out := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		if ord, err := c.arena.Get(id); err == nil {
			out = append(out, ord)
		}
	}
	return out
}

// Revenue returns the accumulated completed-order revenue.
func (c *Cafeteria) Revenue() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revenue
}

// CloseOut cancels every still-open order (cascading refunds and stock
// restores), clears the menu and popularity counters, invalidates the shared
// index, and returns the revenue accumulated since the last close-out.
func (c *Cafeteria) CloseOut() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uint64, len(c.open))
	copy(ids, c.open)
	for _, id := range ids {
		_, _ = c.cancelLocked(id)
	}

	taken := c.revenue
	c.revenue = decimal.Zero
	c.popularity = make(map[string]int64)
	c.popOrder = nil
	c.catalog.Clear()
	c.notifier.Invalidate()

	metrics := observability.Telemetry()
	metrics.SetGauge("cafeteria.revenue", 0, map[string]string{"cafeteria": c.name})
	return taken
}

func (c *Cafeteria) holdsLocked(id uint64) bool {
	for _, candidate := range c.open {
		if candidate == id {
			return true
		}
	}
	return false
}

func (c *Cafeteria) dropLocked(id uint64) {
	for i, candidate := range c.open {
		if candidate == id {
			c.open = append(c.open[:i], c.open[i+1:]...)
			return
		}
	}
}

func (c *Cafeteria) unknownOrder(id uint64) error {
	return errs.New("cafeteria/orders", errs.CodeNotFound,
		errs.WithMessage(fmt.Sprintf("order %d not found at %s", id, c.name)),
		errs.WithField("cafeteria", c.name))
}
