package menu

import (
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
)

// Catalog owns the item mapping of a single cafeteria. Mutations emit
// index-maintenance notifications so the shared index can track them.
type Catalog struct {
	cafeteria string
	notifier  Notifier

	mu    sync.RWMutex
	items map[string]Item
}

// NewCatalog creates an empty catalog for the named cafeteria.
func NewCatalog(cafeteria string, notifier Notifier) *Catalog {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Catalog{
		cafeteria: cafeteria,
		notifier:  notifier,
		items:     make(map[string]Item),
	}
}

// Cafeteria returns the owning cafeteria name.
func (c *Catalog) Cafeteria() string { return c.cafeteria }

// Add registers a new item. The name must be unique within the catalog.
func (c *Catalog) Add(name, description string, price decimal.Decimal, quantity int64) error {
	if err := validatePriceQuantity(price, quantity); err != nil {
		return err
	}
	c.mu.Lock()
	if _, exists := c.items[name]; exists {
		c.mu.Unlock()
		return errs.New("menu/add", errs.CodeInvalid,
			errs.WithMessage("item already on the menu"),
			errs.WithField("item", name))
	}
	item := Item{Name: name, Description: description, Price: price, Quantity: quantity}
	c.items[name] = item
	c.mu.Unlock()

	c.notifier.ItemChanged(c.detailedChange(item))
	return nil
}

// ReplaceAll swaps the entire catalog for the provided mapping. The input is
// copied so later caller mutations cannot alias catalog state. Bulk
// replacement can reorder the shared index arbitrarily, so the index is
// invalidated rather than patched.
func (c *Catalog) ReplaceAll(items map[string]Item) {
	next := make(map[string]Item, len(items))
	for name, item := range items {
		item.Name = name
		next[name] = item
	}
	c.mu.Lock()
	c.items = next
	c.mu.Unlock()

	c.notifier.Invalidate()
}

// Update rewrites an item's description, price, and quantity, optionally
// renaming it. A rename changes the sort key, which incremental index
// maintenance cannot track, so it invalidates the index instead.
func (c *Catalog) Update(name, description string, price decimal.Decimal, quantity int64, newName string) error {
	if err := validatePriceQuantity(price, quantity); err != nil {
		return err
	}
	c.mu.Lock()
	item, exists := c.items[name]
	if !exists {
		c.mu.Unlock()
		return notFound("menu/update", name)
	}
	renamed := newName != "" && newName != name
	if renamed {
		delete(c.items, name)
		item.Name = newName
	}
	item.Description = description
	item.Price = price
	item.Quantity = quantity
	c.items[item.Name] = item
	c.mu.Unlock()

	if renamed {
		c.notifier.Invalidate()
		return nil
	}
	c.notifier.ItemChanged(c.detailedChange(item))
	return nil
}

// Restock adds delta to an item's available quantity and returns the new total.
func (c *Catalog) Restock(name string, delta int64) (int64, error) {
	if delta <= 0 {
		return 0, errs.New("menu/restock", errs.CodeInvalid,
			errs.WithMessage("restock quantity must be greater than zero"),
			errs.WithField("quantity", strconv.FormatInt(delta, 10)))
	}
	c.mu.Lock()
	item, exists := c.items[name]
	if !exists {
		c.mu.Unlock()
		return 0, notFound("menu/restock", name)
	}
	item.Quantity += delta
	c.items[name] = item
	c.mu.Unlock()

	c.notifier.ItemChanged(c.detailedChange(item))
	return item.Quantity, nil
}

// Remove deletes an item from the catalog.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	if _, exists := c.items[name]; !exists {
		c.mu.Unlock()
		return notFound("menu/remove", name)
	}
	delete(c.items, name)
	c.mu.Unlock()

	c.notifier.ItemRemoved(name, c.cafeteria)
	return nil
}

// Reservation reports the outcome of a stock reservation.
type Reservation struct {
	Item      string
	Fulfilled int64
	UnitPrice decimal.Decimal
	Clamped   bool
}

// Reserve decrements stock for a pending order. A request above the available
// quantity is clamped to what remains and flagged so the caller can attach an
// advisory message; a request against zero stock fails outright.
func (c *Catalog) Reserve(name string, quantity int64) (Reservation, error) {
	if quantity <= 0 {
		return Reservation{}, errs.New("menu/reserve", errs.CodeInvalid,
			errs.WithMessage("reservation quantity must be greater than zero"))
	}
	c.mu.Lock()
	item, exists := c.items[name]
	if !exists {
		c.mu.Unlock()
		return Reservation{}, notFound("menu/reserve", name)
	}
	if item.Quantity == 0 {
		c.mu.Unlock()
		return Reservation{}, errs.New("menu/reserve", errs.CodeOutOfStock,
			errs.WithMessage(name+" is out of stock"),
			errs.WithField("item", name))
	}
	res := Reservation{Item: name, Fulfilled: quantity, UnitPrice: item.Price}
	if quantity > item.Quantity {
		res.Fulfilled = item.Quantity
		res.Clamped = true
	}
	item.Quantity -= res.Fulfilled
	c.items[name] = item
	c.mu.Unlock()

	c.notifier.ItemChanged(Change{Item: name, Cafeteria: c.cafeteria, Quantity: item.Quantity})
	return res, nil
}

// Restore returns reserved stock after a cancellation. When the item was
// removed in the meantime it is recreated with the price implied by the
// cancelled order and an empty description.
func (c *Catalog) Restore(name string, quantity int64, impliedPrice decimal.Decimal) {
	c.mu.Lock()
	item, exists := c.items[name]
	if exists {
		item.Quantity += quantity
	} else {
		item = Item{Name: name, Price: impliedPrice, Quantity: quantity}
	}
	c.items[name] = item
	c.mu.Unlock()

	c.notifier.ItemChanged(c.detailedChange(item))
}

// Get returns a copy of the named item.
func (c *Catalog) Get(name string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[name]
	return item, ok
}

// Items returns a copy of the full item mapping.
func (c *Catalog) Items() map[string]Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Item, len(c.items))
	for name, item := range c.items {
		out[name] = item
	}
	return out
}

// Len reports the number of items on the menu.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear drops every item without emitting notifications; close-out
// invalidates the index wholesale instead.
func (c *Catalog) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Item)
	c.mu.Unlock()
}

func (c *Catalog) detailedChange(item Item) Change {
	desc := item.Description
	price := item.Price
	return Change{
		Item:        item.Name,
		Cafeteria:   c.cafeteria,
		Quantity:    item.Quantity,
		Description: &desc,
		Price:       &price,
	}
}

func validatePriceQuantity(price decimal.Decimal, quantity int64) error {
	if price.Sign() <= 0 {
		return errs.New("menu", errs.CodeInvalid,
			errs.WithMessage("price must be greater than zero"),
			errs.WithField("price", price.String()))
	}
	if quantity <= 0 {
		return errs.New("menu", errs.CodeInvalid,
			errs.WithMessage("quantity must be greater than zero"),
			errs.WithField("quantity", strconv.FormatInt(quantity, 10)))
	}
	return nil
}

func notFound(scope, item string) error {
	return errs.New(scope, errs.CodeNotFound,
		errs.WithMessage(item+" is not on the menu"),
		errs.WithField("item", item))
}
