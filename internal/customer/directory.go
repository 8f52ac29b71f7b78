package customer

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
)

// Directory registers every customer on campus, keyed by id.
type Directory struct {
	mu        sync.RWMutex
	customers map[string]*Customer
	order     []string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{customers: make(map[string]*Customer)}
}

// Add registers a customer of the given kind. An empty id gets a generated
// one; a duplicate id is rejected.
func (d *Directory) Add(id, name string, kind Kind) (*Customer, error) {
	if id == "" {
		id = uuid.NewString()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.customers[id]; exists {
		return nil, errs.New("customer/directory", errs.CodeInvalid,
			errs.WithMessage("customer id already registered"),
			errs.WithField("customer_id", id))
	}
	c := New(id, name, kind)
	d.customers[id] = c
	d.order = append(d.order, id)
	return c, nil
}

// Lookup resolves a customer by id.
func (d *Directory) Lookup(id string) (*Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[id]
	if !ok {
		return nil, errs.New("customer/directory", errs.CodeNotFound,
			errs.WithMessage("customer "+id+" not found"),
			errs.WithField("customer_id", id))
	}
	return c, nil
}

// All returns every registered customer in registration order.
func (d *Directory) All() []*Customer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Customer, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.customers[id])
	}
	return out
}

// Len reports the number of registered customers.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.customers)
}

// Credit refunds amount to the named customer's balance.
func (d *Directory) Credit(customerID string, amount decimal.Decimal) error {
	c, err := d.Lookup(customerID)
	if err != nil {
		return err
	}
	return c.Credit(amount)
}
