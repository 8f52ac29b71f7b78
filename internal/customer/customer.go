// Package customer models campus customers as a single type parameterized by
// kind: each kind carries a discount rate and a capability set checked before
// any operation reaches the fulfillment core.
package customer

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
)

// Kind distinguishes customer categories.
type Kind string

const (
	// KindStudent gets a 20% discount.
	KindStudent Kind = "student"
	// KindStaff gets a 10% discount.
	KindStaff Kind = "staff"
	// KindGuest may only browse and search; no balance, no orders.
	KindGuest Kind = "guest"
)

// Capability names one permitted operation.
type Capability uint8

const (
	// CapViewMenu permits browsing cafeteria menus.
	CapViewMenu Capability = 1 << iota
	// CapSearch permits cross-cafeteria item search.
	CapSearch
	// CapPlaceOrder permits placing reservations.
	CapPlaceOrder
	// CapHoldBalance permits holding and topping up a balance.
	CapHoldBalance
	// CapPickUp permits picking completed orders up.
	CapPickUp
)

// Capabilities returns the permitted operation set for the kind.
func (k Kind) Capabilities() Capability {
	switch k {
	case KindStudent, KindStaff:
		return CapViewMenu | CapSearch | CapPlaceOrder | CapHoldBalance | CapPickUp
	default:
		return CapViewMenu | CapSearch
	}
}

// DiscountPercent returns the flat discount rate for the kind.
func (k Kind) DiscountPercent() int64 {
	switch k {
	case KindStudent:
		return 20
	case KindStaff:
		return 10
	default:
		return 0
	}
}

// Customer holds identity, capability set, balance, and the open-order list.
// The balance is owned exclusively here; the fulfillment engine requests
// debits and credits through it.
type Customer struct {
	id       string
	name     string
	kind     Kind
	discount int64
	caps     Capability

	mu      sync.Mutex
	balance decimal.Decimal
	open    []uint64
}

// New creates a customer of the given kind with a zero balance.
func New(id, name string, kind Kind) *Customer {
	return &Customer{
		id:       id,
		name:     name,
		kind:     kind,
		discount: kind.DiscountPercent(),
		caps:     kind.Capabilities(),
	}
}

// ID returns the customer id.
func (c *Customer) ID() string { return c.id }

// Name returns the display name.
func (c *Customer) Name() string { return c.name }

// Kind returns the customer kind.
func (c *Customer) Kind() Kind { return c.kind }

// DiscountPercent returns the discount applied to this customer's orders.
func (c *Customer) DiscountPercent() int64 { return c.discount }

// Can reports whether the capability set permits the operation.
func (c *Customer) Can(cap Capability) bool { return c.caps&cap != 0 }

// Require returns PermissionDenied when the capability is missing.
func (c *Customer) Require(cap Capability) error {
	if c.Can(cap) {
		return nil
	}
	return errs.New("customer/capability", errs.CodePermission,
		errs.WithMessage(string(c.kind)+" customers are not permitted to perform this operation"),
		errs.WithField("customer_id", c.id))
}

// Balance returns the current balance.
func (c *Customer) Balance() (decimal.Decimal, error) {
	if err := c.Require(CapHoldBalance); err != nil {
		return decimal.Zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance, nil
}

// AddBalance tops the balance up and returns the new value.
func (c *Customer) AddBalance(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := c.Require(CapHoldBalance); err != nil {
		return decimal.Zero, err
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, errs.New("customer/balance", errs.CodeInvalid,
			errs.WithMessage("top-up amount must be greater than zero"),
			errs.WithField("amount", amount.String()))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance = c.balance.Add(amount)
	return c.balance, nil
}

// CanAfford reports whether the balance covers the given price.
func (c *Customer) CanAfford(price decimal.Decimal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance.GreaterThanOrEqual(price)
}

// Debit withdraws amount from the balance. The check and the withdrawal are
// one critical section, so the balance can never go negative.
func (c *Customer) Debit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errs.New("customer/balance", errs.CodeInvalid,
			errs.WithMessage("debit amount must be greater than zero"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balance.LessThan(amount) {
		return errs.New("customer/balance", errs.CodeInsufficientFunds,
			errs.WithMessage("balance "+c.balance.String()+" below required "+amount.String()),
			errs.WithField("customer_id", c.id))
	}
	c.balance = c.balance.Sub(amount)
	return nil
}

// Credit returns amount to the balance.
func (c *Customer) Credit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errs.New("customer/balance", errs.CodeInvalid,
			errs.WithMessage("credit amount must be greater than zero"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance = c.balance.Add(amount)
	return nil
}

// TrackOrder appends an order id to the open-order list.
func (c *Customer) TrackOrder(id uint64) {
	c.mu.Lock()
	c.open = append(c.open, id)
	c.mu.Unlock()
}

// DropOrder removes an order id from the open-order list.
func (c *Customer) DropOrder(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, candidate := range c.open {
		if candidate == id {
			c.open = append(c.open[:i], c.open[i+1:]...)
			return true
		}
	}
	return false
}

// OpenOrders returns a copy of the open-order id list.
func (c *Customer) OpenOrders() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, len(c.open))
	copy(out, c.open)
	return out
}

// HasOrder reports whether the open-order list contains the id.
func (c *Customer) HasOrder(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, candidate := range c.open {
		if candidate == id {
			return true
		}
	}
	return false
}

// String renders the customer the way receipts show it.
func (c *Customer) String() string {
	if c.id == "" {
		return c.name + " (" + string(c.kind) + ")"
	}
	return c.name + " - " + c.id + " (" + string(c.kind) + ")"
}
