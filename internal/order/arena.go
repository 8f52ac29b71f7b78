package order

import (
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
)

// Arena owns every order, keyed by id. Cafeterias and customers hold only ids
// and resolve them here, so no back-references exist between entities. Ids are
// allocated monotonically and never reused.
type Arena struct {
	mu     sync.Mutex
	orders map[uint64]*Order
	nextID uint64
}

// NewArena creates an empty arena. The first allocated id is 1.
func NewArena() *Arena {
	return &Arena{orders: make(map[uint64]*Order), nextID: 1}
}

// Create allocates an id and stores a new Accepted order.
func (a *Arena) Create(cafeteria, customerID, customerKind, item string, quantity int64, unitPrice decimal.Decimal, discount int64) Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	o := &Order{
		ID:           a.nextID,
		Cafeteria:    cafeteria,
		CustomerID:   customerID,
		CustomerKind: customerKind,
		Item:         item,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Discount:     discount,
		Total:        TotalPrice(unitPrice, quantity, discount),
		Status:       StatusAccepted,
	}
	a.nextID++
	a.orders[o.ID] = o
	return *o
}

// Get returns a snapshot of the order with the given id.
func (a *Arena) Get(id uint64) (Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.orders[id]
	if !ok {
		return Order{}, a.notFound(id)
	}
	return *o, nil
}

// Complete transitions Accepted → Completed.
func (a *Arena) Complete(id uint64) (Order, error) {
	return a.transition(id, StatusCompleted, StatusAccepted)
}

// Cancel transitions Accepted or Completed → Cancelled.
func (a *Arena) Cancel(id uint64) (Order, error) {
	return a.transition(id, StatusCancelled, StatusAccepted, StatusCompleted)
}

// PickUp transitions Completed → PickedUp.
func (a *Arena) PickUp(id uint64) (Order, error) {
	return a.transition(id, StatusPickedUp, StatusCompleted)
}

func (a *Arena) transition(id uint64, to Status, from ...Status) (Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.orders[id]
	if !ok {
		return Order{}, a.notFound(id)
	}
	for _, s := range from {
		if o.Status == s {
			o.Status = to
			return *o, nil
		}
	}
	return Order{}, errs.New("order/transition", errs.CodeInvalidState,
		errs.WithMessage("order cannot move from "+string(o.Status)+" to "+string(to)),
		errs.WithField("order_id", strconv.FormatUint(id, 10)),
		errs.WithField("status", string(o.Status)))
}

func (a *Arena) notFound(id uint64) error {
	return errs.New("order/arena", errs.CodeNotFound,
		errs.WithMessage("order "+strconv.FormatUint(id, 10)+" not found"),
		errs.WithField("order_id", strconv.FormatUint(id, 10)))
}
