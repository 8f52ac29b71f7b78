// Package order defines the reservation entity, its status machine, and the
// arena that owns every order on campus.
package order

import (
	"github.com/shopspring/decimal"
)

// Status tracks an order through its lifecycle.
type Status string

const (
	// StatusAccepted is the initial state of every order.
	StatusAccepted Status = "accepted"
	// StatusCompleted marks an order fulfilled by the cafeteria.
	StatusCompleted Status = "completed"
	// StatusCancelled is terminal; reachable from Accepted or Completed.
	StatusCancelled Status = "cancelled"
	// StatusPickedUp is terminal; reachable only from Completed.
	StatusPickedUp Status = "picked_up"
)

// Order is a reservation against cafeteria inventory. Total is fixed at
// creation and never recomputed.
type Order struct {
	ID           uint64
	Cafeteria    string
	CustomerID   string
	CustomerKind string
	Item         string
	Quantity     int64
	UnitPrice    decimal.Decimal
	Discount     int64
	Total        decimal.Decimal
	Status       Status
}

var hundred = decimal.NewFromInt(100)

// TotalPrice computes unitPrice × quantity × (1 − discount/100).
func TotalPrice(unitPrice decimal.Decimal, quantity, discount int64) decimal.Decimal {
	factor := hundred.Sub(decimal.NewFromInt(discount)).Div(hundred)
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Mul(factor)
}

// ImpliedUnitPrice back-computes the pre-discount unit price from the frozen
// total: total / (quantity × (1 − discount/100)). Used when a cancellation
// must recreate a removed catalog item.
func (o Order) ImpliedUnitPrice() decimal.Decimal {
	factor := hundred.Sub(decimal.NewFromInt(o.Discount)).Div(hundred)
	divisor := decimal.NewFromInt(o.Quantity).Mul(factor)
	if divisor.Sign() == 0 {
		return decimal.Zero
	}
	return o.Total.Div(divisor)
}

// Open reports whether the order still occupies the cafeteria's open set.
func (o Order) Open() bool {
	return o.Status == StatusAccepted || o.Status == StatusCompleted
}
