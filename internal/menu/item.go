// Package menu implements the per-cafeteria catalog of priced, quantity-limited items.
package menu

import "github.com/shopspring/decimal"

// Item is a single catalog entry owned by one cafeteria.
type Item struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int64
}

// Change describes an in-place catalog mutation forwarded to the shared index.
// Description and Price are nil when the mutation only touched the quantity.
type Change struct {
	Item        string
	Cafeteria   string
	Quantity    int64
	Description *string
	Price       *decimal.Decimal
}

// Notifier receives index-maintenance notifications emitted by catalog mutations.
type Notifier interface {
	ItemChanged(change Change)
	ItemRemoved(item, cafeteria string)
	Invalidate()
}

type noopNotifier struct{}

func (noopNotifier) ItemChanged(Change)      {}
func (noopNotifier) ItemRemoved(string, string) {}
func (noopNotifier) Invalidate()             {}
