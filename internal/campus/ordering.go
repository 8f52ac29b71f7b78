package campus

import (
	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
	"github.com/mensahq/mensa/internal/cafeteria"
	"github.com/mensahq/mensa/internal/customer"
	"github.com/mensahq/mensa/internal/menuindex"
	"github.com/mensahq/mensa/internal/observability"
	"github.com/mensahq/mensa/internal/order"
)

// PlaceOrder reserves stock at the named cafeteria on behalf of a customer
// and returns the created order plus an advisory message when the request was
// clamped to the remaining stock.
//
// The affordability pre-check deliberately uses the unclamped price, before
// the clamp is known: a request for ten portions with stock for three is
// rejected when the balance covers three but not ten. This mirrors the
// caller-side check in the reference behavior; see DESIGN.md.
func (c *Campus) PlaceOrder(customerID, cafeteriaName, item string, quantity int64) (string, order.Order, error) {
	cust, err := c.directory.Lookup(customerID)
	if err != nil {
		return "", order.Order{}, err
	}
	if err := cust.Require(customer.CapPlaceOrder); err != nil {
		return "", order.Order{}, err
	}
	caf, err := c.Cafeteria(cafeteriaName)
	if err != nil {
		return "", order.Order{}, err
	}
	if quantity <= 0 {
		return "", order.Order{}, errs.New("campus/orders", errs.CodeInvalid,
			errs.WithMessage("quantity must be greater than zero"))
	}

	listed, ok := caf.Catalog().Get(item)
	if !ok {
		return "", order.Order{}, errs.New("campus/orders", errs.CodeNotFound,
			errs.WithMessage(item+" is not on the menu at "+cafeteriaName),
			errs.WithField("item", item),
			errs.WithField("cafeteria", cafeteriaName))
	}
	unclamped := order.TotalPrice(listed.Price, quantity, cust.DiscountPercent())
	if !cust.CanAfford(unclamped) {
		return "", order.Order{}, errs.New("campus/orders", errs.CodeInsufficientFunds,
			errs.WithMessage("balance does not cover this order"),
			errs.WithField("customer_id", customerID),
			errs.WithField("required", unclamped.String()))
	}

	advisory, ord, err := caf.Fulfill(cafeteria.Request{
		CustomerID:      customerID,
		CustomerKind:    string(cust.Kind()),
		Item:            item,
		Quantity:        quantity,
		DiscountPercent: cust.DiscountPercent(),
	}, cust.Debit)
	if err != nil {
		return "", order.Order{}, err
	}
	cust.TrackOrder(ord.ID)

	observability.Log().Debug("order placed",
		observability.F("order_id", ord.ID),
		observability.F("cafeteria", cafeteriaName),
		observability.F("item", item),
		observability.F("quantity", ord.Quantity),
		observability.F("total", ord.Total.String()))
	return advisory, ord, nil
}

// CompleteOrder marks an open order fulfilled and records its revenue.
func (c *Campus) CompleteOrder(cafeteriaName string, id uint64) (order.Order, error) {
	caf, err := c.Cafeteria(cafeteriaName)
	if err != nil {
		return order.Order{}, err
	}
	return caf.Complete(id)
}

// CancelOrder reverses an open order, restoring stock and refunding the
// customer.
func (c *Campus) CancelOrder(cafeteriaName string, id uint64) (order.Order, error) {
	caf, err := c.Cafeteria(cafeteriaName)
	if err != nil {
		return order.Order{}, err
	}
	return caf.Cancel(id)
}

// PickUpOrder hands a completed order over and retires it from the
// customer's open-order list.
func (c *Campus) PickUpOrder(customerID string, id uint64) (order.Order, error) {
	cust, err := c.directory.Lookup(customerID)
	if err != nil {
		return order.Order{}, err
	}
	if err := cust.Require(customer.CapPickUp); err != nil {
		return order.Order{}, err
	}
	if !cust.HasOrder(id) {
		return order.Order{}, errs.New("campus/orders", errs.CodeNotFound,
			errs.WithMessage("order not found for this customer"),
			errs.WithField("customer_id", customerID))
	}
	ord, err := c.arena.Get(id)
	if err != nil {
		return order.Order{}, err
	}
	caf, err := c.Cafeteria(ord.Cafeteria)
	if err != nil {
		return order.Order{}, err
	}
	picked, err := caf.PickUp(id)
	if err != nil {
		return order.Order{}, err
	}
	cust.DropOrder(id)
	return picked, nil
}

// AddBalance tops a customer's balance up and returns the new value.
func (c *Campus) AddBalance(customerID string, amount decimal.Decimal) (decimal.Decimal, error) {
	cust, err := c.directory.Lookup(customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return cust.AddBalance(amount)
}

// BalanceOf returns a customer's current balance.
func (c *Campus) BalanceOf(customerID string) (decimal.Decimal, error) {
	cust, err := c.directory.Lookup(customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return cust.Balance()
}

// CustomerOrders resolves the customer's open-order list against the arena.
func (c *Campus) CustomerOrders(customerID string) ([]order.Order, error) {
	cust, err := c.directory.Lookup(customerID)
	if err != nil {
		return nil, err
	}
	if err := cust.Require(customer.CapPlaceOrder); err != nil {
		return nil, err
	}
	ids := cust.OpenOrders()
	out := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		if ord, err := c.arena.Get(id); err == nil {
			out = append(out, ord)
		}
	}
	return out, nil
}

// PricedItem is a menu line with the customer's discount applied.
type PricedItem struct {
	Description string
	Price       decimal.Decimal
	Quantity    int64
}

// ViewMenu returns the named cafeteria's item prices with the customer's
// discount applied.
func (c *Campus) ViewMenu(customerID, cafeteriaName string) (map[string]decimal.Decimal, error) {
	detailed, err := c.ViewDetailedMenu(customerID, cafeteriaName)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(detailed))
	for name, item := range detailed {
		out[name] = item.Price
	}
	return out, nil
}

// ViewDetailedMenu returns the named cafeteria's full menu lines with the
// customer's discount applied to every price.
func (c *Campus) ViewDetailedMenu(customerID, cafeteriaName string) (map[string]PricedItem, error) {
	cust, err := c.directory.Lookup(customerID)
	if err != nil {
		return nil, err
	}
	if err := cust.Require(customer.CapViewMenu); err != nil {
		return nil, err
	}
	caf, err := c.Cafeteria(cafeteriaName)
	if err != nil {
		return nil, err
	}
	out := make(map[string]PricedItem)
	for name, item := range caf.Catalog().Items() {
		out[name] = PricedItem{
			Description: item.Description,
			Price:       discounted(item.Price, cust.DiscountPercent()),
			Quantity:    item.Quantity,
		}
	}
	return out, nil
}

// SearchFor searches the campus index and applies the customer's discount to
// the listed prices.
func (c *Campus) SearchFor(customerID, item string) ([]menuindex.Entry, error) {
	cust, err := c.directory.Lookup(customerID)
	if err != nil {
		return nil, err
	}
	if err := cust.Require(customer.CapSearch); err != nil {
		return nil, err
	}
	entries, err := c.index.Search(item)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Price = discounted(entries[i].Price, cust.DiscountPercent())
	}
	return entries, nil
}

var hundred = decimal.NewFromInt(100)

func discounted(price decimal.Decimal, percent int64) decimal.Decimal {
	return price.Mul(hundred.Sub(decimal.NewFromInt(percent))).Div(hundred)
}
