package unit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mensahq/mensa/errs"
	"github.com/mensahq/mensa/internal/campus"
	"github.com/mensahq/mensa/internal/order"
)

func seedCampus(t *testing.T) *campus.Campus {
	t.Helper()
	c := campus.New("unit-campus")

	riverside, err := c.AddCafeteria("riverside")
	require.NoError(t, err)
	require.NoError(t, riverside.Catalog().Add("Soup", "tomato", decimal.NewFromFloat(3.5), 10))
	require.NoError(t, riverside.Catalog().Add("Coffee", "filter", decimal.NewFromFloat(1.8), 20))

	hilltop, err := c.AddCafeteria("hilltop")
	require.NoError(t, err)
	require.NoError(t, hilltop.Catalog().Add("Coffee", "espresso", decimal.NewFromFloat(2.0), 15))

	return c
}

func TestStudentDayFlow(t *testing.T) {
	c := seedCampus(t)
	alice, err := c.AddStudent("", "Alice")
	require.NoError(t, err)
	_, err = c.AddBalance(alice.ID(), decimal.NewFromInt(20))
	require.NoError(t, err)

	// Browse, order, complete, pick up.
	menu, err := c.ViewMenu(alice.ID(), "riverside")
	require.NoError(t, err)
	require.Equal(t, "2.8", menu["Soup"].String())

	_, ord, err := c.PlaceOrder(alice.ID(), "riverside", "Soup", 2)
	require.NoError(t, err)
	require.Equal(t, "5.6", ord.Total.String())

	_, err = c.CompleteOrder("riverside", ord.ID)
	require.NoError(t, err)
	picked, err := c.PickUpOrder(alice.ID(), ord.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusPickedUp, picked.Status)

	balance, err := c.BalanceOf(alice.ID())
	require.NoError(t, err)
	require.Equal(t, "14.4", balance.String())

	riverside, err := c.Cafeteria("riverside")
	require.NoError(t, err)
	require.Equal(t, "5.6", riverside.Revenue().String())
}

func TestStaffDiscountDiffersFromStudent(t *testing.T) {
	c := seedCampus(t)
	staff, err := c.AddStaff("", "Bob")
	require.NoError(t, err)
	_, err = c.AddBalance(staff.ID(), decimal.NewFromInt(20))
	require.NoError(t, err)

	_, ord, err := c.PlaceOrder(staff.ID(), "riverside", "Soup", 2)
	require.NoError(t, err)
	// 3.5 * 2 * 0.9
	require.Equal(t, "6.3", ord.Total.String())
}

func TestSharedIndexServesBothCafeterias(t *testing.T) {
	c := seedCampus(t)

	entries, err := c.Search("Coffee")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	sorted := c.SortedMenu()
	require.Len(t, sorted, 3)
	require.Equal(t, "Coffee", sorted[0].Item)
	require.Equal(t, "hilltop", sorted[0].Cafeteria)
	require.Equal(t, "Coffee", sorted[1].Item)
	require.Equal(t, "riverside", sorted[1].Cafeteria)
	require.Equal(t, "Soup", sorted[2].Item)
}

func TestOrderIDsAreCampusUnique(t *testing.T) {
	c := seedCampus(t)
	alice, err := c.AddStudent("", "Alice")
	require.NoError(t, err)
	_, err = c.AddBalance(alice.ID(), decimal.NewFromInt(50))
	require.NoError(t, err)

	_, first, err := c.PlaceOrder(alice.ID(), "riverside", "Soup", 1)
	require.NoError(t, err)
	_, second, err := c.PlaceOrder(alice.ID(), "hilltop", "Coffee", 1)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	// Ids resolve through the campus regardless of the owning cafeteria.
	got, err := c.Order(second.ID)
	require.NoError(t, err)
	require.Equal(t, "hilltop", got.Cafeteria)
}

func TestCancelledOrderIDNeverReused(t *testing.T) {
	c := seedCampus(t)
	alice, err := c.AddStudent("", "Alice")
	require.NoError(t, err)
	_, err = c.AddBalance(alice.ID(), decimal.NewFromInt(50))
	require.NoError(t, err)

	_, first, err := c.PlaceOrder(alice.ID(), "riverside", "Soup", 1)
	require.NoError(t, err)
	_, err = c.CancelOrder("riverside", first.ID)
	require.NoError(t, err)

	_, second, err := c.PlaceOrder(alice.ID(), "riverside", "Soup", 1)
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	// The cancelled order stays resolvable as a tombstone.
	got, err := c.Order(first.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusCancelled, got.Status)
}

func TestErrorCodesSurviveWrapping(t *testing.T) {
	c := seedCampus(t)
	_, _, err := c.PlaceOrder("nobody", "riverside", "Soup", 1)
	require.True(t, errs.HasCode(err, errs.CodeNotFound))
	require.Contains(t, err.Error(), "code=not_found")
}
