package customer

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mensahq/mensa/errs"
)

func TestKindCapabilities(t *testing.T) {
	for _, kind := range []Kind{KindStudent, KindStaff} {
		caps := kind.Capabilities()
		require.NotZero(t, caps&CapPlaceOrder, kind)
		require.NotZero(t, caps&CapHoldBalance, kind)
		require.NotZero(t, caps&CapPickUp, kind)
	}

	guest := KindGuest.Capabilities()
	require.NotZero(t, guest&CapViewMenu)
	require.NotZero(t, guest&CapSearch)
	require.Zero(t, guest&CapPlaceOrder)
	require.Zero(t, guest&CapHoldBalance)
	require.Zero(t, guest&CapPickUp)
}

func TestKindDiscounts(t *testing.T) {
	require.EqualValues(t, 20, KindStudent.DiscountPercent())
	require.EqualValues(t, 10, KindStaff.DiscountPercent())
	require.EqualValues(t, 0, KindGuest.DiscountPercent())
}

func TestGuestCannotHoldBalance(t *testing.T) {
	guest := New("g-1", "Visitor", KindGuest)

	_, err := guest.AddBalance(decimal.NewFromInt(10))
	require.True(t, errs.HasCode(err, errs.CodePermission))
	_, err = guest.Balance()
	require.True(t, errs.HasCode(err, errs.CodePermission))
}

func TestAddBalanceValidation(t *testing.T) {
	cust := New("s-1", "Alice", KindStudent)

	_, err := cust.AddBalance(decimal.Zero)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))

	balance, err := cust.AddBalance(decimal.NewFromInt(30))
	require.NoError(t, err)
	require.Equal(t, "30", balance.String())
}

func TestDebitNeverOverdraws(t *testing.T) {
	cust := New("s-1", "Alice", KindStudent)
	_, err := cust.AddBalance(decimal.NewFromInt(10))
	require.NoError(t, err)

	err = cust.Debit(decimal.NewFromInt(11))
	require.True(t, errs.HasCode(err, errs.CodeInsufficientFunds))

	require.NoError(t, cust.Debit(decimal.NewFromInt(10)))
	balance, err := cust.Balance()
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestConcurrentDebits(t *testing.T) {
	cust := New("s-1", "Alice", KindStudent)
	_, err := cust.AddBalance(decimal.NewFromInt(100))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cust.Debit(decimal.NewFromInt(1))
		}()
	}
	wg.Wait()

	balance, err := cust.Balance()
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestCreditRefunds(t *testing.T) {
	cust := New("s-1", "Alice", KindStudent)
	require.NoError(t, cust.Credit(decimal.NewFromFloat(5.6)))
	balance, err := cust.Balance()
	require.NoError(t, err)
	require.Equal(t, "5.6", balance.String())

	err = cust.Credit(decimal.Zero)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
}

func TestOpenOrderTracking(t *testing.T) {
	cust := New("s-1", "Alice", KindStudent)
	cust.TrackOrder(3)
	cust.TrackOrder(7)

	require.True(t, cust.HasOrder(3))
	require.False(t, cust.HasOrder(4))
	require.Equal(t, []uint64{3, 7}, cust.OpenOrders())

	require.True(t, cust.DropOrder(3))
	require.False(t, cust.DropOrder(3))
	require.Equal(t, []uint64{7}, cust.OpenOrders())
}

func TestString(t *testing.T) {
	require.Equal(t, "Alice - s-1 (student)", New("s-1", "Alice", KindStudent).String())
	require.Equal(t, "Visitor (guest)", New("", "Visitor", KindGuest).String())
}

func TestDirectory(t *testing.T) {
	dir := NewDirectory()

	alice, err := dir.Add("", "Alice", KindStudent)
	require.NoError(t, err)
	require.NotEmpty(t, alice.ID())

	bob, err := dir.Add("staff-1", "Bob", KindStaff)
	require.NoError(t, err)
	require.Equal(t, "staff-1", bob.ID())

	_, err = dir.Add("staff-1", "Imposter", KindStaff)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))

	got, err := dir.Lookup("staff-1")
	require.NoError(t, err)
	require.Equal(t, "Bob", got.Name())

	_, err = dir.Lookup("nobody")
	require.True(t, errs.HasCode(err, errs.CodeNotFound))

	all := dir.All()
	require.Len(t, all, 2)
	require.Equal(t, "Alice", all[0].Name())
	require.Equal(t, 2, dir.Len())
}

func TestDirectoryCreditSatisfiesRefunder(t *testing.T) {
	dir := NewDirectory()
	_, err := dir.Add("s-1", "Alice", KindStudent)
	require.NoError(t, err)

	require.NoError(t, dir.Credit("s-1", decimal.NewFromInt(5)))
	cust, err := dir.Lookup("s-1")
	require.NoError(t, err)
	balance, err := cust.Balance()
	require.NoError(t, err)
	require.Equal(t, "5", balance.String())

	err = dir.Credit("nobody", decimal.NewFromInt(5))
	require.True(t, errs.HasCode(err, errs.CodeNotFound))
}
