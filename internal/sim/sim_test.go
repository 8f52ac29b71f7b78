package sim

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mensahq/mensa/config"
	"github.com/mensahq/mensa/internal/campus"
)

func newTestCampus(t *testing.T) *campus.Campus {
	t.Helper()
	c := campus.New("test-campus")
	caf, err := c.AddCafeteria("riverside")
	require.NoError(t, err)
	require.NoError(t, caf.Catalog().Add("Soup", "tomato soup", decimal.NewFromFloat(3.5), 500))
	require.NoError(t, caf.Catalog().Add("Coffee", "filter coffee", decimal.NewFromFloat(1.8), 500))
	require.NoError(t, caf.Catalog().Add("Bagel", "plain bagel", decimal.NewFromFloat(2.2), 500))
	return c
}

func testSettings() config.SimulationSettings {
	return config.SimulationSettings{
		Enabled:        true,
		Seed:           7,
		Rounds:         40,
		Students:       6,
		Staff:          2,
		OrdersPerSec:   10000,
		RestockEvery:   5,
		RestockBatch:   20,
		TopUpAmount:    "25",
		InitialBalance: "50",
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, testSettings())
	require.Error(t, err)

	cfg := testSettings()
	cfg.Rounds = 0
	_, err = New(newTestCampus(t), cfg)
	require.Error(t, err)
}

func TestRunSettlesEveryOrder(t *testing.T) {
	c := newTestCampus(t)
	s, err := New(c, testSettings())
	require.NoError(t, err)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Positive(t, stats.Placed)
	require.Equal(t, stats.Placed, stats.Completed+stats.Cancelled)
	require.LessOrEqual(t, stats.PickedUp, stats.Completed)
	if stats.Completed > 0 {
		require.True(t, stats.Revenue.IsPositive())
	}
}

func TestRunSeedsCustomers(t *testing.T) {
	c := newTestCampus(t)
	s, err := New(c, testSettings())
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 8, c.Directory().Len())
}

func TestRunLeavesIndexConsistent(t *testing.T) {
	c := newTestCampus(t)
	s, err := New(c, testSettings())
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	// The shared index must agree with the catalogs once the day is over.
	entries := c.SortedMenu()
	byItem := make(map[string]int64, len(entries))
	for _, entry := range entries {
		byItem[entry.Item] = entry.Quantity
	}
	caf, err := c.Cafeteria("riverside")
	require.NoError(t, err)
	for name, item := range caf.Catalog().Items() {
		require.Equal(t, item.Quantity, byItem[name], "item %s", name)
	}
}

func TestRunCancelledWithoutDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCampus(t)
	s, err := New(c, testSettings())
	require.NoError(t, err)

	stats, err := s.Run(ctx)
	if err == nil {
		require.Zero(t, stats.Placed)
	}
}
