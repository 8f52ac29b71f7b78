// Package sim drives a synthetic campus day against the fulfillment core.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"

	"github.com/mensahq/mensa/config"
	"github.com/mensahq/mensa/errs"
	"github.com/mensahq/mensa/internal/cafeteria"
	"github.com/mensahq/mensa/internal/campus"
	"github.com/mensahq/mensa/internal/customer"
	"github.com/mensahq/mensa/internal/observability"
	"github.com/mensahq/mensa/lib/async"
)

// Stats aggregates the outcome counters of one simulated day.
type Stats struct {
	Placed    int64
	Rejected  int64
	Completed int64
	Cancelled int64
	PickedUp  int64
	TopUps    int64
	Restocks  int64
	Revenue   decimal.Decimal
}

// Simulator replays a randomised order day on a campus. Runs with the same
// seed and campus contents make the same decisions.
type Simulator struct {
	campus *campus.Campus
	cfg    config.SimulationSettings

	placed    atomic.Int64
	rejected  atomic.Int64
	completed atomic.Int64
	cancelled atomic.Int64
	pickedUp  atomic.Int64
	topUps    atomic.Int64
	restocks  atomic.Int64
}

// New builds a simulator over the given campus.
func New(c *campus.Campus, cfg config.SimulationSettings) (*Simulator, error) {
	if c == nil {
		return nil, errs.New("sim", errs.CodeInvalid, errs.WithMessage("campus must not be nil"))
	}
	if cfg.Rounds <= 0 {
		return nil, errs.New("sim", errs.CodeInvalid, errs.WithMessage("rounds must be >0"))
	}
	if cfg.OrdersPerSec <= 0 {
		cfg.OrdersPerSec = 50
	}
	if cfg.RestockEvery <= 0 {
		cfg.RestockEvery = 5
	}
	if cfg.RestockBatch <= 0 {
		cfg.RestockBatch = 10
	}
	return &Simulator{campus: c, cfg: cfg}, nil
}

// Run executes the configured number of rounds per cafeteria and returns the
// aggregated counters. It seeds customers and balances before the first
// order.
func (s *Simulator) Run(ctx context.Context) (Stats, error) {
	if err := s.seedCustomers(); err != nil {
		return Stats{}, err
	}
	customers := s.campus.Directory().All()
	cafeterias := s.campus.Cafeterias()
	if len(customers) == 0 || len(cafeterias) == 0 {
		return Stats{}, errs.New("sim", errs.CodeInvalid,
			errs.WithMessage("simulation needs at least one customer and one cafeteria"))
	}

	pool, err := async.NewPool(len(cafeterias)*2, s.cfg.Rounds)
	if err != nil {
		return Stats{}, err
	}
	limiter := rate.NewLimiter(rate.Limit(s.cfg.OrdersPerSec), 1)

	var wg conc.WaitGroup
	for i, caf := range cafeterias {
		caf := caf
		rng := rand.New(rand.NewSource(s.cfg.Seed + int64(i)))
		wg.Go(func() {
			s.runCafeteria(ctx, caf, customers, rng, limiter, pool)
		})
	}
	wg.Wait()
	if err := pool.Shutdown(ctx); err != nil {
		return Stats{}, err
	}

	stats := s.snapshot()
	observability.Log().Info("simulated day finished",
		observability.F("placed", stats.Placed),
		observability.F("rejected", stats.Rejected),
		observability.F("completed", stats.Completed),
		observability.F("cancelled", stats.Cancelled),
		observability.F("picked_up", stats.PickedUp),
		observability.F("revenue", stats.Revenue.String()))
	return stats, nil
}

func (s *Simulator) seedCustomers() error {
	if s.cfg.Students > 0 || s.cfg.Staff > 0 {
		if err := s.campus.GenerateCustomers(s.cfg.Students, s.cfg.Staff); err != nil {
			return err
		}
	}
	initial, err := decimal.NewFromString(s.cfg.InitialBalance)
	if err != nil || !initial.IsPositive() {
		initial = decimal.NewFromInt(50)
	}
	for _, cust := range s.campus.Directory().All() {
		// Guests cannot hold balance; skip them.
		if _, err := s.campus.AddBalance(cust.ID(), initial); err != nil &&
			!errs.HasCode(err, errs.CodePermission) {
			return err
		}
	}
	return nil
}

// runCafeteria makes every random decision on its own goroutine so the rng
// is never shared with pool workers; tasks only see concrete values.
func (s *Simulator) runCafeteria(ctx context.Context, caf *cafeteria.Cafeteria, customers []*customer.Customer, rng *rand.Rand, limiter *rate.Limiter, pool *async.Pool) {
	items := caf.Catalog().Items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}

	for round := 1; round <= s.cfg.Rounds; round++ {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		cust := customers[rng.Intn(len(customers))]
		item := names[rng.Intn(len(names))]
		quantity := int64(rng.Intn(5) + 1)
		cancel := rng.Float64() < 0.10
		pickUp := rng.Float64() < 0.80
		topUp := s.topUpAmount()

		if err := pool.Submit(ctx, func(context.Context) error {
			s.placeAndSettle(cust.ID(), caf.Name(), item, quantity, cancel, pickUp, topUp)
			return nil
		}); err != nil {
			// Pool saturated or closed; run inline to keep the day moving.
			s.placeAndSettle(cust.ID(), caf.Name(), item, quantity, cancel, pickUp, topUp)
		}

		if round%s.cfg.RestockEvery == 0 {
			s.restockPopular(caf)
		}
	}
}

func (s *Simulator) placeAndSettle(customerID, cafeteriaName, item string, quantity int64, cancel, pickUp bool, topUp decimal.Decimal) {
	_, ord, err := s.campus.PlaceOrder(customerID, cafeteriaName, item, quantity)
	if errs.HasCode(err, errs.CodeInsufficientFunds) {
		if _, topErr := s.campus.AddBalance(customerID, topUp); topErr == nil {
			s.topUps.Add(1)
			_, ord, err = s.campus.PlaceOrder(customerID, cafeteriaName, item, quantity)
		}
	}
	if err != nil {
		s.rejected.Add(1)
		return
	}
	s.placed.Add(1)

	if cancel {
		if _, err := s.campus.CancelOrder(cafeteriaName, ord.ID); err == nil {
			s.cancelled.Add(1)
		}
		return
	}
	if _, err := s.campus.CompleteOrder(cafeteriaName, ord.ID); err != nil {
		return
	}
	s.completed.Add(1)
	if pickUp {
		if _, err := s.campus.PickUpOrder(customerID, ord.ID); err == nil {
			s.pickedUp.Add(1)
		}
	}
}

func (s *Simulator) restockPopular(caf *cafeteria.Cafeteria) {
	popular, err := caf.PopularItems(5)
	if err != nil {
		return
	}
	for _, entry := range popular {
		if _, err := caf.Catalog().Restock(entry.Item, s.cfg.RestockBatch); err == nil {
			s.restocks.Add(1)
		}
	}
}

func (s *Simulator) topUpAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(s.cfg.TopUpAmount)
	if err != nil || !amount.IsPositive() {
		return decimal.NewFromInt(25)
	}
	return amount
}

func (s *Simulator) snapshot() Stats {
	total := decimal.Zero
	for _, caf := range s.campus.Cafeterias() {
		total = total.Add(caf.Revenue())
	}
	return Stats{
		Placed:    s.placed.Load(),
		Rejected:  s.rejected.Load(),
		Completed: s.completed.Load(),
		Cancelled: s.cancelled.Load(),
		PickedUp:  s.pickedUp.Load(),
		TopUps:    s.topUps.Load(),
		Restocks:  s.restocks.Load(),
		Revenue:   total,
	}
}

// String renders the counters for operator logs.
func (st Stats) String() string {
	return fmt.Sprintf("placed=%d rejected=%d completed=%d cancelled=%d picked_up=%d top_ups=%d restocks=%d revenue=%s",
		st.Placed, st.Rejected, st.Completed, st.Cancelled, st.PickedUp, st.TopUps, st.Restocks, st.Revenue)
}
