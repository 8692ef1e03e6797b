package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-trading-engine/internal/market"
	"sim-trading-engine/internal/store"
	"sim-trading-engine/internal/types"
)

var t0 = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *recorder) Publish(_ context.Context, ev types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// zeroSource makes every draw return 0.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTickAAPLScenario(t *testing.T) {
	st := market.NewStore(0)
	st.Seed("AAPL", 175.24, 0, 700000, t0)
	pub := &recorder{}

	cfg := Config{
		Interval:  5 * time.Second,
		VolumeMin: 500000,
		VolumeMax: 1000000,
		MinPrice:  0.01,
		Symbols:   []SymbolSpec{{Symbol: "AAPL", Volatility: 0.01}},
	}
	sim := New(cfg, st, pub, WithRand(rand.New(rand.NewSource(42))), WithClock(fixedClock(t0.Add(5*time.Second))))

	pts := sim.Tick(context.Background())
	require.Len(t, pts, 1)
	p := pts[0]

	draw := rand.New(rand.NewSource(42)).Float64()
	want := 175.24 + (draw-0.5)*175.24*0.01
	assert.InDelta(t, want, p.Price, 0.005+1e-9)
	assert.InDelta(t, p.Price-175.24, p.Change, 1e-9)
	assert.InDelta(t, p.Change/175.24*100, p.ChangePercent, 1e-9)
	assert.InDelta(t, p.Change/(p.Price-p.Change)*100, p.ChangePercent, 1e-9)
	assert.GreaterOrEqual(t, p.Volume, int64(500000))
	assert.Less(t, p.Volume, int64(1000000))
	assert.Equal(t, math.Round(p.Price*100)/100, p.Price, "price is rounded to cents")

	latest, err := st.Latest("AAPL")
	require.NoError(t, err)
	assert.Equal(t, p, latest)

	require.Equal(t, 1, pub.count())
	assert.Equal(t, types.EventMarketUpdate, pub.events[0].Type)
	assert.Equal(t, p, pub.events[0].Data)
}

func TestTickSkipsMissingSymbol(t *testing.T) {
	st := market.NewStore(0)
	st.Seed("AAPL", 175.24, 0, 1, t0)
	st.Seed("MSFT", 378.92, 0, 1, t0)
	pub := &recorder{}

	cfg := Config{
		Interval: time.Second, VolumeMin: 1, VolumeMax: 10, MinPrice: 0.01,
		Symbols: []SymbolSpec{{"AAPL", 0.01}, {"NFLX", 0.01}, {"MSFT", 0.01}},
	}
	sim := New(cfg, st, pub, WithRand(rand.New(rand.NewSource(1))), WithClock(fixedClock(t0.Add(time.Second))))

	pts := sim.Tick(context.Background())
	require.Len(t, pts, 2)
	syms := []string{pts[0].Symbol, pts[1].Symbol}
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, syms)
	assert.Equal(t, 2, pub.count())
}

func TestStepReportsTransientError(t *testing.T) {
	sim := New(Config{MinPrice: 0.01}, market.NewStore(0), &recorder{})
	_, err := sim.step(SymbolSpec{Symbol: "NFLX", Volatility: 0.01})

	var tse *types.TransientSimulationError
	require.True(t, errors.As(err, &tse))
	assert.Equal(t, "NFLX", tse.Symbol)
	assert.True(t, types.IsNotFound(err))
}

func TestPriceIsFlooredAtMinimum(t *testing.T) {
	st := market.NewStore(0)
	st.Seed("PENNY", 1.00, 0, 1, t0)

	cfg := Config{
		Interval: time.Second, VolumeMin: 100, VolumeMax: 200, MinPrice: 0.01,
		Symbols: []SymbolSpec{{"PENNY", 4}},
	}
	sim := New(cfg, st, &recorder{}, WithRand(rand.New(zeroSource{})), WithClock(fixedClock(t0.Add(time.Second))))

	pts := sim.Tick(context.Background())
	require.Len(t, pts, 1)
	assert.Equal(t, 0.01, pts[0].Price)
	assert.InDelta(t, -0.99, pts[0].Change, 1e-9)
	assert.Equal(t, int64(100), pts[0].Volume)
}

func TestTimestampsStayStrictlyIncreasing(t *testing.T) {
	st := market.NewStore(0)
	st.Seed("AAPL", 175.24, 0, 1, t0)
	cfg := Config{Interval: time.Second, VolumeMin: 1, VolumeMax: 2, MinPrice: 0.01, Symbols: []SymbolSpec{{"AAPL", 0.01}}}
	// clock stuck at the seed time
	sim := New(cfg, st, &recorder{}, WithRand(rand.New(rand.NewSource(3))), WithClock(fixedClock(t0)))

	for i := 0; i < 3; i++ {
		require.Len(t, sim.Tick(context.Background()), 1)
	}
	h, err := st.History("AAPL")
	require.NoError(t, err)
	require.Len(t, h, 4)
	for i := 1; i < len(h); i++ {
		assert.True(t, h[i].Timestamp.After(h[i-1].Timestamp))
	}
}

func TestStartStopLifecycle(t *testing.T) {
	st := market.NewStore(0)
	st.Seed("BTC", 43567.89, 0, 1, t0)
	pub := &recorder{}
	cfg := Config{Interval: 5 * time.Millisecond, VolumeMin: 1, VolumeMax: 2, MinPrice: 0.01, Symbols: []SymbolSpec{{"BTC", 0.02}}}
	sim := New(cfg, st, pub)

	ctx := context.Background()
	require.NoError(t, sim.Start(ctx))
	assert.ErrorIs(t, sim.Start(ctx), ErrAlreadyStarted)

	require.Eventually(t, func() bool { return pub.count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	sim.Stop(stopCtx)

	n := pub.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, pub.count(), "no ticks after stop")
	assert.ErrorIs(t, sim.Start(ctx), ErrStopped)
}

func TestConfigFrom(t *testing.T) {
	cfg := store.Default()
	c := ConfigFrom(cfg)
	assert.Equal(t, cfg.Simulator.Interval, c.Interval)
	require.Len(t, c.Symbols, len(cfg.Market.Symbols))
	for _, s := range c.Symbols {
		if s.Symbol == "BTC" {
			assert.Equal(t, 0.02, s.Volatility)
		} else {
			assert.Equal(t, 0.01, s.Volatility)
		}
	}
}

func TestConcurrentTicksDoNotOverlap(t *testing.T) {
	const (
		workers = 8
		ticks   = 25
	)
	st := market.NewStore(0)
	st.Seed("AAPL", 175.24, 0, 1, t0)
	st.Seed("MSFT", 378.85, 0, 1, t0)
	pub := &recorder{}
	cfg := Config{Interval: time.Second, VolumeMin: 1, VolumeMax: 2, MinPrice: 0.01, Symbols: []SymbolSpec{{"AAPL", 0.01}, {"MSFT", 0.01}}}
	sim := New(cfg, st, pub, WithRand(rand.New(rand.NewSource(11))))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < ticks; j++ {
				sim.Tick(context.Background())
			}
		}()
	}
	wg.Wait()

	// Each tick publishes its symbols back to back.
	pub.mu.Lock()
	events := append([]types.Event(nil), pub.events...)
	pub.mu.Unlock()
	require.Len(t, events, 2*workers*ticks)
	for i, ev := range events {
		p, ok := ev.Data.(types.MarketDataPoint)
		require.True(t, ok)
		want := "AAPL"
		if i%2 == 1 {
			want = "MSFT"
		}
		assert.Equal(t, want, p.Symbol)
	}

	for _, sym := range []string{"AAPL", "MSFT"} {
		h, err := st.History(sym)
		require.NoError(t, err)
		require.Len(t, h, 1+workers*ticks)
		for i := 1; i < len(h); i++ {
			assert.True(t, h[i].Timestamp.After(h[i-1].Timestamp))
			assert.InDelta(t, h[i].Price-h[i-1].Price, h[i].Change, 1e-6)
		}
	}
}
