package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/store"
	"sim-trading-engine/internal/types"
)

var (
	ErrAlreadyStarted = errors.New("simulator already started")
	ErrStopped        = errors.New("simulator stopped")
)

// SymbolSpec is a simulated symbol and its per-tick volatility.
type SymbolSpec struct {
	Symbol     string
	Volatility float64
}

// Config drives the random walk.
type Config struct {
	Interval  time.Duration
	VolumeMin int64
	VolumeMax int64
	MinPrice  float64
	Symbols   []SymbolSpec
}

// ConfigFrom extracts the simulator settings from the service config.
func ConfigFrom(cfg *store.Config) Config {
	c := Config{
		Interval:  cfg.Simulator.Interval,
		VolumeMin: cfg.Simulator.VolumeMin,
		VolumeMax: cfg.Simulator.VolumeMax,
		MinPrice:  cfg.Simulator.MinPrice,
	}
	for _, s := range cfg.Market.Symbols {
		c.Symbols = append(c.Symbols, SymbolSpec{Symbol: s.Symbol, Volatility: cfg.VolatilityFor(s)})
	}
	return c
}

// Simulator is the single writer of simulated prices. Each tick walks every
// tracked symbol once and publishes a market_update per new point.
type Simulator struct {
	cfg   Config
	store interfaces.MarketStore
	pub   interfaces.Publisher
	now   func() time.Time

	// tickMu serialises ticks and guards rnd.
	tickMu sync.Mutex
	rnd    *rand.Rand

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ interfaces.Simulator = (*Simulator)(nil)

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand sets the random source. Tests use it for determinism.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rnd = r }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// New builds a stopped simulator over st that publishes to pub.
func New(cfg Config, st interfaces.MarketStore, pub interfaces.Publisher, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:   cfg,
		store: st,
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC() },
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start launches the tick loop. A simulator runs at most once.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if s.cfg.Interval <= 0 {
		return errors.New("simulator interval must be positive")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	go s.run(loopCtx)

	logger.Info(ctx, "Price simulator started",
		"interval", s.cfg.Interval.String(),
		"symbols", len(s.cfg.Symbols),
	)
	return nil
}

func (s *Simulator) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop halts the loop and waits for an in-flight tick, or for ctx.
func (s *Simulator) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()

	select {
	case <-s.done:
		logger.Info(ctx, "Price simulator stopped")
	case <-ctx.Done():
		logger.Warn(ctx, "Price simulator stop timed out", "error", ctx.Err())
	}
}

// Tick advances every tracked symbol by one step and returns the new points.
// A failing symbol is logged and skipped.
func (s *Simulator) Tick(ctx context.Context) []types.MarketDataPoint {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	timer := logger.StartOperation(ctx, "simulator.Tick", "symbols", len(s.cfg.Symbols))
	ctx = timer.Context()

	out := make([]types.MarketDataPoint, 0, len(s.cfg.Symbols))
	skipped := 0
	for _, spec := range s.cfg.Symbols {
		p, err := s.step(spec)
		if err != nil {
			skipped++
			logger.Warn(ctx, "Skipping symbol this tick", "symbol", spec.Symbol, "error", err)
			continue
		}
		logger.Tick(ctx, p.Symbol, p.Price, p.Change, "volume", p.Volume)
		s.pub.Publish(ctx, types.NewEvent(types.EventMarketUpdate, p))
		out = append(out, p)
	}

	timer.End("updated", len(out), "skipped", skipped)
	return out
}

func (s *Simulator) step(spec SymbolSpec) (types.MarketDataPoint, error) {
	last, err := s.store.Latest(spec.Symbol)
	if err != nil {
		return types.MarketDataPoint{}, &types.TransientSimulationError{Symbol: spec.Symbol, Err: err}
	}

	delta := (s.rnd.Float64() - 0.5) * last.Price * spec.Volatility
	next := decimal.NewFromFloat(math.Max(s.cfg.MinPrice, last.Price+delta)).Round(2)
	if floor := decimal.NewFromFloat(s.cfg.MinPrice); next.LessThan(floor) {
		next = floor
	}
	prev := decimal.NewFromFloat(last.Price)
	change := next.Sub(prev)

	price := next.InexactFloat64()
	changeF := change.InexactFloat64()
	changePct := 0.0
	if last.Price != 0 {
		changePct = changeF / last.Price * 100
	}

	volume := s.cfg.VolumeMin
	if span := s.cfg.VolumeMax - s.cfg.VolumeMin; span > 0 {
		volume += s.rnd.Int63n(span)
	}

	ts := s.now()
	if !ts.After(last.Timestamp) {
		ts = last.Timestamp.Add(time.Nanosecond)
	}

	p := types.MarketDataPoint{
		ID:            id.UUID(),
		Symbol:        spec.Symbol,
		Price:         price,
		Change:        changeF,
		ChangePercent: changePct,
		Volume:        volume,
		Timestamp:     ts,
	}
	if err := s.store.Append(spec.Symbol, p); err != nil {
		return types.MarketDataPoint{}, &types.TransientSimulationError{Symbol: spec.Symbol, Err: err}
	}
	return p, nil
}
