package ledger

import (
	"context"
	"sync"
	"time"

	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/types"
)

// Ledger keeps portfolios, positions, orders, strategies and the signal log
// in memory. One mutex serialises every write so read-modify-write on an
// entity never loses an update.
type Ledger struct {
	mu sync.RWMutex

	portfolios map[string]*types.Portfolio
	owners     map[string]string
	positions  map[string]*types.Position
	orders     map[string]*types.Order
	strategies map[string]*types.Strategy
	stratOrder []string
	signals    []types.Signal

	maxSignals int
	pub        interfaces.Publisher
	prices     interfaces.PriceSource
	now        func() time.Time
}

var _ interfaces.Ledger = (*Ledger)(nil)

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets where order events go.
func WithPublisher(p interfaces.Publisher) Option {
	return func(l *Ledger) { l.pub = p }
}

// WithPriceSource enables mark-to-market of positions on read.
func WithPriceSource(ps interfaces.PriceSource) Option {
	return func(l *Ledger) { l.prices = ps }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithMaxSignals caps the signal log; the oldest entries are dropped first.
func WithMaxSignals(n int) Option {
	return func(l *Ledger) { l.maxSignals = n }
}

type discard struct{}

func (discard) Publish(context.Context, types.Event) {}

// New returns an empty Ledger. Without WithPublisher events are discarded.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		portfolios: make(map[string]*types.Portfolio),
		owners:     make(map[string]string),
		positions:  make(map[string]*types.Position),
		orders:     make(map[string]*types.Order),
		strategies: make(map[string]*types.Strategy),
		pub:        discard{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// stamp returns the current time, nudged past prev so updates always move forward.
func (l *Ledger) stamp(prev time.Time) time.Time {
	t := l.now()
	if !t.After(prev) {
		t = prev.Add(time.Nanosecond)
	}
	return t
}
