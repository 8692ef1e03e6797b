package market

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/types"
)

var ErrOutOfOrder = errors.New("timestamp not after latest point")

// Store holds one append-only price series per symbol. The last element of
// a series is the symbol's latest point.
type Store struct {
	mu         sync.RWMutex
	series     map[string][]types.MarketDataPoint
	maxHistory int
}

var (
	_ interfaces.MarketStore = (*Store)(nil)
	_ interfaces.PriceSource = (*Store)(nil)
)

// NewStore creates an empty store. maxHistory > 0 caps each series length.
func NewStore(maxHistory int) *Store {
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &Store{
		series:     make(map[string][]types.MarketDataPoint),
		maxHistory: maxHistory,
	}
}

// Seed initialises symbol with a single point. Seeding an already tracked
// symbol is a no-op and returns its current latest point.
func (s *Store) Seed(symbol string, price, change float64, volume int64, at time.Time) types.MarketDataPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pts := s.series[symbol]; len(pts) > 0 {
		return pts[len(pts)-1]
	}

	p := types.MarketDataPoint{
		ID:            id.UUID(),
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: ChangePercent(price, change),
		Volume:        volume,
		Timestamp:     at,
	}
	s.series[symbol] = []types.MarketDataPoint{p}
	return p
}

// ChangePercent relates change to the price before it.
func ChangePercent(price, change float64) float64 {
	prev := price - change
	if prev == 0 {
		return 0
	}
	return change / prev * 100
}

// Latest returns the most recent point for symbol.
func (s *Store) Latest(symbol string) (types.MarketDataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts := s.series[symbol]
	if len(pts) == 0 {
		return types.MarketDataPoint{}, types.NotFound("market data", symbol)
	}
	return pts[len(pts)-1], nil
}

// History returns a copy of the series, oldest first.
func (s *Store) History(symbol string) ([]types.MarketDataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts := s.series[symbol]
	if len(pts) == 0 {
		return nil, types.NotFound("market data", symbol)
	}
	out := make([]types.MarketDataPoint, len(pts))
	copy(out, pts)
	return out, nil
}

// Append adds point to an already seeded symbol.
func (s *Store) Append(symbol string, point types.MarketDataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pts := s.series[symbol]
	if len(pts) == 0 {
		return types.NotFound("market data", symbol)
	}
	if latest := pts[len(pts)-1]; !point.Timestamp.After(latest.Timestamp) {
		return fmt.Errorf("append %s at %s: %w", symbol, point.Timestamp.Format(time.RFC3339Nano), ErrOutOfOrder)
	}

	if point.ID == "" {
		point.ID = id.UUID()
	}
	point.Symbol = symbol
	pts = append(pts, point)

	if s.maxHistory > 0 && len(pts) > s.maxHistory {
		trimmed := make([]types.MarketDataPoint, s.maxHistory)
		copy(trimmed, pts[len(pts)-s.maxHistory:])
		pts = trimmed
	}
	s.series[symbol] = pts
	return nil
}

// LatestMany returns the latest point per requested symbol in request order;
// unknown symbols are left out.
func (s *Store) LatestMany(symbols []string) []types.MarketDataPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.MarketDataPoint, 0, len(symbols))
	for _, sym := range symbols {
		if pts := s.series[sym]; len(pts) > 0 {
			out = append(out, pts[len(pts)-1])
		}
	}
	return out
}

// Symbols lists tracked symbols sorted by name.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.series))
	for sym := range s.series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// LatestPrice returns the latest price for symbol and whether it is tracked.
func (s *Store) LatestPrice(symbol string) (float64, bool) {
	p, err := s.Latest(symbol)
	if err != nil {
		return 0, false
	}
	return p.Price, true
}
