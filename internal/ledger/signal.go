package ledger

import (
	"context"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/types"
)

func clamp01(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// CreateSignal appends to the signal log. Publishing is left to the caller.
func (l *Ledger) CreateSignal(_ context.Context, s types.Signal) (types.Signal, error) {
	if s.Symbol == "" {
		return types.Signal{}, types.NewValidationError("symbol", "is required")
	}
	if s.Type != types.SignalBuy && s.Type != types.SignalSell {
		return types.Signal{}, types.NewValidationError("type", "must be BUY or SELL, got %q", s.Type)
	}
	if s.Strategy == "" {
		return types.Signal{}, types.NewValidationError("strategy", "is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s.ID = id.New()
	s.Confidence = clamp01(s.Confidence)
	s.CreatedAt = l.now()
	l.signals = append(l.signals, s)

	if l.maxSignals > 0 && len(l.signals) > l.maxSignals {
		l.signals = append([]types.Signal(nil), l.signals[len(l.signals)-l.maxSignals:]...)
	}
	return s, nil
}

// RecentSignals returns up to limit signals, newest first. limit <= 0 means all.
func (l *Ledger) RecentSignals(_ context.Context, limit int) ([]types.Signal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.signals)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.Signal, 0, n)
	for i := len(l.signals) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.signals[i])
	}
	return out, nil
}
