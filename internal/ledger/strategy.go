package ledger

import (
	"context"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/types"
)

func cloneStrategy(s *types.Strategy) types.Strategy {
	c := *s
	c.Symbols = append([]string(nil), s.Symbols...)
	if s.Parameters != nil {
		c.Parameters = make(map[string]any, len(s.Parameters))
		for k, v := range s.Parameters {
			c.Parameters[k] = v
		}
	}
	return c
}

// CreateStrategy stores s, assigning an id when empty.
func (l *Ledger) CreateStrategy(_ context.Context, s types.Strategy) (types.Strategy, error) {
	if s.Name == "" {
		return types.Strategy{}, types.NewValidationError("name", "is required")
	}
	if s.Type == "" {
		return types.Strategy{}, types.NewValidationError("type", "is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if s.ID == "" {
		s.ID = id.UUID()
	}
	if _, exists := l.strategies[s.ID]; exists {
		return types.Strategy{}, types.NewValidationError("id", "strategy %s already exists", s.ID)
	}
	s.CreatedAt = l.now()
	stored := cloneStrategy(&s)
	l.strategies[s.ID] = &stored
	l.stratOrder = append(l.stratOrder, s.ID)
	return cloneStrategy(&stored), nil
}

// UpdateStrategy applies the non-nil fields of upd.
func (l *Ledger) UpdateStrategy(_ context.Context, strategyID string, upd types.StrategyUpdate) (types.Strategy, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.strategies[strategyID]
	if !ok {
		return types.Strategy{}, types.NotFound("strategy", strategyID)
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return types.Strategy{}, types.NewValidationError("name", "cannot be empty")
		}
		s.Name = *upd.Name
	}
	if upd.Symbols != nil {
		s.Symbols = append([]string(nil), upd.Symbols...)
	}
	if upd.Parameters != nil {
		s.Parameters = make(map[string]any, len(upd.Parameters))
		for k, v := range upd.Parameters {
			s.Parameters[k] = v
		}
	}
	if upd.IsActive != nil {
		s.IsActive = *upd.IsActive
	}
	if upd.TotalPL != nil {
		s.TotalPL = *upd.TotalPL
	}
	return cloneStrategy(s), nil
}

// GetStrategies returns all strategies in creation order.
func (l *Ledger) GetStrategies(_ context.Context) ([]types.Strategy, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Strategy, 0, len(l.stratOrder))
	for _, sid := range l.stratOrder {
		out = append(out, cloneStrategy(l.strategies[sid]))
	}
	return out, nil
}
