package ledger

import (
	"context"
	"sort"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/types"
)

// CreatePosition stores p under an existing portfolio.
func (l *Ledger) CreatePosition(_ context.Context, p types.Position) (types.Position, error) {
	if p.Symbol == "" {
		return types.Position{}, types.NewValidationError("symbol", "is required")
	}
	if p.Quantity == 0 {
		return types.Position{}, types.NewValidationError("quantity", "must be non-zero")
	}
	if p.AvgPrice <= 0 {
		return types.Position{}, types.NewValidationError("avgPrice", "must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.portfolios[p.PortfolioID]; !ok {
		return types.Position{}, types.NotFound("portfolio", p.PortfolioID)
	}
	if p.ID == "" {
		p.ID = id.UUID()
	}
	if _, exists := l.positions[p.ID]; exists {
		return types.Position{}, types.NewValidationError("id", "position %s already exists", p.ID)
	}
	if p.CurrentPrice <= 0 {
		p.CurrentPrice = p.AvgPrice
	}
	p.Revalue(p.CurrentPrice)
	now := l.now()
	p.CreatedAt, p.UpdatedAt = now, now

	l.positions[p.ID] = &p
	return l.marked(p), nil
}

// UpdatePosition applies the non-nil fields of upd.
func (l *Ledger) UpdatePosition(_ context.Context, positionID string, upd types.PositionUpdate) (types.Position, error) {
	if upd.AvgPrice != nil && *upd.AvgPrice <= 0 {
		return types.Position{}, types.NewValidationError("avgPrice", "must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[positionID]
	if !ok {
		return types.Position{}, types.NotFound("position", positionID)
	}
	if upd.Quantity != nil {
		p.Quantity = *upd.Quantity
	}
	if upd.AvgPrice != nil {
		p.AvgPrice = *upd.AvgPrice
	}
	p.Revalue(p.CurrentPrice)
	p.UpdatedAt = l.stamp(p.UpdatedAt)
	return l.marked(*p), nil
}

// DeletePosition removes the position.
func (l *Ledger) DeletePosition(_ context.Context, positionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.positions[positionID]; !ok {
		return types.NotFound("position", positionID)
	}
	delete(l.positions, positionID)
	return nil
}

// GetPositions returns the portfolio's positions marked to the latest price.
func (l *Ledger) GetPositions(_ context.Context, portfolioID string) ([]types.Position, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Position, 0)
	for _, p := range l.positions {
		if p.PortfolioID == portfolioID {
			out = append(out, l.marked(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// marked revalues a copy of p; the stored position keeps its last mark.
func (l *Ledger) marked(p types.Position) types.Position {
	if l.prices == nil {
		return p
	}
	if px, ok := l.prices.LatestPrice(p.Symbol); ok {
		p.Revalue(px)
	}
	return p
}
