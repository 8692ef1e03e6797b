package ledger

import (
	"context"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/types"
)

// CreatePortfolio stores p, assigning an id when empty.
func (l *Ledger) CreatePortfolio(_ context.Context, p types.Portfolio) (types.Portfolio, error) {
	if p.OwnerID == "" {
		return types.Portfolio{}, types.NewValidationError("userId", "is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if p.ID == "" {
		p.ID = id.UUID()
	}
	if _, exists := l.portfolios[p.ID]; exists {
		return types.Portfolio{}, types.NewValidationError("id", "portfolio %s already exists", p.ID)
	}
	now := l.now()
	p.CreatedAt, p.UpdatedAt = now, now

	l.portfolios[p.ID] = &p
	if _, ok := l.owners[p.OwnerID]; !ok {
		l.owners[p.OwnerID] = p.ID
	}
	return p, nil
}

// GetPortfolio returns the portfolio with portfolioID.
func (l *Ledger) GetPortfolio(_ context.Context, portfolioID string) (types.Portfolio, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.portfolios[portfolioID]
	if !ok {
		return types.Portfolio{}, types.NotFound("portfolio", portfolioID)
	}
	return *p, nil
}

// GetPortfolioByOwner returns the first portfolio owned by ownerID.
func (l *Ledger) GetPortfolioByOwner(_ context.Context, ownerID string) (types.Portfolio, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pid, ok := l.owners[ownerID]
	if !ok {
		return types.Portfolio{}, types.NotFound("portfolio for user", ownerID)
	}
	return *l.portfolios[pid], nil
}

// UpdatePortfolio applies the non-nil fields of upd.
func (l *Ledger) UpdatePortfolio(_ context.Context, portfolioID string, upd types.PortfolioUpdate) (types.Portfolio, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[portfolioID]
	if !ok {
		return types.Portfolio{}, types.NotFound("portfolio", portfolioID)
	}
	if upd.Balance != nil {
		p.Balance = *upd.Balance
	}
	if upd.TotalPL != nil {
		p.TotalPL = *upd.TotalPL
	}
	if upd.TodayPL != nil {
		p.TodayPL = *upd.TodayPL
	}
	p.UpdatedAt = l.stamp(p.UpdatedAt)
	return *p, nil
}
