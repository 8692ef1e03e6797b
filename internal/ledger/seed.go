package ledger

import (
	"context"
	"fmt"

	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/store"
	"sim-trading-engine/internal/types"
)

// SeedFromConfig creates the demo portfolio with its positions and the
// configured strategies.
func SeedFromConfig(ctx context.Context, l interfaces.Ledger, cfg *store.Config) (types.Portfolio, error) {
	balance, err := store.ParseMoney(cfg.Portfolio.Balance)
	if err != nil {
		return types.Portfolio{}, err
	}
	totalPL, err := store.ParseMoney(cfg.Portfolio.TotalPL)
	if err != nil {
		return types.Portfolio{}, err
	}
	todayPL, err := store.ParseMoney(cfg.Portfolio.TodayPL)
	if err != nil {
		return types.Portfolio{}, err
	}

	p, err := l.CreatePortfolio(ctx, types.Portfolio{
		ID:      cfg.Portfolio.ID,
		OwnerID: cfg.Portfolio.OwnerID,
		Balance: balance,
		TotalPL: totalPL,
		TodayPL: todayPL,
	})
	if err != nil {
		return types.Portfolio{}, fmt.Errorf("seed portfolio: %w", err)
	}

	for _, pc := range cfg.Portfolio.Positions {
		_, err := l.CreatePosition(ctx, types.Position{
			ID:          pc.ID,
			PortfolioID: p.ID,
			Symbol:      pc.Symbol,
			Quantity:    pc.Quantity,
			AvgPrice:    pc.AvgPrice,
		})
		if err != nil {
			return types.Portfolio{}, fmt.Errorf("seed position %s: %w", pc.Symbol, err)
		}
	}

	for _, sc := range cfg.Strategies {
		pl, err := store.ParseMoney(sc.TotalPL)
		if err != nil {
			return types.Portfolio{}, err
		}
		_, err = l.CreateStrategy(ctx, types.Strategy{
			ID:         sc.ID,
			Name:       sc.Name,
			Type:       sc.Type,
			Symbols:    sc.Symbols,
			Parameters: sc.Parameters,
			IsActive:   sc.IsActive,
			TotalPL:    pl,
		})
		if err != nil {
			return types.Portfolio{}, fmt.Errorf("seed strategy %s: %w", sc.Name, err)
		}
	}
	return p, nil
}
