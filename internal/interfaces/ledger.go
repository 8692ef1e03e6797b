package interfaces

import (
	"context"

	"sim-trading-engine/internal/types"
)

// Ledger owns portfolios, positions, orders, strategies and signals.
type Ledger interface {
	CreatePortfolio(ctx context.Context, p types.Portfolio) (types.Portfolio, error)
	GetPortfolio(ctx context.Context, id string) (types.Portfolio, error)
	GetPortfolioByOwner(ctx context.Context, ownerID string) (types.Portfolio, error)
	UpdatePortfolio(ctx context.Context, id string, upd types.PortfolioUpdate) (types.Portfolio, error)

	CreatePosition(ctx context.Context, p types.Position) (types.Position, error)
	UpdatePosition(ctx context.Context, id string, upd types.PositionUpdate) (types.Position, error)
	DeletePosition(ctx context.Context, id string) error
	GetPositions(ctx context.Context, portfolioID string) ([]types.Position, error)

	CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status types.OrderStatus) (types.Order, error)
	GetOrder(ctx context.Context, id string) (types.Order, error)
	GetOrders(ctx context.Context, portfolioID string) ([]types.Order, error)

	CreateStrategy(ctx context.Context, s types.Strategy) (types.Strategy, error)
	UpdateStrategy(ctx context.Context, id string, upd types.StrategyUpdate) (types.Strategy, error)
	GetStrategies(ctx context.Context) ([]types.Strategy, error)

	SignalRecorder
	RecentSignals(ctx context.Context, limit int) ([]types.Signal, error)
}

// SignalRecorder persists generated signals.
type SignalRecorder interface {
	CreateSignal(ctx context.Context, s types.Signal) (types.Signal, error)
}
