package ledgerobs

import (
	"context"

	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/trace"
	"sim-trading-engine/internal/types"
)

// observableLedger wraps a Ledger with observability (logging & tracing)
type observableLedger struct {
	ledger interfaces.Ledger
}

// Compile-time interface check
var _ interfaces.Ledger = (*observableLedger)(nil)

// Wrap wraps a ledger with observability middleware
func Wrap(l interfaces.Ledger) interfaces.Ledger {
	return &observableLedger{
		ledger: l,
	}
}

// failed logs caller mistakes at warn and everything else at error.
func failed(ctx context.Context, msg string, err error, args ...any) {
	if types.IsValidation(err) || types.IsNotFound(err) {
		logger.WarnSkip(ctx, 2, msg, append([]any{"error", err}, args...)...)
		return
	}
	logger.ErrorWithErrSkip(ctx, 2, msg, err, args...)
}

func (ol *observableLedger) CreatePortfolio(ctx context.Context, p types.Portfolio) (types.Portfolio, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.CreatePortfolio")
	defer span.End()

	out, err := ol.ledger.CreatePortfolio(ctx, p)
	if err != nil {
		failed(ctx, "Failed to create portfolio", err, "user_id", p.OwnerID)
		return out, err
	}
	logger.InfoSkip(ctx, 1, "Portfolio created", "portfolio_id", out.ID, "user_id", out.OwnerID)
	return out, nil
}

func (ol *observableLedger) GetPortfolio(ctx context.Context, id string) (types.Portfolio, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.GetPortfolio")
	defer span.End()

	out, err := ol.ledger.GetPortfolio(ctx, id)
	if err != nil {
		failed(ctx, "Failed to load portfolio", err, "portfolio_id", id)
	}
	return out, err
}

func (ol *observableLedger) GetPortfolioByOwner(ctx context.Context, ownerID string) (types.Portfolio, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.GetPortfolioByOwner")
	defer span.End()

	out, err := ol.ledger.GetPortfolioByOwner(ctx, ownerID)
	if err != nil {
		failed(ctx, "Failed to load portfolio", err, "user_id", ownerID)
	}
	return out, err
}

func (ol *observableLedger) UpdatePortfolio(ctx context.Context, id string, upd types.PortfolioUpdate) (types.Portfolio, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.UpdatePortfolio")
	defer span.End()

	out, err := ol.ledger.UpdatePortfolio(ctx, id, upd)
	if err != nil {
		failed(ctx, "Failed to update portfolio", err, "portfolio_id", id)
		return out, err
	}
	logger.InfoSkip(ctx, 1, "Portfolio updated",
		"portfolio_id", id,
		"balance", out.Balance.String(),
		"total_pl", out.TotalPL.String(),
	)
	return out, nil
}

func (ol *observableLedger) CreatePosition(ctx context.Context, p types.Position) (types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.CreatePosition")
	defer span.End()

	out, err := ol.ledger.CreatePosition(ctx, p)
	if err != nil {
		failed(ctx, "Failed to create position", err, "portfolio_id", p.PortfolioID, "symbol", p.Symbol)
		return out, err
	}
	logger.InfoSkip(ctx, 1, "Position opened",
		"position_id", out.ID,
		"symbol", out.Symbol,
		"quantity", out.Quantity,
		"avg_price", out.AvgPrice,
	)
	return out, nil
}

func (ol *observableLedger) UpdatePosition(ctx context.Context, id string, upd types.PositionUpdate) (types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.UpdatePosition")
	defer span.End()

	out, err := ol.ledger.UpdatePosition(ctx, id, upd)
	if err != nil {
		failed(ctx, "Failed to update position", err, "position_id", id)
		return out, err
	}
	logger.InfoSkip(ctx, 1, "Position updated", "position_id", id, "quantity", out.Quantity, "avg_price", out.AvgPrice)
	return out, nil
}

func (ol *observableLedger) DeletePosition(ctx context.Context, id string) error {
	ctx, span := trace.StartSpan(ctx, "ledger.DeletePosition")
	defer span.End()

	if err := ol.ledger.DeletePosition(ctx, id); err != nil {
		failed(ctx, "Failed to delete position", err, "position_id", id)
		return err
	}
	logger.InfoSkip(ctx, 1, "Position closed", "position_id", id)
	return nil
}

func (ol *observableLedger) GetPositions(ctx context.Context, portfolioID string) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.GetPositions")
	defer span.End()

	out, err := ol.ledger.GetPositions(ctx, portfolioID)
	if err != nil {
		failed(ctx, "Failed to list positions", err, "portfolio_id", portfolioID)
		return out, err
	}
	logger.DebugSkip(ctx, 1, "Positions listed", "portfolio_id", portfolioID, "count", len(out))
	return out, nil
}

func (ol *observableLedger) CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.CreateOrder")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Creating order",
		"portfolio_id", req.PortfolioID,
		"symbol", req.Symbol,
		"side", req.Side,
		"order_type", req.OrderType,
		"quantity", req.Quantity,
	)

	out, err := ol.ledger.CreateOrder(ctx, req)
	if err != nil {
		failed(ctx, "Order rejected", err, "symbol", req.Symbol, "side", req.Side, "quantity", req.Quantity)
		return out, err
	}
	logger.Order(ctx, out.ID, out.Symbol, string(out.Side), out.Quantity, string(out.Status), "order_type", out.OrderType)
	return out, nil
}

func (ol *observableLedger) UpdateOrderStatus(ctx context.Context, id string, status types.OrderStatus) (types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.UpdateOrderStatus")
	defer span.End()

	out, err := ol.ledger.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		failed(ctx, "Failed to update order status", err, "order_id", id, "status", status)
		return out, err
	}
	logger.Order(ctx, out.ID, out.Symbol, string(out.Side), out.Quantity, string(out.Status))
	return out, nil
}

func (ol *observableLedger) GetOrder(ctx context.Context, id string) (types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.GetOrder")
	defer span.End()

	out, err := ol.ledger.GetOrder(ctx, id)
	if err != nil {
		failed(ctx, "Failed to load order", err, "order_id", id)
	}
	return out, err
}

func (ol *observableLedger) GetOrders(ctx context.Context, portfolioID string) ([]types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.GetOrders")
	defer span.End()

	out, err := ol.ledger.GetOrders(ctx, portfolioID)
	if err != nil {
		failed(ctx, "Failed to list orders", err, "portfolio_id", portfolioID)
		return out, err
	}
	logger.DebugSkip(ctx, 1, "Orders listed", "portfolio_id", portfolioID, "count", len(out))
	return out, nil
}

func (ol *observableLedger) CreateStrategy(ctx context.Context, s types.Strategy) (types.Strategy, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.CreateStrategy")
	defer span.End()

	out, err := ol.ledger.CreateStrategy(ctx, s)
	if err != nil {
		failed(ctx, "Failed to create strategy", err, "name", s.Name)
		return out, err
	}
	logger.InfoSkip(ctx, 1, "Strategy registered", "strategy_id", out.ID, "name", out.Name, "type", out.Type)
	return out, nil
}

func (ol *observableLedger) UpdateStrategy(ctx context.Context, id string, upd types.StrategyUpdate) (types.Strategy, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.UpdateStrategy")
	defer span.End()

	out, err := ol.ledger.UpdateStrategy(ctx, id, upd)
	if err != nil {
		failed(ctx, "Failed to update strategy", err, "strategy_id", id)
		return out, err
	}
	logger.InfoSkip(ctx, 1, "Strategy updated", "strategy_id", id, "active", out.IsActive)
	return out, nil
}

func (ol *observableLedger) GetStrategies(ctx context.Context) ([]types.Strategy, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.GetStrategies")
	defer span.End()

	out, err := ol.ledger.GetStrategies(ctx)
	if err != nil {
		failed(ctx, "Failed to list strategies", err)
	}
	return out, err
}

func (ol *observableLedger) CreateSignal(ctx context.Context, s types.Signal) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.CreateSignal")
	defer span.End()

	out, err := ol.ledger.CreateSignal(ctx, s)
	if err != nil {
		failed(ctx, "Failed to record signal", err, "symbol", s.Symbol)
		return out, err
	}
	logger.DebugSkip(ctx, 1, "Signal recorded", "signal_id", out.ID, "symbol", out.Symbol)
	return out, nil
}

func (ol *observableLedger) RecentSignals(ctx context.Context, limit int) ([]types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.RecentSignals")
	defer span.End()

	out, err := ol.ledger.RecentSignals(ctx, limit)
	if err != nil {
		failed(ctx, "Failed to list signals", err, "limit", limit)
	}
	return out, err
}
