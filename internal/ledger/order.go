package ledger

import (
	"context"
	"sort"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/types"
)

func validateOrder(req types.OrderRequest) error {
	if req.PortfolioID == "" {
		return types.NewValidationError("portfolioId", "is required")
	}
	if req.Symbol == "" {
		return types.NewValidationError("symbol", "is required")
	}
	if !req.Side.Valid() {
		return types.NewValidationError("side", "must be BUY or SELL, got %q", req.Side)
	}
	if !req.OrderType.Valid() {
		return types.NewValidationError("orderType", "must be MARKET, LIMIT or STOP, got %q", req.OrderType)
	}
	if req.Quantity <= 0 {
		return types.NewValidationError("quantity", "must be greater than zero, got %d", req.Quantity)
	}
	if req.OrderType == types.OrderTypeMarket {
		if req.Price != nil {
			return types.NewValidationError("price", "must be omitted for MARKET orders")
		}
		return nil
	}
	if req.Price == nil {
		return types.NewValidationError("price", "is required for %s orders", req.OrderType)
	}
	if *req.Price <= 0 {
		return types.NewValidationError("price", "must be positive, got %.2f", *req.Price)
	}
	return nil
}

func cloneOrder(o *types.Order) types.Order {
	c := *o
	if o.Price != nil {
		px := *o.Price
		c.Price = &px
	}
	return c
}

// CreateOrder records a new PENDING order and publishes order_created.
func (l *Ledger) CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	if err := validateOrder(req); err != nil {
		return types.Order{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	o := &types.Order{
		ID:          id.New(),
		PortfolioID: req.PortfolioID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		OrderType:   req.OrderType,
		Quantity:    req.Quantity,
		Status:      types.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Price != nil {
		px := *req.Price
		o.Price = &px
	}
	l.orders[o.ID] = o

	out := cloneOrder(o)
	l.pub.Publish(ctx, types.NewEvent(types.EventOrderCreated, out))
	return out, nil
}

// UpdateOrderStatus sets any known status regardless of the current one and
// publishes order_updated.
func (l *Ledger) UpdateOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) (types.Order, error) {
	if !status.Valid() {
		return types.Order{}, types.NewValidationError("status", "must be PENDING, FILLED or CANCELLED, got %q", status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[orderID]
	if !ok {
		return types.Order{}, types.NotFound("order", orderID)
	}
	o.Status = status
	o.UpdatedAt = l.stamp(o.UpdatedAt)

	out := cloneOrder(o)
	l.pub.Publish(ctx, types.NewEvent(types.EventOrderUpdated, out))
	return out, nil
}

// GetOrder returns the order with orderID.
func (l *Ledger) GetOrder(_ context.Context, orderID string) (types.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.orders[orderID]
	if !ok {
		return types.Order{}, types.NotFound("order", orderID)
	}
	return cloneOrder(o), nil
}

// GetOrders lists a portfolio's orders newest first.
func (l *Ledger) GetOrders(_ context.Context, portfolioID string) ([]types.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Order, 0)
	for _, o := range l.orders {
		if o.PortfolioID == portfolioID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
