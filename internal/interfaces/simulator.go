package interfaces

import (
	"context"

	"sim-trading-engine/internal/types"
)

type Simulator interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Tick(ctx context.Context) []types.MarketDataPoint
}
