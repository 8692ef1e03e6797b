package interfaces

import (
	"context"

	"sim-trading-engine/internal/types"
)

type SignalGenerator interface {
	Generate(ctx context.Context, symbol, strategy string) (types.Signal, error)
}
