package interfaces

import (
	"context"

	"sim-trading-engine/internal/types"
)

type Publisher interface {
	Publish(ctx context.Context, event types.Event)
}
