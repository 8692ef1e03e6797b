package signalerobs

import (
	"context"
	"time"

	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/trace"
	"sim-trading-engine/internal/types"
)

type observableGenerator struct {
	gen interfaces.SignalGenerator
}

var _ interfaces.SignalGenerator = (*observableGenerator)(nil)

func Wrap(gen interfaces.SignalGenerator) interfaces.SignalGenerator {
	return &observableGenerator{
		gen: gen,
	}
}

func (og *observableGenerator) Generate(ctx context.Context, symbol, strategy string) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "signaler.Generate")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Generating signal", "symbol", symbol, "strategy", strategy)

	sig, err := og.gen.Generate(ctx, symbol, strategy)
	if err != nil {
		if types.IsNotFound(err) || types.IsValidation(err) {
			logger.WarnSkip(ctx, 1, "Signal not generated",
				"symbol", symbol,
				"error", err,
			)
		} else {
			logger.ErrorWithErrSkip(ctx, 1, "Signal generation failed", err,
				"symbol", symbol,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
		return types.Signal{}, err
	}

	logger.Signal(ctx, sig.Symbol, string(sig.Type), sig.Confidence, sig.Strategy,
		"price", sig.Price,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sig, nil
}
