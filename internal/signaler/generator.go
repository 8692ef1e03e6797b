package signaler

import (
	"context"
	"fmt"
	"math"

	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/types"
)

// Generator turns the latest market point into a trend-following signal.
type Generator struct {
	market          interfaces.MarketReader
	recorder        interfaces.SignalRecorder
	pub             interfaces.Publisher
	defaultStrategy string
}

var _ interfaces.SignalGenerator = (*Generator)(nil)

// New builds a Generator. defaultStrategy labels signals requested without one.
func New(market interfaces.MarketReader, recorder interfaces.SignalRecorder, pub interfaces.Publisher, defaultStrategy string) *Generator {
	if defaultStrategy == "" {
		defaultStrategy = types.StrategyTrendFollowing
	}
	return &Generator{
		market:          market,
		recorder:        recorder,
		pub:             pub,
		defaultStrategy: defaultStrategy,
	}
}

// Classify is BUY on a positive change and SELL otherwise, including zero.
// Confidence is the relative move scaled by ten, capped at one.
func Classify(p types.MarketDataPoint) (types.SignalType, float64) {
	kind := types.SignalSell
	if p.Change > 0 {
		kind = types.SignalBuy
	}
	if p.Price <= 0 {
		return kind, 0
	}
	conf := math.Min(math.Abs(p.Change)/p.Price*10, 1)
	if conf < 0 || math.IsNaN(conf) {
		conf = 0
	}
	return kind, conf
}

// Generate records a signal for symbol and publishes signal_generated. An
// empty strategy uses the default label.
func (g *Generator) Generate(ctx context.Context, symbol, strategy string) (types.Signal, error) {
	if symbol == "" {
		return types.Signal{}, types.NewValidationError("symbol", "is required")
	}
	if strategy == "" {
		strategy = g.defaultStrategy
	}

	latest, err := g.market.Latest(symbol)
	if err != nil {
		return types.Signal{}, err
	}

	kind, conf := Classify(latest)
	sig, err := g.recorder.CreateSignal(ctx, types.Signal{
		Symbol:     symbol,
		Type:       kind,
		Price:      latest.Price,
		Confidence: conf,
		Strategy:   strategy,
	})
	if err != nil {
		return types.Signal{}, fmt.Errorf("record signal for %s: %w", symbol, err)
	}

	g.pub.Publish(ctx, types.NewEvent(types.EventSignalGenerated, sig))
	return sig, nil
}
