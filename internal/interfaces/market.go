package interfaces

import "sim-trading-engine/internal/types"

// MarketReader is the read side of the market store.
type MarketReader interface {
	Latest(symbol string) (types.MarketDataPoint, error)
	History(symbol string) ([]types.MarketDataPoint, error)
	LatestMany(symbols []string) []types.MarketDataPoint
	Symbols() []string
}

// MarketStore adds the writes the simulator needs.
type MarketStore interface {
	MarketReader
	Append(symbol string, point types.MarketDataPoint) error
}

// PriceSource supplies the mark price used to revalue positions on read.
type PriceSource interface {
	LatestPrice(symbol string) (float64, bool)
}
