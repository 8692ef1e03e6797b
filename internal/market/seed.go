package market

import (
	"math/rand"
	"time"

	"sim-trading-engine/internal/store"
)

// SeedFromConfig gives every configured symbol its initial point. Seed volume
// is drawn from the configured seed range.
func SeedFromConfig(s *Store, cfg *store.Config, r *rand.Rand, at time.Time) {
	span := cfg.Simulator.SeedVolumeMax - cfg.Simulator.SeedVolumeMin
	for _, sym := range cfg.Market.Symbols {
		vol := cfg.Simulator.SeedVolumeMin
		if span > 0 {
			vol += r.Int63n(span)
		}
		s.Seed(sym.Symbol, sym.Price, sym.Change, vol, at)
	}
}
