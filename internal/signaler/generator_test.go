package signaler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-trading-engine/internal/ledger"
	"sim-trading-engine/internal/market"
	"sim-trading-engine/internal/types"
)

type recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *recorder) Publish(_ context.Context, ev types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func setup(t *testing.T) (*Generator, *ledger.Ledger, *recorder) {
	t.Helper()
	st := market.NewStore(0)
	at := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	st.Seed("GOOGL", 2845.67, -35.23, 1, at)
	st.Seed("AAPL", 175.24, 4.12, 1, at)
	st.Seed("FLAT", 10, 0, 1, at)
	st.Seed("JUMP", 10, 5, 1, at)

	l := ledger.New()
	pub := &recorder{}
	return New(st, l, pub, ""), l, pub
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		point    types.MarketDataPoint
		wantType types.SignalType
		wantConf float64
	}{
		{"rise", types.MarketDataPoint{Price: 100, Change: 2}, types.SignalBuy, 0.2},
		{"fall", types.MarketDataPoint{Price: 100, Change: -3}, types.SignalSell, 0.3},
		{"zero change is sell", types.MarketDataPoint{Price: 100, Change: 0}, types.SignalSell, 0},
		{"capped at one", types.MarketDataPoint{Price: 10, Change: 5}, types.SignalBuy, 1},
		{"zero price", types.MarketDataPoint{Price: 0, Change: 1}, types.SignalBuy, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, conf := Classify(tt.point)
			assert.Equal(t, tt.wantType, kind)
			assert.InDelta(t, tt.wantConf, conf, 1e-12)
		})
	}
}

func TestGenerateGOOGLScenario(t *testing.T) {
	g, l, pub := setup(t)
	ctx := context.Background()

	sig, err := g.Generate(ctx, "GOOGL", "")
	require.NoError(t, err)
	assert.Equal(t, types.SignalSell, sig.Type)
	assert.InDelta(t, 35.23/2845.67*10, sig.Confidence, 1e-12)
	assert.Equal(t, 2845.67, sig.Price)
	assert.Equal(t, types.StrategyTrendFollowing, sig.Strategy)
	assert.NotEmpty(t, sig.ID)

	recent, err := l.RecentSignals(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, sig, recent[0])

	require.Len(t, pub.events, 1)
	assert.Equal(t, types.EventSignalGenerated, pub.events[0].Type)
	assert.Equal(t, sig, pub.events[0].Data)
}

func TestGenerateUsesGivenStrategyAndClamps(t *testing.T) {
	g, _, _ := setup(t)

	sig, err := g.Generate(context.Background(), "JUMP", types.StrategyMeanReversion)
	require.NoError(t, err)
	assert.Equal(t, types.SignalBuy, sig.Type)
	assert.Equal(t, 1.0, sig.Confidence)
	assert.Equal(t, types.StrategyMeanReversion, sig.Strategy)

	sig, err = g.Generate(context.Background(), "FLAT", "")
	require.NoError(t, err)
	assert.Equal(t, types.SignalSell, sig.Type)
	assert.Equal(t, 0.0, sig.Confidence)
}

func TestGenerateUnknownSymbol(t *testing.T) {
	g, l, pub := setup(t)

	_, err := g.Generate(context.Background(), "NFLX", "")
	assert.True(t, types.IsNotFound(err))

	_, err = g.Generate(context.Background(), "", "")
	assert.True(t, types.IsValidation(err))

	recent, _ := l.RecentSignals(context.Background(), 0)
	assert.Empty(t, recent)
	assert.Empty(t, pub.events)
}
