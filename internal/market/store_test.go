package market

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-trading-engine/internal/types"
)

var t0 = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore(0)
	s.Seed("AAPL", 175.24, 4.12, 750000, t0)
	s.Seed("GOOGL", 2845.67, -35.23, 900000, t0)
	return s
}

func TestSeedComputesChangePercent(t *testing.T) {
	s := seeded(t)
	p, err := s.Latest("GOOGL")
	require.NoError(t, err)
	assert.Equal(t, 2845.67, p.Price)
	assert.Equal(t, -35.23, p.Change)
	assert.InDelta(t, -35.23/(2845.67+35.23)*100, p.ChangePercent, 1e-12)
	assert.NotEmpty(t, p.ID)
}

func TestSeedIsIdempotent(t *testing.T) {
	s := seeded(t)
	again := s.Seed("AAPL", 1, 0, 1, t0.Add(time.Hour))
	assert.Equal(t, 175.24, again.Price)

	h, err := s.History("AAPL")
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestLatestUnknownSymbol(t *testing.T) {
	s := seeded(t)
	_, err := s.Latest("NFLX")
	assert.True(t, types.IsNotFound(err))

	_, err = s.History("NFLX")
	assert.True(t, types.IsNotFound(err))
}

func TestAppendReadYourWrite(t *testing.T) {
	s := seeded(t)
	pt := types.MarketDataPoint{Price: 176.01, Change: 0.77, Volume: 600000, Timestamp: t0.Add(5 * time.Second)}
	require.NoError(t, s.Append("AAPL", pt))

	got, err := s.Latest("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 176.01, got.Price)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, pt.Timestamp, got.Timestamp)

	h, err := s.History("AAPL")
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, 175.24, h[0].Price, "history is oldest first")
}

func TestAppendRejectsUnseededAndOutOfOrder(t *testing.T) {
	s := seeded(t)

	err := s.Append("NFLX", types.MarketDataPoint{Price: 1, Timestamp: t0.Add(time.Second)})
	assert.True(t, types.IsNotFound(err))

	err = s.Append("AAPL", types.MarketDataPoint{Price: 1, Timestamp: t0})
	assert.True(t, errors.Is(err, ErrOutOfOrder))
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := seeded(t)
	h, _ := s.History("AAPL")
	h[0].Price = -1

	p, _ := s.Latest("AAPL")
	assert.Equal(t, 175.24, p.Price)
}

func TestMaxHistoryKeepsNewest(t *testing.T) {
	s := NewStore(3)
	s.Seed("BTC", 100, 0, 1, t0)
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append("BTC", types.MarketDataPoint{Price: float64(100 + i), Timestamp: t0.Add(time.Duration(i) * time.Second)}))
	}
	h, err := s.History("BTC")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, 103.0, h[0].Price)
	assert.Equal(t, 105.0, h[2].Price)
}

func TestLatestManyOmitsUnknown(t *testing.T) {
	s := seeded(t)
	pts := s.LatestMany([]string{"GOOGL", "NFLX", "AAPL"})
	require.Len(t, pts, 2)
	assert.Equal(t, "GOOGL", pts[0].Symbol)
	assert.Equal(t, "AAPL", pts[1].Symbol)
}

func TestSymbolsAndLatestPrice(t *testing.T) {
	s := seeded(t)
	assert.Equal(t, []string{"AAPL", "GOOGL"}, s.Symbols())

	p, ok := s.LatestPrice("AAPL")
	assert.True(t, ok)
	assert.Equal(t, 175.24, p)

	_, ok = s.LatestPrice("NFLX")
	assert.False(t, ok)
}

func TestConcurrentAppendAndRead(t *testing.T) {
	s := NewStore(0)
	symbols := []string{"A", "B", "C", "D"}
	for _, sym := range symbols {
		s.Seed(sym, 10, 0, 1, t0)
	}

	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(2)
		go func(sym string) {
			defer wg.Done()
			for i := 1; i <= 200; i++ {
				err := s.Append(sym, types.MarketDataPoint{Price: float64(i), Timestamp: t0.Add(time.Duration(i) * time.Millisecond)})
				if err != nil {
					panic(fmt.Sprintf("append %s: %v", sym, err))
				}
			}
		}(sym)
		go func(sym string) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p, err := s.Latest(sym)
				if err != nil || p.Symbol != sym {
					panic(fmt.Sprintf("bad read for %s: %+v %v", sym, p, err))
				}
			}
		}(sym)
	}
	wg.Wait()

	for _, sym := range symbols {
		h, err := s.History(sym)
		require.NoError(t, err)
		assert.Len(t, h, 201)
		for i := 1; i < len(h); i++ {
			assert.True(t, h[i].Timestamp.After(h[i-1].Timestamp))
		}
	}
}
