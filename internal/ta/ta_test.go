package ta

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(from, to float64) []float64 {
	var out []float64
	for v := from; v <= to; v++ {
		out = append(out, v)
	}
	return out
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		n      int
		want   float64
	}{
		{"empty", nil, 5, 0},
		{"shorter than window returns last", []float64{1, 2, 3}, 5, 3},
		{"exact window", []float64{1, 2, 3}, 3, 2},
		{"uses last n", []float64{100, 1, 2, 3}, 3, 2},
		{"zero window returns last", []float64{4, 8}, 0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SMA(tt.prices, tt.n), 1e-12)
		})
	}
}

func TestRSINeutralOnShortHistory(t *testing.T) {
	assert.Equal(t, NeutralRSI, RSI([]float64{1, 2, 3}, 14))
	assert.Equal(t, NeutralRSI, RSI(nil, 14))
}

func TestRSIAllGainsIsMax(t *testing.T) {
	assert.Equal(t, 100.0, RSI(series(1, 30), 14))
}

func TestRSIFlatSeriesHasNoLosses(t *testing.T) {
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 42
	}
	assert.Equal(t, 100.0, RSI(flat, 14))
}

func TestRSIWilderSmoothing(t *testing.T) {
	// initial avg gain 1, loss 0; then -1 and +1 smoothed with period 2
	assert.InDelta(t, 75.0, RSI([]float64{1, 2, 3, 2, 3}, 2), 1e-9)
}

func TestRSIBounded(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		prices := make([]float64, 15+r.Intn(50))
		p := 100.0
		for i := range prices {
			p += (r.Float64() - 0.5) * 4
			prices[i] = p
		}
		v := RSI(prices, 14)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestMACDIsSMADifference(t *testing.T) {
	prices := series(1, 30)
	// SMA12 = 24.5, SMA26 = 17.5
	assert.InDelta(t, 7.0, MACD(prices, 12, 26), 1e-9)
}

func TestBollingerBands(t *testing.T) {
	bb := BollingerBands([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
	assert.InDelta(t, 5.0, bb.Middle, 1e-12)
	assert.InDelta(t, 9.0, bb.Upper, 1e-12)
	assert.InDelta(t, 1.0, bb.Lower, 1e-12)
}

func TestBollingerCollapsesOnShortHistory(t *testing.T) {
	bb := BollingerBands([]float64{10, 11}, 20, 2)
	assert.Equal(t, 11.0, bb.Middle)
	assert.Equal(t, bb.Middle, bb.Upper)
	assert.Equal(t, bb.Middle, bb.Lower)
}

func TestIndicatorsAreIdempotent(t *testing.T) {
	prices := []float64{10, 10.5, 10.2, 11, 10.8, 11.4, 11.1, 11.9, 12.3, 12.0, 12.6, 12.2, 12.9, 13.4, 13.1, 13.8}
	orig := append([]float64(nil), prices...)

	assert.Equal(t, SMA(prices, 5), SMA(prices, 5))
	assert.Equal(t, RSI(prices, 14), RSI(prices, 14))
	assert.Equal(t, MACD(prices, 3, 6), MACD(prices, 3, 6))
	assert.Equal(t, BollingerBands(prices, 10, 2), BollingerBands(prices, 10, 2))
	assert.Equal(t, orig, prices, "input must not be mutated")
}

func TestEMA(t *testing.T) {
	_, ok := EMA([]float64{1, 2}, 5)
	assert.False(t, ok)

	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 10
	}
	v, ok := EMA(flat, 12)
	require.True(t, ok)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestExpMACD(t *testing.T) {
	_, ok := ExpMACD(series(1, 20), 12, 26, 9)
	assert.False(t, ok)

	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 50
	}
	m, ok := ExpMACD(flat, 12, 26, 9)
	require.True(t, ok)
	assert.InDelta(t, 0.0, m.MACD, 1e-9)
	assert.InDelta(t, 0.0, m.Signal, 1e-9)
	assert.InDelta(t, 0.0, m.Histogram, 1e-9)
}

func TestComputeShortHistory(t *testing.T) {
	ind := Compute("AAPL", []float64{175.24}, DefaultSettings())
	assert.Equal(t, "AAPL", ind.Symbol)
	assert.Equal(t, 1, ind.Points)
	assert.Equal(t, 175.24, ind.SMA[20])
	assert.Equal(t, NeutralRSI, ind.RSI)
	assert.Equal(t, 0.0, ind.MACD)
	assert.Nil(t, ind.EMA)
	assert.Nil(t, ind.ExpMACD)
}

func TestComputeLongHistory(t *testing.T) {
	ind := Compute("MSFT", series(1, 60), DefaultSettings())
	assert.Equal(t, 60, ind.Points)
	assert.InDelta(t, 50.5, ind.SMA[20], 1e-9)
	assert.Equal(t, 100.0, ind.RSI)
	require.NotNil(t, ind.ExpMACD)
	assert.Greater(t, ind.ExpMACD.MACD, 0.0)
	assert.Len(t, ind.EMA, 2)
}
