package ta

import (
	"math"

	"github.com/markcheno/go-talib"

	"sim-trading-engine/internal/types"
)

const (
	DefaultRSIPeriod    = 14
	DefaultMACDFast     = 12
	DefaultMACDSlow     = 26
	DefaultMACDSignal   = 9
	DefaultBBPeriod     = 20
	DefaultBBMultiplier = 2.0

	// NeutralRSI is returned when there is not enough history.
	NeutralRSI = 50.0
)

func last(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	return prices[len(prices)-1]
}

// SMA averages the last n prices. Short input yields the latest price (0 if empty).
func SMA(prices []float64, n int) float64 {
	if n <= 0 || len(prices) < n {
		return last(prices)
	}
	sum := 0.0
	for i := len(prices) - n; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(n)
}

// RSI is Wilder's smoothed relative strength index.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return NeutralRSI
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD is the simple-moving-average proxy: SMA(fast) - SMA(slow).
func MACD(prices []float64, fast, slow int) float64 {
	return SMA(prices, fast) - SMA(prices, slow)
}

// StdDev is the population standard deviation of the last n prices.
func StdDev(prices []float64, n int) float64 {
	if n <= 0 || len(prices) < n {
		return 0
	}
	m := SMA(prices, n)
	s := 0.0
	for i := len(prices) - n; i < len(prices); i++ {
		d := prices[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// BollingerBands collapses all three bands onto the SMA when history is short.
func BollingerBands(prices []float64, n int, k float64) types.BollingerBands {
	mid := SMA(prices, n)
	if n <= 0 || len(prices) < n {
		return types.BollingerBands{Middle: mid, Upper: mid, Lower: mid}
	}
	sd := StdDev(prices, n)
	return types.BollingerBands{Middle: mid, Upper: mid + k*sd, Lower: mid - k*sd}
}

// EMA is the exponential moving average at the latest price. ok is false
// when there are fewer than n prices.
func EMA(prices []float64, n int) (v float64, ok bool) {
	if n <= 1 || len(prices) < n {
		return 0, false
	}
	out := talib.Ema(prices, n)
	return out[len(out)-1], true
}

// ExpMACD is the classic exponential MACD line, signal and histogram at the
// latest price.
func ExpMACD(prices []float64, fast, slow, signal int) (types.MACDSeries, bool) {
	if fast <= 1 || slow <= fast || signal <= 0 || len(prices) < slow+signal-1 {
		return types.MACDSeries{}, false
	}
	macd, sig, hist := talib.Macd(prices, fast, slow, signal)
	i := len(prices) - 1
	return types.MACDSeries{MACD: macd[i], Signal: sig[i], Histogram: hist[i]}, true
}

// Settings selects the windows Compute reports.
type Settings struct {
	SMAWindows []int
	EMAWindows []int
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BBWindow   int
	BBStdDev   float64
}

// DefaultSettings returns the conventional indicator windows.
func DefaultSettings() Settings {
	return Settings{
		SMAWindows: []int{20, 50},
		EMAWindows: []int{DefaultMACDFast, DefaultMACDSlow},
		RSIPeriod:  DefaultRSIPeriod,
		MACDFast:   DefaultMACDFast,
		MACDSlow:   DefaultMACDSlow,
		MACDSignal: DefaultMACDSignal,
		BBWindow:   DefaultBBPeriod,
		BBStdDev:   DefaultBBMultiplier,
	}
}

// Compute evaluates every configured indicator over prices.
func Compute(symbol string, prices []float64, s Settings) types.Indicators {
	ind := types.Indicators{
		Symbol: symbol,
		Points: len(prices),
		SMA:    make(map[int]float64, len(s.SMAWindows)),
		RSI:    RSI(prices, s.RSIPeriod),
		MACD:   MACD(prices, s.MACDFast, s.MACDSlow),
		BB:     BollingerBands(prices, s.BBWindow, s.BBStdDev),
	}
	for _, w := range s.SMAWindows {
		ind.SMA[w] = SMA(prices, w)
	}
	for _, w := range s.EMAWindows {
		if v, ok := EMA(prices, w); ok {
			if ind.EMA == nil {
				ind.EMA = make(map[int]float64, len(s.EMAWindows))
			}
			ind.EMA[w] = v
		}
	}
	if m, ok := ExpMACD(prices, s.MACDFast, s.MACDSlow, s.MACDSignal); ok {
		ind.ExpMACD = &m
	}
	return ind
}

// Closes extracts the price column of a market series.
func Closes(points []types.MarketDataPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}
