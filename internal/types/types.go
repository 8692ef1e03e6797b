package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStop:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderFilled, OrderCancelled:
		return true
	}
	return false
}

type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

const (
	StrategyTrendFollowing = "TREND_FOLLOWING"
	StrategyMeanReversion  = "MEAN_REVERSION"
	StrategyArbitrage      = "ARBITRAGE"
)

// MarketDataPoint is one immutable observation in a symbol's price series.
type MarketDataPoint struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

type Portfolio struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"userId"`
	Balance   decimal.Decimal `json:"balance"`
	TotalPL   decimal.Decimal `json:"totalPL"`
	TodayPL   decimal.Decimal `json:"todayPL"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type PortfolioUpdate struct {
	Balance *decimal.Decimal `json:"balance,omitempty"`
	TotalPL *decimal.Decimal `json:"totalPL,omitempty"`
	TodayPL *decimal.Decimal `json:"todayPL,omitempty"`
}

type Position struct {
	ID           string    `json:"id"`
	PortfolioID  string    `json:"portfolioId"`
	Symbol       string    `json:"symbol"`
	Quantity     int       `json:"quantity"`
	AvgPrice     float64   `json:"avgPrice"`
	CurrentPrice float64   `json:"currentPrice"`
	UnrealizedPL float64   `json:"unrealizedPL"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Revalue marks the position to price. UnrealizedPL is
// quantity*(price-avgPrice) computed in decimal, without rounding.
func (p *Position) Revalue(price float64) {
	p.CurrentPrice = price
	diff := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(p.AvgPrice))
	p.UnrealizedPL = decimal.NewFromInt(int64(p.Quantity)).Mul(diff).InexactFloat64()
}

type PositionUpdate struct {
	Quantity *int     `json:"quantity,omitempty"`
	AvgPrice *float64 `json:"avgPrice,omitempty"`
}

type Order struct {
	ID          string      `json:"id"`
	PortfolioID string      `json:"portfolioId"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	OrderType   OrderType   `json:"orderType"`
	Quantity    int         `json:"quantity"`
	Price       *float64    `json:"price"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type OrderRequest struct {
	PortfolioID string    `json:"portfolioId"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	OrderType   OrderType `json:"orderType"`
	Quantity    int       `json:"quantity"`
	Price       *float64  `json:"price"`
}

type Signal struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Type       SignalType `json:"type"`
	Price      float64    `json:"price"`
	Confidence float64    `json:"confidence"`
	Strategy   string     `json:"strategy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Strategy struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Symbols    []string        `json:"symbols"`
	Parameters map[string]any  `json:"parameters"`
	IsActive   bool            `json:"isActive"`
	TotalPL    decimal.Decimal `json:"totalPL"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type StrategyUpdate struct {
	Name       *string          `json:"name,omitempty"`
	Symbols    []string         `json:"symbols,omitempty"`
	Parameters map[string]any   `json:"parameters,omitempty"`
	IsActive   *bool            `json:"isActive,omitempty"`
	TotalPL    *decimal.Decimal `json:"totalPL,omitempty"`
}

// PortfolioSnapshot is what the dashboard polls for a single owner.
type PortfolioSnapshot struct {
	Portfolio Portfolio  `json:"portfolio"`
	Positions []Position `json:"positions"`
	Orders    []Order    `json:"orders"`
}

type BollingerBands struct {
	Middle float64 `json:"middle"`
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
}

type MACDSeries struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type Indicators struct {
	Symbol  string          `json:"symbol"`
	Points  int             `json:"points"`
	SMA     map[int]float64 `json:"sma"`
	EMA     map[int]float64 `json:"ema,omitempty"`
	RSI     float64         `json:"rsi"`
	MACD    float64         `json:"macd"`
	ExpMACD *MACDSeries     `json:"expMacd,omitempty"`
	BB      BollingerBands  `json:"bollinger"`
}
