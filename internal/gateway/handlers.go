package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/ta"
	"sim-trading-engine/internal/types"
)

// SubscriberCounter reports live push subscribers for the health probe.
type SubscriberCounter interface {
	Count() int
}

// HandlerConfig holds the defaults used by the query handlers.
type HandlerConfig struct {
	// Symbols answers market-data requests that name none.
	Symbols            []string
	Indicators         ta.Settings
	DefaultSignalLimit int
}

// Handler serves the /api routes.
type Handler struct {
	ledger     interfaces.Ledger
	market     interfaces.MarketReader
	signals    interfaces.SignalGenerator
	subs       SubscriberCounter
	symbols    []string
	indicators ta.Settings
	limit      int
}

// NewHandler builds a Handler. subs may be nil.
func NewHandler(l interfaces.Ledger, m interfaces.MarketReader, g interfaces.SignalGenerator, subs SubscriberCounter, cfg HandlerConfig) *Handler {
	limit := cfg.DefaultSignalLimit
	if limit <= 0 {
		limit = 10
	}
	return &Handler{
		ledger:     l,
		market:     m,
		signals:    g,
		subs:       subs,
		symbols:    cfg.Symbols,
		indicators: cfg.Indicators,
		limit:      limit,
	}
}

type statusBody struct {
	Status types.OrderStatus `json:"status"`
}

type signalBody struct {
	Symbol   string `json:"symbol"`
	Strategy string `json:"strategy"`
}

// GetPortfolio handles GET /api/portfolio/:userId.
func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := h.ledger.GetPortfolioByOwner(ctx, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	positions, err := h.ledger.GetPositions(ctx, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	orders, err := h.ledger.GetOrders(ctx, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.PortfolioSnapshot{
		Portfolio: p,
		Positions: nonNil(positions),
		Orders:    nonNil(orders),
	})
}

// GetMarketData handles GET /api/market-data?symbols=A,B.
func (h *Handler) GetMarketData(c *gin.Context) {
	symbols := splitSymbols(c.Query("symbols"))
	if len(symbols) == 0 {
		symbols = h.symbols
	}
	if len(symbols) == 0 {
		symbols = h.market.Symbols()
	}
	c.JSON(http.StatusOK, nonNil(h.market.LatestMany(symbols)))
}

// GetHistory handles GET /api/market-data/:symbol/history.
func (h *Handler) GetHistory(c *gin.Context) {
	hist, err := h.market.History(c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// GetIndicators handles GET /api/market-data/:symbol/indicators.
func (h *Handler) GetIndicators(c *gin.Context) {
	symbol := c.Param("symbol")
	hist, err := h.market.History(symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ta.Compute(symbol, ta.Closes(hist), h.indicators))
}

// GetStrategies handles GET /api/strategies.
func (h *Handler) GetStrategies(c *gin.Context) {
	out, err := h.ledger.GetStrategies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

// GetSignals handles GET /api/signals?limit=N.
func (h *Handler) GetSignals(c *gin.Context) {
	// Unparseable or non-positive limits fall back to the default.
	limit := h.limit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}

	out, err := h.ledger.RecentSignals(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req types.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid order body", err)
		return
	}

	o, err := h.ledger.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// UpdateOrderStatus handles PATCH /api/orders/:id.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid status body", err)
		return
	}

	o, err := h.ledger.UpdateOrderStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GenerateSignal handles POST /api/signals/generate.
func (h *Handler) GenerateSignal(c *gin.Context) {
	var body signalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid signal body", err)
		return
	}

	sig, err := h.signals.Generate(c.Request.Context(), strings.TrimSpace(body.Symbol), body.Strategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	n := 0
	if h.subs != nil {
		n = h.subs.Count()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": n})
}

func splitSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
