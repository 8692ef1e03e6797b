package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Config wires the router. A nil WS leaves /ws unrouted and a nil Limiter
// disables rate limiting.
type Config struct {
	Handler *Handler
	WS      http.HandlerFunc
	Limiter *rate.Limiter
}

// NewRouter registers the health, websocket and /api routes.
func NewRouter(cfg *Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	router.GET("/healthz", cfg.Handler.Health)
	if cfg.WS != nil {
		router.GET("/ws", gin.WrapF(cfg.WS))
	}

	api := router.Group("/api")
	registerQueryRoutes(api, cfg.Handler)
	registerCommandRoutes(api, cfg.Handler, RateLimit(cfg.Limiter))

	return router
}

func registerQueryRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/portfolio/:userId", h.GetPortfolio)
	router.GET("/strategies", h.GetStrategies)
	router.GET("/signals", h.GetSignals)

	market := router.Group("/market-data")
	{
		market.GET("", h.GetMarketData)
		market.GET("/:symbol/history", h.GetHistory)
		market.GET("/:symbol/indicators", h.GetIndicators)
	}
}

func registerCommandRoutes(router *gin.RouterGroup, h *Handler, limit gin.HandlerFunc) {
	cmds := router.Group("", limit)
	{
		cmds.POST("/orders", h.CreateOrder)
		cmds.PATCH("/orders/:id", h.UpdateOrderStatus)
		cmds.POST("/signals/generate", h.GenerateSignal)
	}
}

// NewLimiter returns a token bucket for mutating routes, or nil when rps is
// zero, which disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
