package api

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-trading-engine/internal/gateway"
	"sim-trading-engine/internal/hub"
	"sim-trading-engine/internal/ledger"
	"sim-trading-engine/internal/market"
	"sim-trading-engine/internal/signaler"
	"sim-trading-engine/internal/store"
	"sim-trading-engine/internal/ta"
	"sim-trading-engine/internal/types"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := store.Default()
	st := market.NewStore(0)
	market.SeedFromConfig(st, cfg, rand.New(rand.NewSource(7)), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	h := hub.New()
	l := ledger.New(ledger.WithPublisher(h), ledger.WithPriceSource(st))
	_, err := ledger.SeedFromConfig(context.Background(), l, cfg)
	require.NoError(t, err)

	handler := gateway.NewHandler(l, st, signaler.New(st, l, h, ""), h, gateway.HandlerConfig{
		Symbols:    cfg.SymbolNames(),
		Indicators: ta.DefaultSettings(),
	})
	srv := httptest.NewServer(gateway.NewRouter(&gateway.Config{Handler: handler}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstGateway(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	snap, err := c.Portfolio(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "portfolio-1", snap.Portfolio.ID)
	assert.Len(t, snap.Positions, 3)

	points, err := c.MarketData(ctx, "BTC", "NFLX")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 43567.89, points[0].Price)

	all, err := c.MarketData(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	strategies, err := c.Strategies(ctx)
	require.NoError(t, err)
	assert.Len(t, strategies, 2)

	order, err := c.CreateOrder(ctx, types.OrderRequest{
		PortfolioID: "portfolio-1",
		Symbol:      "MSFT",
		Side:        types.SideSell,
		OrderType:   types.OrderTypeMarket,
		Quantity:    5,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OrderPending, order.Status)

	order, err = c.UpdateOrderStatus(ctx, order.ID, types.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, types.OrderCancelled, order.Status)

	sig, err := c.GenerateSignal(ctx, "TSLA", "")
	require.NoError(t, err)
	assert.Equal(t, types.SignalSell, sig.Type)

	signals, err := c.Signals(ctx, 5)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, sig.ID, signals[0].ID)

	ind, err := c.Indicators(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, ind.Points)
}

func TestClientMapsErrors(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.Portfolio(ctx, "ghost")
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))

	_, err = c.CreateOrder(ctx, types.OrderRequest{PortfolioID: "portfolio-1", Symbol: "AAPL", Side: "HOLD", OrderType: types.OrderTypeMarket, Quantity: 1})
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "side")
}

func TestClientRetriesRateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}))
	out, err := c.Signals(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	c = NewClient(srv.URL, WithRetry(RetryConfig{MaxAttempts: 1}))
	_, err = c.Signals(context.Background(), 0)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "rate limit exceeded", se.Message)
}

func TestClientStopsAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(RetryConfig{MaxAttempts: 2, InitialWait: time.Millisecond}))
	_, err := c.Strategies(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(2), calls.Load())

	calls.Store(0)
	status.Store(http.StatusBadRequest)
	_, err = c.Strategies(context.Background())
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, int32(1), calls.Load())
}
