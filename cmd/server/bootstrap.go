package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sim-trading-engine/internal/gateway"
	"sim-trading-engine/internal/hub"
	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/journal"
	"sim-trading-engine/internal/ledger"
	"sim-trading-engine/internal/ledger/ledgerobs"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/market"
	"sim-trading-engine/internal/signaler"
	"sim-trading-engine/internal/signaler/signalerobs"
	"sim-trading-engine/internal/simulator"
	"sim-trading-engine/internal/store"
	"sim-trading-engine/internal/ta"
	"sim-trading-engine/internal/trace"
	"sim-trading-engine/internal/tradelog"
)

// initializeSystem loads .env and brings up the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeMarket seeds one point per configured symbol
func initializeMarket(ctx context.Context, cfg *store.Config) *market.Store {
	st := market.NewStore(cfg.Market.MaxHistory)
	market.SeedFromConfig(st, cfg, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now().UTC())

	logger.Info(ctx, "Market seeded", "symbols", cfg.SymbolNames(), "max_history", cfg.Market.MaxHistory)
	return st
}

// initializeLedger builds the ledger with observability and loads the demo portfolio
func initializeLedger(ctx context.Context, cfg *store.Config, pub interfaces.Publisher, prices interfaces.PriceSource) (interfaces.Ledger, error) {
	base := ledger.New(
		ledger.WithPublisher(pub),
		ledger.WithPriceSource(prices),
		ledger.WithMaxSignals(cfg.Signals.MaxStored),
	)

	l := ledgerobs.Wrap(base)
	if _, err := ledger.SeedFromConfig(ctx, l, cfg); err != nil {
		return nil, fmt.Errorf("failed to seed ledger: %w", err)
	}
	return l, nil
}

// initializeSignaler returns the signal generator with observability
func initializeSignaler(cfg *store.Config, st interfaces.MarketReader, rec interfaces.SignalRecorder, pub interfaces.Publisher) interfaces.SignalGenerator {
	return signalerobs.Wrap(signaler.New(st, rec, pub, cfg.Signals.DefaultStrategy))
}

func initializeSimulator(cfg *store.Config, st interfaces.MarketStore, pub interfaces.Publisher) interfaces.Simulator {
	return simulator.New(simulator.ConfigFrom(cfg), st, pub)
}

// initializeJournal attaches the configured audit sink to the hub. It
// returns nil when journaling is disabled.
func initializeJournal(ctx context.Context, cfg *store.Config, h *hub.Hub) (*journal.Subscriber, error) {
	var w journal.Writer
	switch cfg.Journal.Type {
	case store.JournalSQLite:
		sw, err := journal.NewSQLiteWriter(cfg.Journal.DBPath)
		if err != nil {
			return nil, err
		}
		w = sw
	case store.JournalJSONL:
		compressOldLogs(ctx, cfg)
		tw, err := tradelog.NewWriter(cfg.Journal.Dir, cfg.Journal.RetentionDays)
		if err != nil {
			return nil, err
		}
		w = tw
	default:
		logger.Info(ctx, "Event journal disabled")
		return nil, nil
	}

	sub := journal.NewSubscriber(w, journal.Options{
		Buffer:               cfg.Journal.Buffer,
		IncludeMarketUpdates: cfg.Journal.IncludeMarketUpdates,
	})
	if err := h.Subscribe(ctx, sub); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to attach journal: %w", err)
	}
	logger.Info(ctx, "Event journal attached", "type", cfg.Journal.Type, "market_updates", cfg.Journal.IncludeMarketUpdates)
	return sub, nil
}

// compressOldLogs gzips JSONL journal files past the retention window
func compressOldLogs(ctx context.Context, cfg *store.Config) {
	if err := tradelog.CompressOlder(cfg.Journal.Dir, cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
	}
}

// initializeServer wires the gateway routes and the websocket push channel
func initializeServer(cfg *store.Config, l interfaces.Ledger, st interfaces.MarketReader, gen interfaces.SignalGenerator, h *hub.Hub) *http.Server {
	handler := gateway.NewHandler(l, st, gen, h, gateway.HandlerConfig{
		Symbols:            cfg.SymbolNames(),
		Indicators:         indicatorSettings(cfg),
		DefaultSignalLimit: cfg.Signals.DefaultLimit,
	})

	router := gateway.NewRouter(&gateway.Config{
		Handler: handler,
		WS:      h.WSHandler(hub.WSConfigFrom(cfg)),
		Limiter: gateway.NewLimiter(cfg.Gateway.RateLimitRPS, cfg.Gateway.RateLimitBurst),
	})

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

func indicatorSettings(cfg *store.Config) ta.Settings {
	return ta.Settings{
		SMAWindows: cfg.Indicators.SMAWindows,
		EMAWindows: cfg.Indicators.EMAWindows,
		RSIPeriod:  cfg.Indicators.RSIPeriod,
		MACDFast:   cfg.Indicators.MACDFast,
		MACDSlow:   cfg.Indicators.MACDSlow,
		MACDSignal: cfg.Indicators.MACDSignal,
		BBWindow:   cfg.Indicators.BBWindow,
		BBStdDev:   cfg.Indicators.BBStdDev,
	}
}
