package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"sim-trading-engine/internal/hub"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/trace"
)

type serveOptions struct {
	configPath string
	addr       string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sim-trading-engine",
		Short: "Simulated trading backend",
		Long: `sim-trading-engine runs a simulated market, an in-memory order ledger
and a push channel for a trading dashboard.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(clientCmds()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", trace.ServiceName, trace.ServiceVersion)
		},
	}
}

func serveCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulator, gateway and push channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to the YAML config (missing file uses defaults)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := initializeSystem(); err != nil {
		return err
	}
	defer func() {
		if err := trace.Shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown tracer: %v\n", err)
		}
	}()

	cfg, err := loadConfig(ctx, opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	st := initializeMarket(ctx, cfg)
	h := hub.New()

	l, err := initializeLedger(ctx, cfg, h, st)
	if err != nil {
		return err
	}
	gen := initializeSignaler(cfg, st, l, h)
	sim := initializeSimulator(cfg, st, h)

	if _, err := initializeJournal(ctx, cfg, h); err != nil {
		return err
	}

	srv := initializeServer(cfg, l, st, gen, h)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sim.Start(ctx); err != nil {
		h.Close(ctx)
		return err
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutting down...")
	case serveErr = <-errc:
		logger.ErrorWithErr(ctx, "Gateway stopped unexpectedly", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	sim.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(shutdownCtx, "Gateway shutdown failed", err)
	}
	// Closes websocket subscribers and flushes the journal.
	h.Close(shutdownCtx)

	logger.Info(shutdownCtx, "Shutdown complete")
	return serveErr
}
