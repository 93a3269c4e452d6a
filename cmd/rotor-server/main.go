package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rotor/internal/backtest"
	"rotor/internal/config"
	"rotor/internal/httpapi"
	"rotor/internal/marketdata"
	"rotor/internal/provider"
	"rotor/internal/store"
	"rotor/internal/strategy"
	"rotor/internal/util"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (default: ROTOR_CONFIG or built-in defaults)")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("ROTOR_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Storage: SQLite cache plus Parquet archive.
	cache, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening bar cache: %v", err)
	}
	defer cache.Close()
	archive := store.NewParquetStore(cfg.Storage.DataDir)

	prov, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("configuring provider: %v", err)
	}

	loader := marketdata.NewLoader(prov, cache, cache, logger, marketdata.WithArchive(archive))
	defaults := strategyParams(cfg)

	srv := httpapi.NewServer(
		strategy.NewSelector(loader, logger),
		backtest.NewSimulator(loader, logger),
		defaults,
		logger,
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("rotor server listening", "addr", httpServer.Addr, "provider", prov.Name())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down rotor server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func buildProvider(cfg *config.Config) (provider.BarProvider, error) {
	switch cfg.Provider.Source {
	case "", "eastmoney":
		return provider.NewEastmoneyProvider(), nil
	case "alpaca":
		if cfg.Provider.Alpaca.APIKey == "" || cfg.Provider.Alpaca.APISecret == "" {
			return nil, fmt.Errorf("alpaca provider requires api_key and api_secret")
		}
		return provider.NewAlpacaProvider(
			cfg.Provider.Alpaca.APIKey,
			cfg.Provider.Alpaca.APISecret,
			cfg.Provider.Alpaca.DataURL,
		), nil
	default:
		return nil, fmt.Errorf("unknown provider source %q", cfg.Provider.Source)
	}
}

func strategyParams(cfg *config.Config) strategy.Params {
	p := strategy.DefaultParams()
	if cfg.Strategy.MomentumLookback > 0 {
		p.MomentumLookback = cfg.Strategy.MomentumLookback
	}
	if cfg.Strategy.MAWindow > 0 {
		p.MAWindow = cfg.Strategy.MAWindow
	}
	if cfg.Strategy.MaxPositions > 0 {
		p.MaxPositions = cfg.Strategy.MaxPositions
	}
	if len(cfg.Strategy.BiasPeriods) > 0 {
		p.BiasPeriods = cfg.Strategy.BiasPeriods
	}
	return p
}
