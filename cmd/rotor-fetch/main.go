// rotor-fetch warms the daily-bar cache for one or all pools so that the
// server and CLI answer from local data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rotor/internal/config"
	"rotor/internal/marketdata"
	"rotor/internal/provider"
	"rotor/internal/store"
	"rotor/internal/universe"
	"rotor/internal/util"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (default: ROTOR_CONFIG or built-in defaults)")
	poolKey := flag.String("pool", "all", "pool key to fetch, or \"all\"")
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

	symbols, err := resolveSymbols(*poolKey)
	if err != nil {
		log.Fatal(err)
	}

	cache, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening bar cache: %v", err)
	}
	defer cache.Close()
	archive := store.NewParquetStore(cfg.Storage.DataDir)

	var prov provider.BarProvider
	switch cfg.Provider.Source {
	case "", "eastmoney":
		prov = provider.NewEastmoneyProvider()
	case "alpaca":
		prov = provider.NewAlpacaProvider(
			cfg.Provider.Alpaca.APIKey,
			cfg.Provider.Alpaca.APISecret,
			cfg.Provider.Alpaca.DataURL,
		)
	default:
		log.Fatalf("unknown provider source %q", cfg.Provider.Source)
	}

	loader := marketdata.NewLoader(prov, cache, cache, logger, marketdata.WithArchive(archive))
	limiter := util.NewRateLimiter(cfg.Fetch.RateLimitPerMin)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var failed int
	for _, symbol := range symbols {
		if err := limiter.Wait(ctx); err != nil {
			logger.Warn("fetch interrupted", "error", err)
			os.Exit(1)
		}
		ps, err := loader.Daily(ctx, symbol)
		if err != nil {
			logger.Error("fetch failed", "symbol", symbol, "error", err)
			failed++
			continue
		}
		logger.Info("fetched", "symbol", symbol, "bars", ps.Len())
	}

	logger.Info("fetch complete", "symbols", len(symbols), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// resolveSymbols returns the deduplicated symbol list for the requested
// pool, in pool order.
func resolveSymbols(poolKey string) ([]string, error) {
	var pools []universe.Pool
	if poolKey == "all" {
		pools = universe.Pools()
	} else {
		pool, ok := universe.ByKey(poolKey)
		if !ok {
			return nil, fmt.Errorf("unknown pool %q", poolKey)
		}
		pools = []universe.Pool{pool}
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, p := range pools {
		for _, s := range p.Symbols() {
			if !seen[s] {
				seen[s] = true
				symbols = append(symbols, s)
			}
		}
	}
	return symbols, nil
}
