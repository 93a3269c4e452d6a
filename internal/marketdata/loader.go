// Package marketdata loads daily price series through a cache-first path: a
// symbol refreshed earlier the same day is served from the SQLite cache,
// anything staler triggers a provider fetch that refreshes the cache and the
// Parquet archive. Provider outages degrade to stale cached data instead of
// failing the symbol outright.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rotor/internal/domain"
	"rotor/internal/provider"
	"rotor/internal/series"
	"rotor/internal/store"
	"rotor/internal/strategy"
	"rotor/internal/util"
)

// Compile-time interface check.
var _ strategy.Loader = (*Loader)(nil)

// defaultFetchLimit is how many daily bars one refresh requests. Roughly
// two and a half years of trading days, enough for any supported warm-up.
const defaultFetchLimit = 600

// Loader implements strategy.Loader with a provider-backed bar cache.
type Loader struct {
	provider provider.BarProvider
	bars     store.BarStore
	meta     store.MetaStore
	archive  store.BarStore // optional long-term archive, may be nil
	log      *slog.Logger

	fetchLimit  int
	maxAttempts int
	now         func() time.Time

	// Same-day memo: published series are served without touching SQLite
	// until the trading day rolls over.
	mem    *series.Store
	memMu  sync.Mutex
	memDay map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithArchive mirrors every refresh into the given long-term store.
func WithArchive(archive store.BarStore) Option {
	return func(l *Loader) { l.archive = archive }
}

// WithFetchLimit overrides how many bars a refresh requests.
func WithFetchLimit(n int) Option {
	return func(l *Loader) { l.fetchLimit = n }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a Loader fetching through p and caching in bars/meta.
func NewLoader(p provider.BarProvider, bars store.BarStore, meta store.MetaStore, log *slog.Logger, opts ...Option) *Loader {
	if log == nil {
		log = slog.Default()
	}
	l := &Loader{
		provider:    p,
		bars:        bars,
		meta:        meta,
		log:         log.With("component", "marketdata"),
		fetchLimit:  defaultFetchLimit,
		maxAttempts: 3,
		now:         time.Now,
		mem:         series.NewStore(),
		memDay:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Daily returns the full cached daily series for a symbol, refreshing it
// from the provider when the cache was not already updated today.
func (l *Loader) Daily(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	today := l.now().UTC().Format("2006-01-02")

	l.memMu.Lock()
	memFresh := l.memDay[symbol] == today
	l.memMu.Unlock()
	if memFresh {
		if ps, ok := l.mem.Get(symbol); ok {
			return ps, nil
		}
	}

	meta, ok, err := l.meta.Meta(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("reading cache meta for %s: %w", symbol, err)
	}
	if ok && meta.LastUpdate == today {
		return l.fromCache(ctx, symbol, today)
	}

	bars, fetchErr := l.fetch(ctx, symbol)
	if fetchErr != nil {
		// Serve stale data rather than dropping the symbol.
		if ok {
			l.log.Warn("provider fetch failed, serving stale cache",
				"symbol", symbol, "provider", l.provider.Name(),
				"lastUpdate", meta.LastUpdate, "error", fetchErr)
			// Not memoized: the next call retries the provider.
			return l.fromCache(ctx, symbol, "")
		}
		return nil, fmt.Errorf("fetching %s from %s: %w", symbol, l.provider.Name(), fetchErr)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("provider %s returned no bars for %s", l.provider.Name(), symbol)
	}

	if err := l.bars.WriteBars(ctx, bars); err != nil {
		return nil, fmt.Errorf("caching bars for %s: %w", symbol, err)
	}
	if l.archive != nil {
		if err := l.archive.WriteBars(ctx, bars); err != nil {
			l.log.Warn("archive write failed", "symbol", symbol, "error", err)
		}
	}
	if err := l.meta.PutMeta(ctx, store.CacheMeta{
		Symbol:     symbol,
		LastUpdate: today,
		BarCount:   len(bars),
		LatestDate: bars[len(bars)-1].Timestamp.Format("2006-01-02"),
	}); err != nil {
		return nil, fmt.Errorf("recording cache meta for %s: %w", symbol, err)
	}

	l.log.Debug("cache refreshed", "symbol", symbol, "bars", len(bars))
	return l.fromCache(ctx, symbol, today)
}

// fetch pulls bars from the provider with retries.
func (l *Loader) fetch(ctx context.Context, symbol string) ([]domain.Bar, error) {
	var bars []domain.Bar
	err := util.Retry(ctx, l.maxAttempts, 500*time.Millisecond, func() error {
		var err error
		bars, err = l.provider.DailyBars(ctx, symbol, l.fetchLimit)
		return err
	})
	return bars, err
}

// fromCache builds the price series from all cached bars for a symbol. A
// non-empty memoDay publishes the series to the in-memory store for that
// day.
func (l *Loader) fromCache(ctx context.Context, symbol, memoDay string) (*domain.PriceSeries, error) {
	bars, err := l.bars.ReadBars(ctx, symbol, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("reading cached bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, errors.New("no cached bars for " + symbol)
	}
	ps, err := domain.NewPriceSeries(symbol, bars)
	if err != nil {
		return nil, err
	}
	if memoDay != "" {
		l.mem.Publish(ps)
		l.memMu.Lock()
		l.memDay[symbol] = memoDay
		l.memMu.Unlock()
	}
	return ps, nil
}
