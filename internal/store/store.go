// Package store defines storage for daily OHLCV bars: a SQLite-backed
// cache with per-symbol freshness metadata and a Parquet archive for
// long-term history.
package store

import (
	"context"
	"time"

	"rotor/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, replacing bars with the same
	// (symbol, date).
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the symbol within [start, end], ordered by
	// date. Zero start or end means unbounded on that side.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// CacheMeta records when a symbol's cached bars were last refreshed.
type CacheMeta struct {
	Symbol     string
	LastUpdate string // refresh day, YYYY-MM-DD
	BarCount   int
	LatestDate string // date of the newest cached bar, YYYY-MM-DD
}

// MetaStore tracks per-symbol cache freshness. A cache entry refreshed on
// the current trading day is served in lieu of a live fetch.
type MetaStore interface {
	// Meta returns the cache metadata for a symbol; ok is false when the
	// symbol has never been cached.
	Meta(ctx context.Context, symbol string) (CacheMeta, bool, error)

	// PutMeta upserts the cache metadata for a symbol.
	PutMeta(ctx context.Context, meta CacheMeta) error
}
