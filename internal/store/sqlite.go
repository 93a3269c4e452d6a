package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"rotor/internal/domain"
)

// Compile-time interface checks.
var _ BarStore = (*SQLiteStore)(nil)
var _ MetaStore = (*SQLiteStore)(nil)

// SQLiteStore implements BarStore and MetaStore backed by a SQLite
// database. It is the daily-bar cache: one row per (symbol, date) plus a
// freshness row per symbol.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE TABLE IF NOT EXISTS cache_meta (
	symbol      TEXT PRIMARY KEY,
	last_update TEXT NOT NULL,
	bar_count   INTEGER NOT NULL,
	latest_date TEXT NOT NULL
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars upserts a batch of bars in a single transaction.
func (s *SQLiteStore) WriteBars(ctx context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx,
			b.Symbol, b.Timestamp.Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("inserting bar %s/%s: %w",
				b.Symbol, b.Timestamp.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// ReadBars returns bars for the symbol within [start, end], ordered by date.
func (s *SQLiteStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	query := `SELECT date, open, high, low, close, volume FROM bars WHERE symbol = ?`
	args := []any{symbol}
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, end.Format("2006-01-02"))
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var (
			date string
			b    domain.Bar
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		ts, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing cached date %q: %w", date, err)
		}
		b.Symbol = symbol
		b.Timestamp = ts
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListSymbols returns all distinct symbols with cached bars, sorted.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// ---------------------------------------------------------------------------
// MetaStore implementation
// ---------------------------------------------------------------------------

// Meta returns the cache metadata for a symbol.
func (s *SQLiteStore) Meta(ctx context.Context, symbol string) (CacheMeta, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, last_update, bar_count, latest_date
		FROM cache_meta WHERE symbol = ?`, symbol)

	var m CacheMeta
	switch err := row.Scan(&m.Symbol, &m.LastUpdate, &m.BarCount, &m.LatestDate); err {
	case nil:
		return m, true, nil
	case sql.ErrNoRows:
		return CacheMeta{}, false, nil
	default:
		return CacheMeta{}, false, err
	}
}

// PutMeta upserts the cache metadata for a symbol.
func (s *SQLiteStore) PutMeta(ctx context.Context, meta CacheMeta) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_meta (symbol, last_update, bar_count, latest_date)
		VALUES (?, ?, ?, ?)`,
		meta.Symbol, meta.LastUpdate, meta.BarCount, meta.LatestDate)
	return err
}
