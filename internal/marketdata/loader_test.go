package marketdata

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"rotor/internal/domain"
	"rotor/internal/store"
)

type fakeProvider struct {
	bars  []domain.Bar
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) DailyBars(context.Context, string, int) ([]domain.Bar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func testBars(symbol string, n int) []domain.Bar {
	base := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{
			Symbol:    symbol,
			Timestamp: base.AddDate(0, 0, i),
			Close:     3.50 + float64(i)*0.01,
			Volume:    1000,
		}
	}
	return bars
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDailyFetchesAndCaches(t *testing.T) {
	st := newTestStore(t)
	p := &fakeProvider{bars: testBars("510300", 5)}
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	l := NewLoader(p, st, st, nil, WithClock(fixedClock(now)))

	ps, err := l.Daily(context.Background(), "510300")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if ps.Len() != 5 {
		t.Errorf("series length = %d, want 5", ps.Len())
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls)
	}

	meta, ok, err := st.Meta(context.Background(), "510300")
	if err != nil || !ok {
		t.Fatalf("Meta after fetch: ok=%v err=%v", ok, err)
	}
	if meta.LastUpdate != "2024-06-10" || meta.BarCount != 5 || meta.LatestDate != "2024-06-07" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestDailyServesFreshCacheWithoutFetch(t *testing.T) {
	st := newTestStore(t)
	p := &fakeProvider{bars: testBars("510300", 5)}
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	l := NewLoader(p, st, st, nil, WithClock(fixedClock(now)))

	if _, err := l.Daily(context.Background(), "510300"); err != nil {
		t.Fatal(err)
	}
	// Second call the same day hits the cache only.
	if _, err := l.Daily(context.Background(), "510300"); err != nil {
		t.Fatal(err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second load cached)", p.calls)
	}
}

func TestDailySameDayMemoReturnsSameSeries(t *testing.T) {
	st := newTestStore(t)
	p := &fakeProvider{bars: testBars("510300", 5)}
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	l := NewLoader(p, st, st, nil, WithClock(fixedClock(now)))

	ps1, err := l.Daily(context.Background(), "510300")
	if err != nil {
		t.Fatal(err)
	}
	ps2, err := l.Daily(context.Background(), "510300")
	if err != nil {
		t.Fatal(err)
	}
	if ps1 != ps2 {
		t.Error("same-day loads should return the published in-memory series")
	}
}

func TestDailyRefetchesNextDay(t *testing.T) {
	st := newTestStore(t)
	p := &fakeProvider{bars: testBars("510300", 5)}
	day1 := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := day1
	l := NewLoader(p, st, st, nil, WithClock(func() time.Time { return clock }))

	if _, err := l.Daily(context.Background(), "510300"); err != nil {
		t.Fatal(err)
	}
	clock = day1.AddDate(0, 0, 1)
	if _, err := l.Daily(context.Background(), "510300"); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (stale cache refreshed)", p.calls)
	}
}

func TestDailyFallsBackToStaleCache(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Seed the cache as of yesterday.
	bars := testBars("510300", 5)
	if err := st.WriteBars(ctx, bars); err != nil {
		t.Fatal(err)
	}
	if err := st.PutMeta(ctx, store.CacheMeta{
		Symbol: "510300", LastUpdate: "2024-06-09", BarCount: 5, LatestDate: "2024-06-07",
	}); err != nil {
		t.Fatal(err)
	}

	p := &fakeProvider{err: errors.New("upstream down")}
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	l := NewLoader(p, st, st, nil, WithClock(fixedClock(now)))

	ps, err := l.Daily(ctx, "510300")
	if err != nil {
		t.Fatalf("Daily should fall back to stale cache, got error: %v", err)
	}
	if ps.Len() != 5 {
		t.Errorf("stale series length = %d, want 5", ps.Len())
	}
}

func TestDailyErrorWhenNoCacheAndFetchFails(t *testing.T) {
	st := newTestStore(t)
	p := &fakeProvider{err: errors.New("upstream down")}
	l := NewLoader(p, st, st, nil,
		WithClock(fixedClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))))

	if _, err := l.Daily(context.Background(), "510300"); err == nil {
		t.Fatal("Daily should fail with no cache and a dead provider")
	}
	if p.calls != 3 {
		t.Errorf("provider calls = %d, want 3 (retries exhausted)", p.calls)
	}
}

func TestDailyMirrorsToArchive(t *testing.T) {
	st := newTestStore(t)
	archive := store.NewParquetStore(t.TempDir())
	p := &fakeProvider{bars: testBars("510300", 5)}
	l := NewLoader(p, st, st, nil,
		WithArchive(archive),
		WithClock(fixedClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))))

	if _, err := l.Daily(context.Background(), "510300"); err != nil {
		t.Fatal(err)
	}

	got, err := archive.ReadBars(context.Background(), "510300", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("archive ReadBars: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("archive has %d bars, want 5", len(got))
	}
}
