package series

import (
	"testing"
	"time"

	"rotor/internal/domain"
)

func mkSeries(t *testing.T, symbol string, closes ...float64) *domain.PriceSeries {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{Symbol: symbol, Timestamp: base.AddDate(0, 0, i), Close: c}
	}
	ps, err := domain.NewPriceSeries(symbol, bars)
	if err != nil {
		t.Fatal(err)
	}
	return ps
}

func TestPublishReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Publish(mkSeries(t, "510300", 1, 2, 3))

	old, _ := s.Get("510300")
	s.Publish(mkSeries(t, "510300", 4, 5))

	// The previously obtained series is untouched by the refresh.
	if old.Len() != 3 || old.Bar(0).Close != 1 {
		t.Error("published series was mutated by a later refresh")
	}
	cur, ok := s.Get("510300")
	if !ok || cur.Len() != 2 {
		t.Errorf("Get after refresh: len = %d, want 2", cur.Len())
	}
}

func TestSnapshotIsStable(t *testing.T) {
	s := NewStore()
	s.Publish(mkSeries(t, "510300", 1, 2))
	snap := s.Snapshot()
	s.Publish(mkSeries(t, "159915", 9))
	s.Drop("510300")

	if len(snap) != 1 {
		t.Fatalf("snapshot len = %d, want 1", len(snap))
	}
	if _, ok := snap["510300"]; !ok {
		t.Error("snapshot lost its entry after store mutation")
	}
}

func TestSymbolsSorted(t *testing.T) {
	s := NewStore()
	s.Publish(mkSeries(t, "b", 1))
	s.Publish(mkSeries(t, "a", 1))
	got := s.Symbols()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Symbols() = %v, want [a b]", got)
	}
}
