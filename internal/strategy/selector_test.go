package strategy

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"rotor/internal/domain"
	"rotor/internal/universe"
)

// fakeLoader serves fixed series per symbol; symbols absent from the map
// fail with a not-found error.
type fakeLoader struct {
	series map[string][]float64
}

func (f *fakeLoader) Daily(_ context.Context, symbol string) (*domain.PriceSeries, error) {
	closes, ok := f.series[symbol]
	if !ok {
		return nil, errors.New("no data source for " + symbol)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{Symbol: symbol, Timestamp: base.AddDate(0, 0, i), Close: c}
	}
	return domain.NewPriceSeries(symbol, bars)
}

func flat(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func testPool(symbols ...string) universe.Pool {
	p := universe.Pool{Key: "test", Name: "test"}
	for _, s := range symbols {
		p.Instruments = append(p.Instruments, universe.Instrument{Symbol: s, Name: s})
	}
	return p
}

func TestEvaluateJumpBeatsFlat(t *testing.T) {
	// A: flat 100 for 40 days, then 110 on day 41. B: flat 100 throughout.
	// With 20-day momentum and 20-day MA, A has positive momentum and sits
	// above its MA; B has zero momentum and sits exactly at its MA.
	a := append(flat(100, 40), 110)
	b := flat(100, 41)
	loader := &fakeLoader{series: map[string][]float64{"A": a, "B": b}}
	sel := NewSelector(loader, nil)

	res, err := sel.Evaluate(context.Background(), testPool("A", "B"), Params{
		MomentumLookback: 20, MAWindow: 20, MaxPositions: 1,
	})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if len(res.Ranked) != 2 {
		t.Fatalf("ranked = %d, want 2", len(res.Ranked))
	}
	if res.Ranked[0].Symbol != "A" {
		t.Errorf("top ranked = %s, want A", res.Ranked[0].Symbol)
	}
	if len(res.Selected) != 1 || res.Selected[0].Symbol != "A" {
		t.Fatalf("selected = %+v, want [A]", res.Selected)
	}
	if res.Ranked[1].AboveTrend {
		t.Error("B at its MA boundary must not be above trend")
	}
}

func TestEvaluateExcludesUnavailable(t *testing.T) {
	loader := &fakeLoader{series: map[string][]float64{"A": flat(100, 60)}}
	sel := NewSelector(loader, nil)

	res, err := sel.Evaluate(context.Background(), testPool("A", "MISSING"), DefaultParams())
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if len(res.Excluded) != 1 || res.Excluded[0].Symbol != "MISSING" {
		t.Fatalf("excluded = %+v, want [MISSING]", res.Excluded)
	}
	if len(res.Ranked) != 1 {
		t.Errorf("ranked = %d, want 1 (evaluation continues past exclusions)", len(res.Ranked))
	}
}

func TestEvaluateNoDataIsEmptyNotError(t *testing.T) {
	loader := &fakeLoader{series: map[string][]float64{}}
	sel := NewSelector(loader, nil)

	res, err := sel.Evaluate(context.Background(), testPool("A", "B"), DefaultParams())
	if err != nil {
		t.Fatalf("no-data condition must not be an error, got: %v", err)
	}
	if len(res.Ranked) != 0 || len(res.Selected) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
	if len(res.Excluded) != 2 {
		t.Errorf("excluded = %d, want 2", len(res.Excluded))
	}
}

func TestEvaluateShortHistoryExcluded(t *testing.T) {
	loader := &fakeLoader{series: map[string][]float64{"A": flat(100, 10)}}
	sel := NewSelector(loader, nil)

	res, err := sel.Evaluate(context.Background(), testPool("A"), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Excluded) != 1 {
		t.Fatalf("excluded = %+v, want short-history exclusion", res.Excluded)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	loader := &fakeLoader{series: map[string][]float64{
		"A": append(flat(100, 40), 110),
		"B": flat(100, 41),
	}}
	sel := NewSelector(loader, nil)
	p := Params{MomentumLookback: 20, MAWindow: 20, MaxPositions: 2}

	r1, err := sel.Evaluate(context.Background(), testPool("A", "B"), p)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := sel.Evaluate(context.Background(), testPool("A", "B"), p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Error("repeated evaluation over unchanged inputs differs")
	}
}

func TestBiasTable(t *testing.T) {
	rising := make([]float64, 60)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	loader := &fakeLoader{series: map[string][]float64{"A": rising, "B": flat(100, 5)}}
	sel := NewSelector(loader, nil)

	rows, excluded := sel.BiasTable(context.Background(), testPool("A", "B"), []int{6, 12, 24})
	if len(rows) != 1 || rows[0].Symbol != "A" {
		t.Fatalf("rows = %+v, want one row for A", rows)
	}
	if rows[0].Trend != "strong_up" {
		t.Errorf("trend = %v, want strong_up for a rising series", rows[0].Trend)
	}
	if len(excluded) != 1 || excluded[0].Symbol != "B" {
		t.Errorf("excluded = %+v, want B (history shorter than bias windows)", excluded)
	}
	if rows[0].Close != rising[len(rising)-1] {
		t.Errorf("close = %v, want latest %v", rows[0].Close, rising[len(rising)-1])
	}
	if rows[0].DynamicUpper <= rows[0].DynamicLower {
		t.Errorf("dynamic bands upper=%v lower=%v, want upper > lower",
			rows[0].DynamicUpper, rows[0].DynamicLower)
	}
}
