package domain

import (
	"math"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestNewPriceSeriesSortsBars(t *testing.T) {
	bars := []Bar{
		{Symbol: "510300", Timestamp: day(2), Close: 3.2},
		{Symbol: "510300", Timestamp: day(0), Close: 3.0},
		{Symbol: "510300", Timestamp: day(1), Close: 3.1},
	}
	ps, err := NewPriceSeries("510300", bars)
	if err != nil {
		t.Fatalf("NewPriceSeries() error: %v", err)
	}
	if ps.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ps.Len())
	}
	dates := ps.Dates()
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Errorf("dates not strictly increasing at %d: %v, %v", i, dates[i-1], dates[i])
		}
	}
	if got := ps.Closes(); got[0] != 3.0 || got[2] != 3.2 {
		t.Errorf("Closes() = %v, want sorted by date", got)
	}
}

func TestNewPriceSeriesRejectsDuplicateDates(t *testing.T) {
	bars := []Bar{
		{Timestamp: day(0), Close: 1},
		{Timestamp: day(0), Close: 2},
	}
	if _, err := NewPriceSeries("510300", bars); err == nil {
		t.Fatal("expected error for duplicate dates, got nil")
	}
}

func TestNewPriceSeriesDoesNotRetainInput(t *testing.T) {
	bars := []Bar{
		{Timestamp: day(0), Close: 1},
		{Timestamp: day(1), Close: 2},
	}
	ps, err := NewPriceSeries("x", bars)
	if err != nil {
		t.Fatal(err)
	}
	bars[0].Close = 99
	if ps.Bar(0).Close != 1 {
		t.Error("series mutated through the input slice")
	}
}

func TestPriceSeriesRestrict(t *testing.T) {
	var bars []Bar
	for i := 0; i < 10; i++ {
		bars = append(bars, Bar{Timestamp: day(i), Close: float64(i)})
	}
	ps, err := NewPriceSeries("x", bars)
	if err != nil {
		t.Fatal(err)
	}

	sub := ps.Restrict(day(3), day(6))
	if sub.Len() != 4 {
		t.Fatalf("Restrict len = %d, want 4", sub.Len())
	}
	if sub.Bar(0).Close != 3 || sub.Bar(3).Close != 6 {
		t.Errorf("Restrict bounds wrong: first=%v last=%v", sub.Bar(0).Close, sub.Bar(3).Close)
	}

	open := ps.Restrict(time.Time{}, time.Time{})
	if open.Len() != 10 {
		t.Errorf("unbounded Restrict len = %d, want 10", open.Len())
	}
}

func TestSnapshotDefined(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name string
		snap IndicatorSnapshot
		want bool
	}{
		{"all defined", IndicatorSnapshot{Close: 1, Momentum: 0.1, MovingAverage: 0.9}, true},
		{"momentum NaN", IndicatorSnapshot{Close: 1, Momentum: nan, MovingAverage: 0.9}, false},
		{"ma NaN", IndicatorSnapshot{Close: 1, Momentum: 0.1, MovingAverage: nan}, false},
		{"close NaN", IndicatorSnapshot{Close: nan, Momentum: 0.1, MovingAverage: 0.9}, false},
	}
	for _, tc := range cases {
		if got := tc.snap.Defined(); got != tc.want {
			t.Errorf("%s: Defined() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
