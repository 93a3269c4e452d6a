package backtest

import (
	"math"
	"testing"
)

func TestTotalReturn(t *testing.T) {
	if got := TotalReturn([]float64{1.0, 1.25}); math.Abs(got-25) > 1e-9 {
		t.Errorf("TotalReturn = %v, want 25", got)
	}
	if got := TotalReturn([]float64{1.0}); got != 0 {
		t.Errorf("TotalReturn single point = %v, want 0", got)
	}
}

func TestAnnualReturn(t *testing.T) {
	// Doubling in exactly one 365.25-day year is 100% annualized.
	got := AnnualReturn(1.0, 2.0, 365)
	want := (math.Pow(2, 365.25/365.0) - 1) * 100
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("AnnualReturn = %v, want %v", got, want)
	}

	if got := AnnualReturn(1.0, 2.0, 0); got != 0 {
		t.Errorf("AnnualReturn days=0 = %v, want 0", got)
	}
	if got := AnnualReturn(0, 2.0, 100); got != 0 {
		t.Errorf("AnnualReturn start=0 = %v, want 0", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"monotone up", []float64{1, 1.1, 1.2, 1.3}, 0},
		{"flat", []float64{1, 1, 1}, 0},
		{"half loss", []float64{1, 2, 1}, 50},
		{"recovers", []float64{1, 2, 1, 3}, 50},
		{"single", []float64{1}, 0},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		got := MaxDrawdown(tc.values)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: MaxDrawdown = %v, want %v", tc.name, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Errorf("%s: MaxDrawdown = %v outside [0, 100]", tc.name, got)
		}
	}
}

func TestSharpeRatioZeroVariance(t *testing.T) {
	if got := SharpeRatio([]float64{1, 1, 1, 1}); got != 0 {
		t.Errorf("SharpeRatio constant path = %v, want 0", got)
	}
	if got := SharpeRatio([]float64{1}); got != 0 {
		t.Errorf("SharpeRatio single point = %v, want 0", got)
	}
	// Constant positive growth has identical step returns, so σ = 0.
	if got := SharpeRatio([]float64{1, 1.01, 1.0201}); got != 0 {
		t.Errorf("SharpeRatio constant growth = %v, want 0 (zero std)", got)
	}
}

func TestSharpeRatioHandComputed(t *testing.T) {
	// Path 1 → 1.02 → 1.02·0.99: step returns 2% and −1%.
	values := []float64{1, 1.02, 1.02 * 0.99}
	mean := (2.0 + -1.0) / 2
	std := math.Sqrt((math.Pow(2-mean, 2) + math.Pow(-1-mean, 2)) / 2)
	want := (mean - 3.0) / std * math.Sqrt(252)
	if got := SharpeRatio(values); math.Abs(got-want) > 1e-9 {
		t.Errorf("SharpeRatio = %v, want %v", got, want)
	}
}
