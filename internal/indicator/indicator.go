// Package indicator computes derived series from price data: trailing
// momentum (rate of change), simple moving average, and bias (percent
// deviation from the moving average). All functions are pure; output series
// share the input's date axis with NaN at positions where the lookback
// window is not yet satisfied.
package indicator

import (
	"math"
	"time"

	"rotor/internal/domain"
)

// Momentum returns close[t]/close[t-lookback] − 1 for each position t.
// Positions with fewer than lookback prior observations are NaN, as are
// positions where the lookback close is zero.
func Momentum(closes []float64, lookback int) []float64 {
	out := nanSlice(len(closes))
	if lookback <= 0 {
		return out
	}
	for i := lookback; i < len(closes); i++ {
		if closes[i-lookback] == 0 {
			continue
		}
		out[i] = closes[i]/closes[i-lookback] - 1
	}
	return out
}

// MovingAverage returns the trailing simple mean over window observations
// ending at each position inclusive. Positions before the window fills are
// NaN.
func MovingAverage(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 || len(closes) < window {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// Bias returns (close − MA)/MA × 100 for each position, using a moving
// average of the given period. Positions where the MA is undefined or zero
// are NaN.
func Bias(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	ma := MovingAverage(closes, period)
	for i := range closes {
		if domain.Undefined(ma[i]) || ma[i] == 0 {
			continue
		}
		out[i] = (closes[i] - ma[i]) / ma[i] * 100
	}
	return out
}

// Series bundles the aligned indicator columns for one instrument.
type Series struct {
	Symbol   string
	Dates    []time.Time
	Close    []float64
	Momentum []float64
	MA       []float64
	Bias     map[int][]float64
}

// ComputeSeries derives all configured indicator columns from a price
// series. The input is not mutated.
func ComputeSeries(ps *domain.PriceSeries, momentumLookback, maWindow int, biasPeriods []int) *Series {
	closes := ps.Closes()
	s := &Series{
		Symbol:   ps.Symbol,
		Dates:    ps.Dates(),
		Close:    closes,
		Momentum: Momentum(closes, momentumLookback),
		MA:       MovingAverage(closes, maWindow),
		Bias:     make(map[int][]float64, len(biasPeriods)),
	}
	for _, p := range biasPeriods {
		s.Bias[p] = Bias(closes, p)
	}
	return s
}

// SnapshotAt returns the indicator snapshot at position i.
func (s *Series) SnapshotAt(i int) domain.IndicatorSnapshot {
	snap := domain.IndicatorSnapshot{
		Symbol:        s.Symbol,
		Date:          s.Dates[i],
		Close:         s.Close[i],
		Momentum:      s.Momentum[i],
		MovingAverage: s.MA[i],
	}
	if len(s.Bias) > 0 {
		snap.Bias = make(map[int]float64, len(s.Bias))
		for p, col := range s.Bias {
			snap.Bias[p] = col[i]
		}
	}
	return snap
}

// Latest returns the snapshot at the last position, or false for an empty
// series.
func (s *Series) Latest() (domain.IndicatorSnapshot, bool) {
	if len(s.Dates) == 0 {
		return domain.IndicatorSnapshot{}, false
	}
	return s.SnapshotAt(len(s.Dates) - 1), true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
