package indicator

import (
	"math"

	"rotor/internal/domain"
)

// TrendState classifies the combined short/mid/long bias readings.
type TrendState string

const (
	TrendStrongUp   TrendState = "strong_up"   // all periods above MA
	TrendStrongDown TrendState = "strong_down" // all periods below MA
	TrendRebound    TrendState = "rebound"     // short up, mid down
	TrendPullback   TrendState = "pullback"    // short down, mid up
	TrendRanging    TrendState = "ranging"
)

// Verdict is the overbought/oversold conclusion for one instrument.
type Verdict string

const (
	VerdictOverbought     Verdict = "overbought"
	VerdictOversold       Verdict = "oversold"
	VerdictNearOverbought Verdict = "near_overbought"
	VerdictNearOversold   Verdict = "near_oversold"
	VerdictNormal         Verdict = "normal"
)

// Fixed per-period thresholds, short to long. Longer windows deviate less,
// so their bands are tighter.
var (
	overboughtThresholds = [3]float64{5.0, 3.0, 2.0}
	oversoldThresholds   = [3]float64{-5.0, -3.0, -2.0}
)

// ClassifyTrend maps short/mid/long bias values to a TrendState.
func ClassifyTrend(short, mid, long float64) TrendState {
	switch {
	case short > 0 && mid > 0 && long > 0:
		return TrendStrongUp
	case short < 0 && mid < 0 && long < 0:
		return TrendStrongDown
	case short > 0 && mid < 0:
		return TrendRebound
	case short < 0 && mid > 0:
		return TrendPullback
	default:
		return TrendRanging
	}
}

// ClassifyBias returns the overbought/oversold verdict for short/mid/long
// bias values against the fixed thresholds.
func ClassifyBias(short, mid, long float64) Verdict {
	up, down := overboughtThresholds, oversoldThresholds
	switch {
	case short > up[0] && mid > up[1] && long > up[2]:
		return VerdictOverbought
	case short < down[0] && mid < down[1] && long < down[2]:
		return VerdictOversold
	case short > up[0]*0.8 || mid > up[1]*0.8:
		return VerdictNearOverbought
	case short < down[0]*0.8 || mid < down[1]*0.8:
		return VerdictNearOversold
	default:
		return VerdictNormal
	}
}

// DynamicThreshold returns mean + multiplier·σ over the defined values of a
// bias series, for flagging unusually stretched readings against the
// instrument's own history. Returns 0 when no value is defined.
func DynamicThreshold(values []float64, multiplier float64) float64 {
	var defined []float64
	for _, v := range values {
		if !domain.Undefined(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range defined {
		mean += v
	}
	mean /= float64(len(defined))

	variance := 0.0
	for _, v := range defined {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(defined)))
	return mean + multiplier*std
}
