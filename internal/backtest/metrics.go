package backtest

import "math"

// Risk-free rate assumed by the Sharpe ratio, in percent units.
const riskFreeRatePct = 3.0

// Trading days per year used to annualize the Sharpe ratio.
const tradingDaysPerYear = 252

// TotalReturn is value[-1]/value[0] − 1 in percent. Returns 0 for paths
// shorter than 2 points or a non-positive starting value.
func TotalReturn(values []float64) float64 {
	if len(values) < 2 || values[0] <= 0 {
		return 0
	}
	return (values[len(values)-1]/values[0] - 1) * 100
}

// AnnualReturn is the compound annual growth rate in percent, using elapsed
// calendar days (365.25-day years). Returns 0 if days ≤ 0 or start ≤ 0.
func AnnualReturn(start, end float64, days int) float64 {
	if days <= 0 || start <= 0 {
		return 0
	}
	years := float64(days) / 365.25
	return (math.Pow(end/start, 1/years) - 1) * 100
}

// MaxDrawdown is the largest percent decline from a running peak over the
// value path. Returns 0 for fewer than 2 points; a monotonically
// non-decreasing path has drawdown 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	maxDD := 0.0
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if dd := (peak - v) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// SharpeRatio is computed over per-step simple returns in percent against
// the fixed risk-free rate, annualized by √252. Steps whose starting value
// is non-positive are skipped. Returns 0 with fewer than 2 observations or
// a zero standard deviation.
func SharpeRatio(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var returns []float64
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]/values[i-1]-1)*100)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRatePct) / std * math.Sqrt(tradingDaysPerYear)
}
