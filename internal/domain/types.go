// Package domain defines the core value types shared across the rotor
// system: OHLCV bars, price series, indicator snapshots, ranked candidates,
// and the selection/backtest result shapes.
package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar is a single daily OHLCV observation for one instrument.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// PriceSeries is an ordered-by-date sequence of bars for one instrument.
// Dates are strictly increasing with no duplicates. A series is immutable
// once built; a refresh replaces it wholesale.
type PriceSeries struct {
	Symbol string
	bars   []Bar
}

// NewPriceSeries builds a PriceSeries from bars, sorting by timestamp and
// rejecting duplicate dates. The input slice is not retained.
func NewPriceSeries(symbol string, bars []Bar) (*PriceSeries, error) {
	owned := make([]Bar, len(bars))
	copy(owned, bars)
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].Timestamp.Before(owned[j].Timestamp)
	})
	for i := 1; i < len(owned); i++ {
		if !owned[i].Timestamp.After(owned[i-1].Timestamp) {
			return nil, fmt.Errorf("price series %s: duplicate date %s",
				symbol, owned[i].Timestamp.Format("2006-01-02"))
		}
	}
	return &PriceSeries{Symbol: symbol, bars: owned}, nil
}

// Len returns the number of bars in the series.
func (ps *PriceSeries) Len() int { return len(ps.bars) }

// Bar returns the i-th bar.
func (ps *PriceSeries) Bar(i int) Bar { return ps.bars[i] }

// Bars returns a copy of the underlying bars.
func (ps *PriceSeries) Bars() []Bar {
	out := make([]Bar, len(ps.bars))
	copy(out, ps.bars)
	return out
}

// Dates returns the date axis of the series.
func (ps *PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(ps.bars))
	for i, b := range ps.bars {
		out[i] = b.Timestamp
	}
	return out
}

// Closes returns the close column of the series.
func (ps *PriceSeries) Closes() []float64 {
	out := make([]float64, len(ps.bars))
	for i, b := range ps.bars {
		out[i] = b.Close
	}
	return out
}

// Restrict returns a new series containing only bars within [start, end]
// inclusive. Zero start or end means unbounded on that side.
func (ps *PriceSeries) Restrict(start, end time.Time) *PriceSeries {
	var kept []Bar
	for _, b := range ps.bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		kept = append(kept, b)
	}
	return &PriceSeries{Symbol: ps.Symbol, bars: kept}
}

// Undefined reports whether an indicator value is undefined (NaN). Leading
// positions of momentum/MA/bias series are undefined until their lookback
// window is satisfied.
func Undefined(v float64) bool { return math.IsNaN(v) }

// IndicatorSnapshot holds the derived values for one instrument at one date.
// Undefined values are NaN.
type IndicatorSnapshot struct {
	Symbol        string
	Date          time.Time
	Close         float64
	Momentum      float64
	MovingAverage float64
	Bias          map[int]float64 // period → percent deviation from MA
}

// Defined reports whether close, momentum, and moving average are all
// usable for ranking.
func (s IndicatorSnapshot) Defined() bool {
	return !Undefined(s.Close) && !Undefined(s.Momentum) && !Undefined(s.MovingAverage)
}

// RankedCandidate is one instrument's entry in a momentum ranking.
type RankedCandidate struct {
	Symbol        string
	DisplayName   string
	Close         float64
	MovingAverage float64
	Momentum      float64
	AboveTrend    bool // close strictly above moving average
}

// Exclusion records an instrument dropped from an evaluation and why.
// Exclusions are expected (data gaps, short history) and never fatal.
type Exclusion struct {
	Symbol string
	Reason string
}

// SelectionResult is the outcome of one point-in-time momentum evaluation.
// Selected preserves the momentum-descending order of Ranked. An empty
// Ranked with a non-empty Excluded list means no instrument had data; it is
// a "no data" condition, not an error.
type SelectionResult struct {
	Date     time.Time
	Ranked   []RankedCandidate
	Selected []RankedCandidate
	Excluded []Exclusion
}

// TradeAction is the direction of a simulated trade.
type TradeAction string

const (
	TradeBuy  TradeAction = "buy"
	TradeSell TradeAction = "sell"
)

// TradeEvent records one simulated holding change at a date's close price.
type TradeEvent struct {
	Date        time.Time
	Symbol      string
	DisplayName string
	Action      TradeAction
	Price       float64
}

// HoldingSnapshot records the portfolio composition after a simulated day's
// rebalance. Symbols are sorted for deterministic output.
type HoldingSnapshot struct {
	Date    time.Time
	Symbols []string
	Count   int
}

// BacktestResult is the complete outcome of one backtest run. Dates and
// Values are aligned one-to-one: Values[0] is 1.0 at the first post-warm-up
// calendar date. Percentages are in percent units (12.3 means 12.3%).
type BacktestResult struct {
	Dates        []time.Time
	Values       []float64
	TotalReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	SharpeRatio  float64
	TradeCount   int
	Trades       []TradeEvent
	Holdings     []HoldingSnapshot
	Excluded     []Exclusion
}
