package strategy

import (
	"context"
	"log/slog"
	"time"

	"rotor/internal/domain"
	"rotor/internal/indicator"
	"rotor/internal/universe"
)

// Loader supplies the daily price series for one symbol. Implementations
// may serve from cache or fetch live; an error means the instrument is
// unavailable for this evaluation.
type Loader interface {
	Daily(ctx context.Context, symbol string) (*domain.PriceSeries, error)
}

// Params are the rotation-rule parameters.
type Params struct {
	MomentumLookback int
	MAWindow         int
	MaxPositions     int
	BiasPeriods      []int
}

// DefaultParams mirrors the strategy's standard tuning: 20-day momentum,
// 28-day trend filter, two positions, 6/12/24-day bias windows.
func DefaultParams() Params {
	return Params{
		MomentumLookback: 20,
		MAWindow:         28,
		MaxPositions:     2,
		BiasPeriods:      []int{6, 12, 24},
	}
}

// Warmup is the number of leading observations with undefined indicators.
func (p Params) Warmup() int {
	if p.MomentumLookback > p.MAWindow {
		return p.MomentumLookback
	}
	return p.MAWindow
}

// Selector performs point-in-time momentum evaluations over a pool.
type Selector struct {
	loader Loader
	log    *slog.Logger
}

// NewSelector creates a Selector reading price data through the given
// loader.
func NewSelector(loader Loader, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{loader: loader, log: log.With("component", "selector")}
}

// Evaluate ranks the pool at the latest available date and selects the top
// trend-passing candidates. Instruments whose data cannot be loaded or
// whose history is too short for the indicators are excluded and recorded,
// never fatal. When no instrument has defined indicators the result is
// empty — a "no data" condition, not an error.
func (s *Selector) Evaluate(ctx context.Context, pool universe.Pool, p Params) (domain.SelectionResult, error) {
	var (
		snapshots []domain.IndicatorSnapshot
		excluded  []domain.Exclusion
		evalDate  time.Time
	)

	for _, inst := range pool.Instruments {
		ps, err := s.loader.Daily(ctx, inst.Symbol)
		if err != nil {
			s.log.Warn("instrument unavailable", "symbol", inst.Symbol, "error", err)
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: err.Error()})
			continue
		}
		if ps.Len() == 0 {
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: "empty series"})
			continue
		}

		ind := indicator.ComputeSeries(ps, p.MomentumLookback, p.MAWindow, p.BiasPeriods)
		snap, ok := ind.Latest()
		if !ok || !snap.Defined() {
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: "insufficient history for indicators"})
			continue
		}
		snapshots = append(snapshots, snap)
		if snap.Date.After(evalDate) {
			evalDate = snap.Date
		}
	}

	ranked := Rank(snapshots, pool.Names())
	result := domain.SelectionResult{
		Date:     evalDate,
		Ranked:   ranked,
		Selected: SelectTop(ranked, p.MaxPositions),
		Excluded: excluded,
	}
	s.log.Info("selection evaluated",
		"pool", pool.Key,
		"ranked", len(result.Ranked),
		"selected", len(result.Selected),
		"excluded", len(result.Excluded))
	return result, nil
}

// dynamicBandMultiplier widens the per-instrument stretch bands to roughly
// two standard deviations of its own bias history.
const dynamicBandMultiplier = 2.0

// BiasRow is one instrument's multi-period bias reading.
type BiasRow struct {
	Symbol      string
	DisplayName string
	Date        time.Time
	Close       float64
	Bias        map[int]float64
	Trend       indicator.TrendState
	Verdict     indicator.Verdict

	// Dynamic stretch bands over the short-window bias history.
	DynamicUpper float64
	DynamicLower float64
}

// BiasTable computes the latest bias readings for every instrument in the
// pool. Periods must hold at least three windows (short, mid, long) for the
// trend/verdict classification; extra periods are reported but unused by
// the classifiers.
func (s *Selector) BiasTable(ctx context.Context, pool universe.Pool, periods []int) ([]BiasRow, []domain.Exclusion) {
	var (
		rows     []BiasRow
		excluded []domain.Exclusion
	)
	for _, inst := range pool.Instruments {
		ps, err := s.loader.Daily(ctx, inst.Symbol)
		if err != nil {
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: err.Error()})
			continue
		}
		if ps.Len() == 0 {
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: "empty series"})
			continue
		}

		closes := ps.Closes()
		last := ps.Bar(ps.Len() - 1)
		row := BiasRow{
			Symbol:      inst.Symbol,
			DisplayName: inst.Name,
			Date:        last.Timestamp,
			Close:       last.Close,
			Bias:        make(map[int]float64, len(periods)),
		}
		latest := make([]float64, 0, len(periods))
		defined := true
		var shortCol []float64
		for i, period := range periods {
			col := indicator.Bias(closes, period)
			if i == 0 {
				shortCol = col
			}
			v := col[len(col)-1]
			row.Bias[period] = v
			latest = append(latest, v)
			if domain.Undefined(v) {
				defined = false
			}
		}
		if len(latest) < 3 || !defined {
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: "insufficient history for bias windows"})
			continue
		}
		row.Trend = indicator.ClassifyTrend(latest[0], latest[1], latest[2])
		row.Verdict = indicator.ClassifyBias(latest[0], latest[1], latest[2])
		row.DynamicUpper = indicator.DynamicThreshold(shortCol, dynamicBandMultiplier)
		row.DynamicLower = indicator.DynamicThreshold(shortCol, -dynamicBandMultiplier)
		rows = append(rows, row)
	}
	return rows, excluded
}
