// Package backtest replays the momentum rotation rule over a shared
// trading calendar and measures how the resulting portfolio would have
// performed. The simulator re-ranks the universe every day, rebalances to
// the top trend-passing candidates, and accumulates an equal-weighted value
// path; package-level metric functions derive the summary statistics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"rotor/internal/domain"
	"rotor/internal/indicator"
	"rotor/internal/strategy"
	"rotor/internal/universe"
)

// Sentinel causes for InsufficientDataError, checked with errors.Is.
var (
	ErrInsufficientUniverse = errors.New("fewer than 2 instruments with usable data")
	ErrInsufficientCalendar = errors.New("shared trading calendar too short")
)

// minInstruments is the smallest universe a rotation backtest is meaningful
// over.
const minInstruments = 2

// minCalendarDays is the minimum number of shared trading days.
const minCalendarDays = 30

// extraBars is the history margin required beyond the indicator warm-up.
const extraBars = 10

// InsufficientDataError reports that a backtest could not run because the
// surviving data was too thin. It is an expected condition (short ranges,
// sparse universes), distinct from computation failures.
type InsufficientDataError struct {
	Cause       error
	Instruments int
	Calendar    int
	Excluded    []domain.Exclusion
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("cannot backtest: %v (instruments=%d, calendar=%d)",
		e.Cause, e.Instruments, e.Calendar)
}

func (e *InsufficientDataError) Unwrap() error { return e.Cause }

// Params configures one backtest run.
type Params struct {
	Start time.Time
	End   time.Time
	strategy.Params
}

// Simulator runs historical backtests of the rotation rule.
type Simulator struct {
	loader strategy.Loader
	log    *slog.Logger
}

// NewSimulator creates a Simulator reading price data through the given
// loader.
func NewSimulator(loader strategy.Loader, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{loader: loader, log: log.With("component", "backtest")}
}

// instrumentData is one surviving instrument's aligned data for a run.
type instrumentData struct {
	symbol string
	ind    *indicator.Series
	byDate map[int64]int // calendar date (unix) → index into ind columns
}

// Run simulates the rotation rule over [Start, End]. Instruments whose data
// cannot be loaded or whose in-range history is shorter than the indicator
// warm-up plus a margin are dropped and recorded; the run proceeds with the
// survivors. It returns an *InsufficientDataError when fewer than two
// instruments survive, the shared calendar has fewer than 30 dates, or no
// date remains after warm-up.
func (s *Simulator) Run(ctx context.Context, pool universe.Pool, p Params) (*domain.BacktestResult, error) {
	warmup := p.Warmup()
	minBars := warmup + extraBars

	var (
		instruments []*instrumentData
		excluded    []domain.Exclusion
	)
	for _, inst := range pool.Instruments {
		ps, err := s.loader.Daily(ctx, inst.Symbol)
		if err != nil {
			s.log.Warn("instrument dropped", "symbol", inst.Symbol, "error", err)
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: err.Error()})
			continue
		}
		ps = ps.Restrict(p.Start, p.End)
		if ps.Len() < minBars {
			reason := fmt.Sprintf("only %d bars in range, need %d", ps.Len(), minBars)
			s.log.Warn("instrument dropped", "symbol", inst.Symbol, "reason", reason)
			excluded = append(excluded, domain.Exclusion{Symbol: inst.Symbol, Reason: reason})
			continue
		}
		instruments = append(instruments, &instrumentData{
			symbol: inst.Symbol,
			ind:    indicator.ComputeSeries(ps, p.MomentumLookback, p.MAWindow, nil),
		})
	}

	if len(instruments) < minInstruments {
		return nil, &InsufficientDataError{
			Cause:       ErrInsufficientUniverse,
			Instruments: len(instruments),
			Excluded:    excluded,
		}
	}

	calendar := sharedCalendar(instruments)
	if len(calendar) < minCalendarDays || len(calendar) <= warmup {
		return nil, &InsufficientDataError{
			Cause:       ErrInsufficientCalendar,
			Instruments: len(instruments),
			Calendar:    len(calendar),
			Excluded:    excluded,
		}
	}

	names := pool.Names()
	result := &domain.BacktestResult{Excluded: excluded}

	current := make(map[string]bool)
	value := 1.0

	for i := warmup; i < len(calendar); i++ {
		date := calendar[i]

		// Realize today's return on yesterday's basket before rebalancing.
		// The first simulated day starts flat at 1.0.
		if i > warmup {
			value *= 1 + dailyReturn(instruments, current, calendar[i-1], date)
		}
		result.Dates = append(result.Dates, date)
		result.Values = append(result.Values, value)

		// Re-rank the universe at today's close.
		snapshots := make([]domain.IndicatorSnapshot, 0, len(instruments))
		for _, inst := range instruments {
			snapshots = append(snapshots, inst.ind.SnapshotAt(inst.byDate[date.Unix()]))
		}
		ranked := strategy.Rank(snapshots, names)
		target := make(map[string]bool)
		for _, c := range strategy.SelectTop(ranked, p.MaxPositions) {
			target[c.Symbol] = true
		}

		// Sells first, then buys, at today's close.
		for _, inst := range instruments {
			if current[inst.symbol] && !target[inst.symbol] {
				result.Trades = append(result.Trades, domain.TradeEvent{
					Date:        date,
					Symbol:      inst.symbol,
					DisplayName: names[inst.symbol],
					Action:      domain.TradeSell,
					Price:       inst.closeAt(date),
				})
			}
		}
		for _, inst := range instruments {
			if target[inst.symbol] && !current[inst.symbol] {
				result.Trades = append(result.Trades, domain.TradeEvent{
					Date:        date,
					Symbol:      inst.symbol,
					DisplayName: names[inst.symbol],
					Action:      domain.TradeBuy,
					Price:       inst.closeAt(date),
				})
			}
		}
		current = target

		held := make([]string, 0, len(current))
		for sym := range current {
			held = append(held, sym)
		}
		sort.Strings(held)
		result.Holdings = append(result.Holdings, domain.HoldingSnapshot{
			Date:    date,
			Symbols: held,
			Count:   len(held),
		})
	}

	days := int(result.Dates[len(result.Dates)-1].Sub(result.Dates[0]).Hours() / 24)
	result.TotalReturn = TotalReturn(result.Values)
	result.AnnualReturn = AnnualReturn(result.Values[0], result.Values[len(result.Values)-1], days)
	result.MaxDrawdown = MaxDrawdown(result.Values)
	result.SharpeRatio = SharpeRatio(result.Values)
	result.TradeCount = len(result.Trades)

	s.log.Info("backtest complete",
		"pool", pool.Key,
		"instruments", len(instruments),
		"days", len(result.Dates),
		"trades", result.TradeCount,
		"totalReturn", result.TotalReturn)
	return result, nil
}

// sharedCalendar intersects the instruments' date axes, sorted ascending,
// and fills each instrument's date → index lookup.
func sharedCalendar(instruments []*instrumentData) []time.Time {
	counts := make(map[int64]int)
	byUnix := make(map[int64]time.Time)
	for _, inst := range instruments {
		inst.byDate = make(map[int64]int, len(inst.ind.Dates))
		for i, d := range inst.ind.Dates {
			u := d.Unix()
			inst.byDate[u] = i
			counts[u]++
			byUnix[u] = d
		}
	}

	var shared []time.Time
	for u, n := range counts {
		if n == len(instruments) {
			shared = append(shared, byUnix[u])
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Before(shared[j]) })
	return shared
}

// dailyReturn is the equal-weighted average single-day simple return of the
// held symbols from prev to date. An empty basket is cash: return 0.
func dailyReturn(instruments []*instrumentData, held map[string]bool, prev, date time.Time) float64 {
	if len(held) == 0 {
		return 0
	}
	sum, n := 0.0, 0
	for _, inst := range instruments {
		if !held[inst.symbol] {
			continue
		}
		prevClose := inst.closeAt(prev)
		if prevClose <= 0 {
			continue
		}
		sum += inst.closeAt(date)/prevClose - 1
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (d *instrumentData) closeAt(date time.Time) float64 {
	return d.ind.Close[d.byDate[date.Unix()]]
}
