// Package strategy implements the relative-momentum rotation rule: rank a
// universe by trailing momentum, filter by trend (close strictly above its
// moving average), and hold the top-ranked survivors up to a position cap.
package strategy

import (
	"sort"

	"rotor/internal/domain"
)

// Rank builds ranked candidates from the per-instrument snapshots, in
// momentum-descending order. Snapshots must be supplied in universe order:
// the sort is stable, so equal momentum keeps that order. Instruments with
// an undefined close, momentum, or moving average are skipped.
func Rank(snapshots []domain.IndicatorSnapshot, names map[string]string) []domain.RankedCandidate {
	candidates := make([]domain.RankedCandidate, 0, len(snapshots))
	for _, snap := range snapshots {
		if !snap.Defined() {
			continue
		}
		name := names[snap.Symbol]
		if name == "" {
			name = snap.Symbol
		}
		candidates = append(candidates, domain.RankedCandidate{
			Symbol:        snap.Symbol,
			DisplayName:   name,
			Close:         snap.Close,
			MovingAverage: snap.MovingAverage,
			Momentum:      snap.Momentum,
			AboveTrend:    snap.Close > snap.MovingAverage,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Momentum > candidates[j].Momentum
	})
	return candidates
}

// SelectTop returns the trend-passing members of an already-ranked sequence,
// truncated to maxPositions. Rank order is preserved; the result is never
// padded when fewer than maxPositions candidates qualify. The ranking runs
// over the whole universe first — the trend filter is applied after, not
// before, so a below-trend instrument still occupies its rank slot in the
// full ordering.
func SelectTop(ranked []domain.RankedCandidate, maxPositions int) []domain.RankedCandidate {
	if maxPositions <= 0 {
		return nil
	}
	var selected []domain.RankedCandidate
	for _, c := range ranked {
		if !c.AboveTrend {
			continue
		}
		selected = append(selected, c)
		if len(selected) == maxPositions {
			break
		}
	}
	return selected
}
