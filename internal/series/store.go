// Package series provides the in-memory PriceSeriesStore that evaluations
// read from. Series are immutable once published; a refresh replaces the
// series for a symbol wholesale, so a reader mid-evaluation never observes
// a partial write.
package series

import (
	"sort"
	"sync"

	"rotor/internal/domain"
)

// Store holds one immutable PriceSeries per symbol. Publishing and reading
// are safe for concurrent use; the stored series themselves are never
// mutated in place.
type Store struct {
	mu     sync.RWMutex
	series map[string]*domain.PriceSeries
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{series: make(map[string]*domain.PriceSeries)}
}

// Publish installs a series for its symbol, replacing any previous one.
func (s *Store) Publish(ps *domain.PriceSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[ps.Symbol] = ps
}

// Get returns the current series for a symbol.
func (s *Store) Get(symbol string) (*domain.PriceSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, ok := s.series[symbol]
	return ps, ok
}

// Drop removes the series for a symbol, if present.
func (s *Store) Drop(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.series, symbol)
}

// Symbols returns the sorted symbols currently held.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.series))
	for sym := range s.series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a point-in-time view of the store. The returned map is a
// private copy; the series it references are immutable.
func (s *Store) Snapshot() map[string]*domain.PriceSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.PriceSeries, len(s.series))
	for sym, ps := range s.series {
		out[sym] = ps
	}
	return out
}
