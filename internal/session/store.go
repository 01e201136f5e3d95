// Package session keeps the last selected baseline and recommendation per symbol in a
// JSON file so refinement can resume without repeating the baseline search.
package session

import (
	"fmt"
	"sync"
	"time"

	"GridOptimizer/internal/model"
)

// Store is a concurrency-safe view over the session file.
type Store struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewStore loads or initializes state from disk.
func NewStore(filePath string) (*Store, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Store{state: state, filePath: filePath}, nil
}

func (s *Store) symbol(symbol string) *SymbolState {
	st, ok := s.state.Symbols[symbol]
	if !ok {
		st = &SymbolState{}
		s.state.Symbols[symbol] = st
	}
	return st
}

// Baseline returns the stored phase baseline for symbol.
func (s *Store) Baseline(symbol string) (model.PhaseBaseline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.Symbols[symbol]
	if !ok || st.Baseline == nil {
		return model.PhaseBaseline{}, false
	}
	return *st.Baseline, true
}

// SetBaseline records the selected baseline and persists the file.
func (s *Store) SetBaseline(symbol string, b model.PhaseBaseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.symbol(symbol)
	st.Baseline = &b
	st.UpdatedAt = time.Now().UTC()
	return SaveState(s.filePath, s.state)
}

// Recommendation returns the last saved recommendation for symbol.
func (s *Store) Recommendation(symbol string) (model.SavedConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.Symbols[symbol]
	if !ok || st.Recommendation == nil {
		return model.SavedConfig{}, false
	}
	return *st.Recommendation, true
}

// SetRecommendation records the recommended configuration and persists the file.
func (s *Store) SetRecommendation(symbol string, cfg model.SavedConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.symbol(symbol)
	st.Recommendation = &cfg
	st.UpdatedAt = time.Now().UTC()
	return SaveState(s.filePath, s.state)
}

// Reset forgets everything stored for symbol.
func (s *Store) Reset(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.Symbols, symbol)
	return SaveState(s.filePath, s.state)
}
