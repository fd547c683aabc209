// Package state holds the current widget states of a filter session.
package state

import (
	"maps"

	"github.com/hugr-lab/adaptive-filter/reactive"
	"github.com/hugr-lab/adaptive-filter/widget"
)

// Store maps column names to widget states. A column without an entry
// has no restriction. Every write fires exactly one change notification.
//
// Store is not safe for concurrent use; the owning filter serializes access.
type Store struct {
	states  map[string]widget.State
	changed reactive.Trigger
}

// New returns an empty store.
func New() *Store {
	return &Store{states: make(map[string]widget.State)}
}

// Get returns the state of column, or nil when it has none.
func (s *Store) Get(column string) widget.State {
	return s.states[column]
}

// Set stores the state of column. A nil or default state clears it.
func (s *Store) Set(column string, st widget.State) {
	if st == nil || st.IsDefault() {
		delete(s.states, column)
	} else {
		s.states[column] = st
	}
	s.changed.Fire()
}

// ResetAll clears every state.
func (s *Store) ResetAll() {
	clear(s.states)
	s.changed.Fire()
}

// Replace swaps in a complete set of states as one update.
func (s *Store) Replace(states map[string]widget.State) {
	clear(s.states)
	for col, st := range states {
		if st != nil && !st.IsDefault() {
			s.states[col] = st
		}
	}
	s.changed.Fire()
}

// Prune drops the states of columns for which keep returns false.
// It notifies only when something was dropped.
func (s *Store) Prune(keep func(column string, st widget.State) bool) int {
	n := len(s.states)
	maps.DeleteFunc(s.states, func(col string, st widget.State) bool {
		return !keep(col, st)
	})
	dropped := n - len(s.states)
	if dropped > 0 {
		s.changed.Fire()
	}
	return dropped
}

// Snapshot returns a copy of the non-default states.
func (s *Store) Snapshot() map[string]widget.State {
	return maps.Clone(s.states)
}

// Len returns the number of columns with an active state.
func (s *Store) Len() int {
	return len(s.states)
}

// Changed is the source that fires on every write.
func (s *Store) Changed() reactive.Source {
	return &s.changed
}
