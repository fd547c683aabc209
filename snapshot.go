package adaptive

import (
	"fmt"

	"github.com/hugr-lab/adaptive-filter/internal/serialize"
)

// Snapshot encodes the current widget states for later Restore.
// The row index is not included; it is recomputed from the states.
func (f *Filter) Snapshot() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := serialize.EncodeStates(f.store.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("snapshot filter %s: %w", f.id, err)
	}
	return data, nil
}

// Restore replaces all widget states with those in data, as one change.
// It fails with ErrInvalidSnapshot, leaving the states untouched, when data
// is unreadable or holds a state for a column without a matching widget.
func (f *Filter) Restore(data []byte) error {
	states, err := serialize.DecodeStates(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	return f.event(func() error {
		for column, st := range states {
			i, ok := f.byColumn[column]
			if !ok {
				return fmt.Errorf("%w: %v: %s", ErrInvalidSnapshot, ErrNoWidget, column)
			}
			if err := checkState(f.specs[i], st); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
			}
		}
		f.store.Replace(states)
		f.logger.Debug("Filter states restored", "states", len(states))
		return nil
	})
}
