package widget

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hugr-lab/adaptive-filter/internal/recovery"
	"github.com/hugr-lab/adaptive-filter/profile"
	"github.com/hugr-lab/adaptive-filter/table"
)

// Constructor creates a kind from optional parameters, such as the
// "step" of a slider read from an overrides file.
type Constructor func(params map[string]any) (Kind, error)

// Registry maps kind names to constructors and column kinds to their
// default widget. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	kinds    map[string]Constructor
	defaults map[profile.Kind]string
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{
		kinds: make(map[string]Constructor),
		defaults: map[profile.Kind]string{
			profile.KindCategorical: NameSelect,
			profile.KindNumeric:     NameRange,
			profile.KindDatetime:    NameDateRange,
			profile.KindGeometry:    NameBounds,
		},
	}

	r.Register(NameSelect, static(CategoricalSelect{}))
	r.Register(NameCheckbox, static(CategoricalCheckbox{}))
	r.Register(NameRange, static(NumericRange{}))
	r.Register(NameSlider, newSlider)
	r.Register(NameDateRange, static(DateRange{}))
	r.Register(NameBounds, static(GeometryBounds{}))
	return r
}

func static(k Kind) Constructor {
	return func(map[string]any) (Kind, error) { return k, nil }
}

func newSlider(params map[string]any) (Kind, error) {
	var s NumericSlider
	raw, ok := params["step"]
	if !ok {
		return s, nil
	}
	switch v := raw.(type) {
	case float64:
		s.Step = v
	case int:
		s.Step = float64(v)
	case int64:
		s.Step = float64(v)
	default:
		return nil, fmt.Errorf("slider step must be a number, got %T", raw)
	}
	if s.Step < 0 {
		return nil, fmt.Errorf("slider step must not be negative, got %g", s.Step)
	}
	return s, nil
}

// Register adds a kind constructor under name.
// Registering an existing name overwrites the previous constructor.
//
// Example:
//
//	reg.Register("radio", func(map[string]any) (widget.Kind, error) {
//	    return RadioButtons{}, nil
//	})
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[name] = c
}

// Names returns the registered kind names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup constructs the kind registered under name.
func (r *Registry) Lookup(name string, params map[string]any) (Kind, error) {
	r.mu.RLock()
	c, ok := r.kinds[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	k, err := c(params)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", name, err)
	}
	return k, nil
}

// Default returns the default kind for columns of kind ck.
func (r *Registry) Default(ck profile.Kind) (Kind, error) {
	r.mu.RLock()
	name, ok := r.defaults[ck]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no default for %s columns", ErrUnknownKind, ck)
	}
	return r.Lookup(name, nil)
}

// SetDefault makes the kind registered under name the default for ck.
func (r *Registry) SetDefault(ck profile.Kind, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kinds[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	r.defaults[ck] = name
	return nil
}

// Resolve decides the widget of one column.
// It returns nil, nil for a disabled column and a *ConfigError when the
// override cannot apply. Resolve has no side effects.
func (r *Registry) Resolve(col profile.ColumnSpec, o Override, data *table.Column) (*Spec, error) {
	if o.Disabled {
		return nil, nil
	}

	kind := o.Kind
	if kind == nil {
		k, err := r.Default(col.Kind)
		if err != nil {
			return nil, &ConfigError{Column: col.Name, Err: err}
		}
		kind = k
	}

	spec, err := recovery.RecoverToValue(nil, kind.Name(), func() (Spec, error) {
		if !kind.Accepts(col) {
			return Spec{}, fmt.Errorf("%w: cannot filter %s column", ErrIncompatibleKind, col.Kind)
		}
		return kind.Render(col, data), nil
	})
	if err != nil {
		return nil, &ConfigError{Column: col.Name, Kind: kind.Name(), Err: err}
	}

	spec.InputID = InputID("", col.Name)
	spec.Column = col.Name
	spec.Kind = kind
	spec.KindName = kind.Name()
	spec.Label = col.Name
	if o.Label != "" {
		spec.Label = o.Label
	}
	return &spec, nil
}
