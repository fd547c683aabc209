package adaptive

import (
	"fmt"

	"github.com/hugr-lab/adaptive-filter/widget"
)

// OverridesBuilder builds Overrides using a fluent API.
// Not thread-safe - use only during initialization.
type OverridesBuilder struct {
	entries []overrideEntry
	built   bool
}

type directive int

const (
	directiveDisable directive = iota
	directiveDefault
	directiveReplace
	directiveRelabel
)

func (d directive) String() string {
	switch d {
	case directiveDisable:
		return "disable"
	case directiveDefault:
		return "default"
	case directiveReplace:
		return "replace"
	}
	return "relabel"
}

type overrideEntry struct {
	column string
	what   directive
	kind   widget.Kind
	label  string
}

// NewOverrides creates a new fluent overrides builder.
//
// Example:
//
//	overrides, err := adaptive.NewOverrides().
//	    Disable("total_bill").
//	    Relabel("day", "Day of Week").
//	    ReplaceLabeled("size", widget.CategoricalCheckbox{}, "Party Size").
//	    Build()
func NewOverrides() *OverridesBuilder {
	return &OverridesBuilder{}
}

// Disable removes column from filtering.
func (b *OverridesBuilder) Disable(column string) *OverridesBuilder {
	b.entries = append(b.entries, overrideEntry{column: column, what: directiveDisable})
	return b
}

// Default keeps the inferred widget of column.
func (b *OverridesBuilder) Default(column string) *OverridesBuilder {
	b.entries = append(b.entries, overrideEntry{column: column, what: directiveDefault})
	return b
}

// Replace swaps the widget kind of column.
func (b *OverridesBuilder) Replace(column string, kind widget.Kind) *OverridesBuilder {
	b.entries = append(b.entries, overrideEntry{column: column, what: directiveReplace, kind: kind})
	return b
}

// Relabel changes the label of column's widget.
func (b *OverridesBuilder) Relabel(column, label string) *OverridesBuilder {
	b.entries = append(b.entries, overrideEntry{column: column, what: directiveRelabel, label: label})
	return b
}

// ReplaceLabeled swaps the widget kind of column and sets its label.
func (b *OverridesBuilder) ReplaceLabeled(column string, kind widget.Kind, label string) *OverridesBuilder {
	return b.Replace(column, kind).Relabel(column, label)
}

// Build validates the directives and returns the Overrides.
// Can only be called once. A column may combine one replace with one
// relabel; any other repetition is a conflict.
func (b *OverridesBuilder) Build() (Overrides, error) {
	if b.built {
		return nil, fmt.Errorf("%w: overrides already built", ErrInvalidConfig)
	}

	out := make(Overrides, len(b.entries))
	seen := make(map[string][]directive)
	for _, e := range b.entries {
		if e.column == "" {
			return nil, fmt.Errorf("%w: override column name cannot be empty", ErrInvalidConfig)
		}
		for _, prev := range seen[e.column] {
			if !combinable(prev, e.what) {
				return nil, fmt.Errorf("%w: column %s: %s conflicts with %s", ErrInvalidConfig, e.column, e.what, prev)
			}
		}
		seen[e.column] = append(seen[e.column], e.what)

		o := out[e.column]
		switch e.what {
		case directiveDisable:
			o = widget.Disable()
		case directiveDefault:
			o = widget.UseDefault()
		case directiveReplace:
			if e.kind == nil {
				return nil, fmt.Errorf("%w: column %s: replacement kind cannot be nil", ErrInvalidConfig, e.column)
			}
			o.Kind = e.kind
		case directiveRelabel:
			if e.label == "" {
				return nil, fmt.Errorf("%w: column %s: label cannot be empty", ErrInvalidConfig, e.column)
			}
			o.Label = e.label
		}
		out[e.column] = o
	}

	b.built = true
	return out, nil
}

func combinable(a, b directive) bool {
	return a == directiveReplace && b == directiveRelabel ||
		a == directiveRelabel && b == directiveReplace
}
