package widget

// Override is a per-column instruction that changes the default widget.
// The zero value keeps the default.
type Override struct {
	// Disabled removes the column from filtering entirely.
	Disabled bool

	// Kind replaces the default kind when non-nil.
	Kind Kind

	// Label replaces the column name as widget label when non-empty.
	Label string
}

// Disable excludes a column from filtering.
func Disable() Override {
	return Override{Disabled: true}
}

// UseDefault keeps the inferred widget for a column.
func UseDefault() Override {
	return Override{}
}

// Replace substitutes the widget kind of a column.
func Replace(k Kind) Override {
	return Override{Kind: k}
}

// Relabel keeps the default widget and changes its label.
func Relabel(label string) Override {
	return Override{Label: label}
}

// WithLabel returns a copy of o with the given label.
func (o Override) WithLabel(label string) Override {
	o.Label = label
	return o
}

// IsDefault reports whether o leaves the column's widget unchanged.
func (o Override) IsDefault() bool {
	return !o.Disabled && o.Kind == nil && o.Label == ""
}
