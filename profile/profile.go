// Package profile classifies table columns into filter kinds.
//
// Profiling is pure and deterministic: the same table always yields the same
// column specs in schema order. Columns that cannot be classified confidently
// fall back to categorical and are reported as non-fatal warnings.
package profile

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/adaptive-filter/table"
)

// Kind is the inferred filter kind of a column.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindGeometry    Kind = "geometry"
)

// ErrAmbiguousColumn indicates a column could not be classified confidently.
var ErrAmbiguousColumn = errors.New("ambiguous column kind")

// AmbiguityError reports a column that defaulted to categorical.
type AmbiguityError struct {
	Column string
	Type   arrow.DataType
	Reason string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("column %s (%s): %s, using %s filter", e.Column, e.Type, e.Reason, KindCategorical)
}

func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguousColumn
}

// ColumnSpec describes one column for filter resolution.
type ColumnSpec struct {
	Name        string
	Kind        Kind
	Cardinality int
	Type        arrow.DataType
	Nullable    bool
}

// Options tunes classification.
type Options struct {
	// MaxCategories is the highest cardinality a text column may have
	// before it is reported as ambiguous. Zero disables the check.
	MaxCategories int
}

// Profile is the ordered set of column specs of a table.
type Profile struct {
	Columns []ColumnSpec
	byName  map[string]int
}

// Column returns the spec of a column by name.
func (p *Profile) Column(name string) (ColumnSpec, bool) {
	i, ok := p.byName[name]
	if !ok {
		return ColumnSpec{}, false
	}
	return p.Columns[i], true
}

// Map returns the specs keyed by column name.
func (p *Profile) Map() map[string]ColumnSpec {
	m := make(map[string]ColumnSpec, len(p.Columns))
	for _, c := range p.Columns {
		m[c.Name] = c
	}
	return m
}

// Infer classifies every filterable column of tbl.
// The returned warnings are *AmbiguityError values; they never prevent profiling.
func Infer(tbl *table.Table, opts Options) (*Profile, []error) {
	p := &Profile{byName: make(map[string]int)}
	var warnings []error

	for _, col := range tbl.Columns() {
		spec := ColumnSpec{
			Name:     col.Name,
			Type:     col.Field.Type,
			Nullable: col.Field.Nullable,
		}

		dt := col.DataType()
		switch {
		case col.IsGeometry():
			spec.Kind = KindGeometry
		case table.IsNumericType(dt):
			spec.Kind = KindNumeric
		case table.IsTemporalType(dt):
			spec.Kind = KindDatetime
		case table.IsTextType(dt), dt.ID() == arrow.BOOL:
			spec.Kind = KindCategorical
		default:
			spec.Kind = KindCategorical
			warnings = append(warnings, &AmbiguityError{Column: col.Name, Type: dt, Reason: "unsupported type"})
		}

		if spec.Kind != KindGeometry {
			spec.Cardinality = cardinality(col)
		}
		if spec.Kind == KindCategorical && opts.MaxCategories > 0 && spec.Cardinality > opts.MaxCategories {
			warnings = append(warnings, &AmbiguityError{
				Column: col.Name,
				Type:   dt,
				Reason: fmt.Sprintf("%d distinct values exceed %d", spec.Cardinality, opts.MaxCategories),
			})
		}

		p.byName[spec.Name] = len(p.Columns)
		p.Columns = append(p.Columns, spec)
	}

	return p, warnings
}

// cardinality counts distinct non-null values.
func cardinality(col *table.Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v.Valid {
			seen[v.Text] = struct{}{}
		}
	}
	return len(seen)
}
