package widget

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/adaptive-filter/filter"
	"github.com/hugr-lab/adaptive-filter/profile"
	"github.com/hugr-lab/adaptive-filter/table"
)

// Built-in kind names.
const (
	NameSelect    = "select"
	NameCheckbox  = "checkbox"
	NameRange     = "range"
	NameSlider    = "slider"
	NameDateRange = "date_range"
	NameBounds    = "bounds"
)

// choice implements the shared behavior of categorical widgets.
type choice struct{}

func (choice) Render(col profile.ColumnSpec, data *table.Column) Spec {
	return Spec{Options: distinctOptions(col, data), Multiple: true}
}

func (choice) Validate(st State) error {
	if _, ok := st.(Selection); !ok {
		return stateError("categorical", Selection(nil), st)
	}
	return nil
}

func (choice) Matches(v table.Value, st State) bool {
	sel, _ := st.(Selection)
	return v.Valid && slices.Contains(sel, v.Text)
}

func (choice) Values(st State) []string {
	sel, _ := st.(Selection)
	return sel
}

// Expression renders the selection as an IN list of literals typed like the
// column. Values the column cannot hold match no row.
func (choice) Expression(col profile.ColumnSpec, st State) filter.Expression {
	sel, _ := st.(Selection)
	if len(sel) == 0 {
		return nil
	}
	values := make([]filter.Expression, 0, len(sel))
	for _, s := range sel {
		if v := typedLiteral(col.Type, s); v != nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return filter.Bool(false)
	}
	return filter.In(filter.Column(col.Name), values...)
}

// CategoricalSelect is a multi-select dropdown over the distinct values of a column.
type CategoricalSelect struct{ choice }

func (CategoricalSelect) Name() string { return NameSelect }

func (CategoricalSelect) Accepts(col profile.ColumnSpec) bool {
	return col.Kind != profile.KindGeometry
}

// CategoricalCheckbox is a checkbox group over the distinct values of a column.
type CategoricalCheckbox struct{ choice }

func (CategoricalCheckbox) Name() string { return NameCheckbox }

func (CategoricalCheckbox) Accepts(col profile.ColumnSpec) bool {
	return col.Kind == profile.KindCategorical || col.Kind == profile.KindNumeric
}

// interval implements the shared behavior of numeric widgets.
type interval struct{}

func (interval) Validate(st State) error {
	r, ok := st.(Range)
	if !ok {
		return stateError("numeric", Range{}, st)
	}
	return r.validate()
}

func (interval) Matches(v table.Value, st State) bool {
	r, _ := st.(Range)
	if !v.Valid {
		return false
	}
	return (r.Min == nil || v.Num >= *r.Min) && (r.Max == nil || v.Num <= *r.Max)
}

// Expression renders the range as bounds. Float columns also exclude NaN,
// which DuckDB orders above every number.
func (interval) Expression(col profile.ColumnSpec, st State) filter.Expression {
	r, _ := st.(Range)
	var lo, hi filter.Expression
	if r.Min != nil {
		lo = filter.Double(*r.Min)
	}
	if r.Max != nil {
		hi = filter.Double(*r.Max)
	}
	bounds := boundsExpression(col.Name, lo, hi)
	if bounds == nil || !isFloatType(col.Type) {
		return bounds
	}
	return filter.And(bounds, filter.Not(filter.Function("isnan", filter.Column(col.Name))))
}

// NumericRange filters a numeric column to an inclusive interval.
type NumericRange struct{ interval }

func (NumericRange) Name() string { return NameRange }

func (NumericRange) Accepts(col profile.ColumnSpec) bool {
	return col.Kind == profile.KindNumeric
}

func (NumericRange) Render(_ profile.ColumnSpec, data *table.Column) Spec {
	lo, hi := numericBounds(data)
	return Spec{Min: lo, Max: hi}
}

// NumericSlider is a range slider. Step zero means 1 for integer
// columns and continuous otherwise.
type NumericSlider struct {
	interval
	Step float64
}

func (NumericSlider) Name() string { return NameSlider }

func (NumericSlider) Accepts(col profile.ColumnSpec) bool {
	return col.Kind == profile.KindNumeric
}

func (s NumericSlider) Render(col profile.ColumnSpec, data *table.Column) Spec {
	lo, hi := numericBounds(data)
	step := s.Step
	if step <= 0 && col.Type != nil && table.IsIntegerType(col.Type) {
		step = 1
	}
	return Spec{Min: lo, Max: hi, Step: step}
}

// DateRange filters a date or timestamp column to an inclusive period.
type DateRange struct{}

func (DateRange) Name() string { return NameDateRange }

func (DateRange) Accepts(col profile.ColumnSpec) bool {
	return col.Kind == profile.KindDatetime
}

func (DateRange) Render(_ profile.ColumnSpec, data *table.Column) Spec {
	start, end := timeBounds(data)
	return Spec{Start: start, End: end}
}

func (DateRange) Validate(st State) error {
	p, ok := st.(Period)
	if !ok {
		return stateError(NameDateRange, Period{}, st)
	}
	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return fmt.Errorf("%w: period starts %s after it ends %s", ErrInvalidState,
			p.From.Format(time.RFC3339), p.To.Format(time.RFC3339))
	}
	return nil
}

func (DateRange) Matches(v table.Value, st State) bool {
	p, _ := st.(Period)
	if !v.Valid {
		return false
	}
	return (p.From == nil || !v.Time.Before(*p.From)) && (p.To == nil || !v.Time.After(*p.To))
}

func (DateRange) Expression(col profile.ColumnSpec, st State) filter.Expression {
	p, _ := st.(Period)
	var lo, hi filter.Expression
	if p.From != nil {
		lo = filter.Timestamp(*p.From)
	}
	if p.To != nil {
		hi = filter.Timestamp(*p.To)
	}
	return boundsExpression(col.Name, lo, hi)
}

// GeometryBounds keeps rows whose geometry intersects a bounding box.
type GeometryBounds struct{}

func (GeometryBounds) Name() string { return NameBounds }

func (GeometryBounds) Accepts(col profile.ColumnSpec) bool {
	return col.Kind == profile.KindGeometry
}

func (GeometryBounds) Render(_ profile.ColumnSpec, data *table.Column) Spec {
	return Spec{Extent: geometryBounds(data)}
}

func (GeometryBounds) Validate(st State) error {
	e, ok := st.(Extent)
	if !ok {
		return stateError(NameBounds, Extent{}, st)
	}
	if b := e.Bound; b != nil && (b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y()) {
		return fmt.Errorf("%w: extent min %v exceeds max %v", ErrInvalidState, b.Min, b.Max)
	}
	return nil
}

func (GeometryBounds) Matches(v table.Value, st State) bool {
	e, _ := st.(Extent)
	if !v.Valid || v.Geom == nil || e.Bound == nil {
		return false
	}
	return v.Geom.Bound().Intersects(*e.Bound)
}

func (GeometryBounds) Expression(col profile.ColumnSpec, st State) filter.Expression {
	e, _ := st.(Extent)
	if e.Bound == nil {
		return nil
	}
	b := *e.Bound
	return filter.Function("ST_Intersects",
		filter.Column(col.Name),
		filter.Function("ST_MakeEnvelope",
			filter.Double(b.Min.X()), filter.Double(b.Min.Y()),
			filter.Double(b.Max.X()), filter.Double(b.Max.Y()),
		),
	)
}

func boundsExpression(column string, lo, hi filter.Expression) filter.Expression {
	col := filter.Column(column)
	switch {
	case lo != nil && hi != nil:
		return filter.Between(col, lo, hi)
	case lo != nil:
		return filter.Compare(filter.TypeCompareGreaterThanOrEqual, col, lo)
	case hi != nil:
		return filter.Compare(filter.TypeCompareLessThanOrEqual, col, hi)
	}
	return nil
}

// typedLiteral parses text, as produced by table.Column.Value, into a
// constant of the column's type. It returns nil when text is not a value of
// that type.
func typedLiteral(dt arrow.DataType, text string) filter.Expression {
	if dt == nil {
		return filter.String(text)
	}
	if d, ok := dt.(*arrow.DictionaryType); ok {
		dt = d.ValueType
	}

	switch {
	case table.IsIntegerType(dt):
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return filter.BigInt(n)
		}
		if u, err := strconv.ParseUint(text, 10, 64); err == nil {
			return filter.Double(float64(u))
		}
		return nil
	case table.IsNumericType(dt):
		if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) {
			return filter.Double(f)
		}
		return nil
	case dt.ID() == arrow.BOOL:
		if b, err := strconv.ParseBool(text); err == nil {
			return filter.Bool(b)
		}
		return nil
	case dt.ID() == arrow.DATE32 || dt.ID() == arrow.DATE64:
		if t, err := time.Parse(time.DateOnly, text); err == nil {
			return filter.Date(t)
		}
		return nil
	case dt.ID() == arrow.TIMESTAMP:
		if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
			return filter.Timestamp(t)
		}
		return nil
	}
	return filter.String(text)
}

func isFloatType(dt arrow.DataType) bool {
	if dt == nil {
		return false
	}
	switch dt.ID() {
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return true
	}
	return false
}

// distinctOptions returns the distinct non-null values of a column in
// natural order: numbers and times ascending, text lexicographically.
func distinctOptions(col profile.ColumnSpec, data *table.Column) []string {
	if data == nil {
		return nil
	}

	seen := make(map[string]table.Value)
	for i := range data.Len() {
		v := data.Value(i)
		if !v.Valid {
			continue
		}
		if _, ok := seen[v.Text]; !ok {
			seen[v.Text] = v
		}
	}

	values := make([]table.Value, 0, len(seen))
	for _, v := range seen {
		values = append(values, v)
	}
	slices.SortFunc(values, func(a, b table.Value) int {
		var c int
		switch col.Kind {
		case profile.KindNumeric:
			c = cmp.Compare(a.Num, b.Num)
		case profile.KindDatetime:
			c = a.Time.Compare(b.Time)
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.Text, b.Text)
	})

	options := make([]string, len(values))
	for i, v := range values {
		options[i] = v.Text
	}
	return options
}

func numericBounds(data *table.Column) (lo, hi *float64) {
	if data == nil {
		return nil, nil
	}
	for i := range data.Len() {
		v := data.Value(i)
		if !v.Valid || math.IsNaN(v.Num) {
			continue
		}
		if lo == nil {
			lo, hi = new(float64), new(float64)
			*lo, *hi = v.Num, v.Num
			continue
		}
		*lo = min(*lo, v.Num)
		*hi = max(*hi, v.Num)
	}
	return lo, hi
}

func timeBounds(data *table.Column) (start, end *time.Time) {
	if data == nil {
		return nil, nil
	}
	for i := range data.Len() {
		v := data.Value(i)
		if !v.Valid {
			continue
		}
		if start == nil {
			s, e := v.Time, v.Time
			start, end = &s, &e
			continue
		}
		if v.Time.Before(*start) {
			*start = v.Time
		}
		if v.Time.After(*end) {
			*end = v.Time
		}
	}
	return start, end
}

func geometryBounds(data *table.Column) *orb.Bound {
	if data == nil {
		return nil
	}
	var bound *orb.Bound
	for i := range data.Len() {
		v := data.Value(i)
		if !v.Valid || v.Geom == nil {
			continue
		}
		b := v.Geom.Bound()
		if bound == nil {
			bound = &b
			continue
		}
		*bound = bound.Union(b)
	}
	return bound
}
