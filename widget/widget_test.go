package widget_test

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/adaptive-filter/filter"
	"github.com/hugr-lab/adaptive-filter/internal/testutil"
	"github.com/hugr-lab/adaptive-filter/profile"
	"github.com/hugr-lab/adaptive-filter/table"
	"github.com/hugr-lab/adaptive-filter/widget"
)

func resolveAll(t *testing.T, tbl *table.Table, overrides map[string]widget.Override) (map[string]*widget.Spec, map[string]error) {
	t.Helper()
	p, _ := profile.Infer(tbl, profile.Options{})
	reg := widget.NewRegistry()

	specs := make(map[string]*widget.Spec)
	errs := make(map[string]error)
	for _, col := range p.Columns {
		data, _ := tbl.Column(col.Name)
		spec, err := reg.Resolve(col, overrides[col.Name], data)
		if err != nil {
			errs[col.Name] = err
			continue
		}
		specs[col.Name] = spec
	}
	return specs, errs
}

func TestResolveDefaults(t *testing.T) {
	tbl := testutil.FiveTips.Table(t, memory.DefaultAllocator)
	specs, errs := resolveAll(t, tbl, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := map[string]string{
		"total_bill": widget.NameRange,
		"tip":        widget.NameRange,
		"sex":        widget.NameSelect,
		"smoker":     widget.NameSelect,
		"day":        widget.NameSelect,
		"time":       widget.NameSelect,
		"size":       widget.NameRange,
	}
	for col, kind := range want {
		spec := specs[col]
		if spec == nil {
			t.Errorf("%s: no widget", col)
			continue
		}
		if spec.KindName != kind {
			t.Errorf("%s: expected %s, got %s", col, kind, spec.KindName)
		}
		if spec.Label != col {
			t.Errorf("%s: expected default label, got %q", col, spec.Label)
		}
		if spec.InputID != "adaptive-filter_"+col {
			t.Errorf("%s: unexpected input id %q", col, spec.InputID)
		}
	}

	if got := specs["day"].Options; !slices.Equal(got, []string{"Fri", "Sun"}) {
		t.Errorf("unexpected day options: %v", got)
	}
	if s := specs["size"]; s.Min == nil || *s.Min != 2 || *s.Max != 4 {
		t.Errorf("unexpected size bounds: %v..%v", s.Min, s.Max)
	}
}

func TestResolveOverrides(t *testing.T) {
	tbl := testutil.FiveTips.Table(t, memory.DefaultAllocator)
	specs, errs := resolveAll(t, tbl, map[string]widget.Override{
		"total_bill": widget.Disable(),
		"day":        widget.Relabel("Day of Week"),
		"size":       widget.Replace(widget.CategoricalCheckbox{}).WithLabel("Party Size"),
		"tip":        widget.UseDefault(),
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if _, ok := specs["total_bill"]; ok {
		t.Error("disabled column must have no widget")
	}
	if specs["day"].Label != "Day of Week" || specs["day"].KindName != widget.NameSelect {
		t.Errorf("unexpected day widget: %+v", specs["day"])
	}
	size := specs["size"]
	if size.KindName != widget.NameCheckbox || size.Label != "Party Size" {
		t.Errorf("unexpected size widget: %+v", size)
	}
	// numeric options sort numerically
	if !slices.Equal(size.Options, []string{"2", "3", "4"}) {
		t.Errorf("unexpected size options: %v", size.Options)
	}
	if specs["tip"].KindName != widget.NameRange {
		t.Errorf("expected default kind for tip, got %s", specs["tip"].KindName)
	}
}

func TestResolveIncompatibleKind(t *testing.T) {
	reg := widget.NewRegistry()
	col := profile.ColumnSpec{Name: "day", Kind: profile.KindCategorical}

	spec, err := reg.Resolve(col, widget.Replace(widget.NumericRange{}), nil)
	if spec != nil {
		t.Error("expected no widget for incompatible override")
	}
	var cfgErr *widget.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Column != "day" || cfgErr.Kind != widget.NameRange {
		t.Fatalf("expected ConfigError for day, got %v", err)
	}
	if !errors.Is(err, widget.ErrIncompatibleKind) {
		t.Errorf("expected ErrIncompatibleKind, got %v", err)
	}
}

type panicKind struct{ widget.CategoricalSelect }

func (panicKind) Name() string { return "panicky" }

func (panicKind) Render(profile.ColumnSpec, *table.Column) widget.Spec {
	panic("render failed")
}

func TestResolveRecoversPanics(t *testing.T) {
	reg := widget.NewRegistry()
	col := profile.ColumnSpec{Name: "day", Kind: profile.KindCategorical}

	_, err := reg.Resolve(col, widget.Replace(panicKind{}), nil)
	var cfgErr *widget.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != "panicky" {
		t.Fatalf("expected ConfigError from panicking kind, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := widget.NewRegistry()

	if _, err := reg.Lookup("radio", nil); !errors.Is(err, widget.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if err := reg.SetDefault(profile.KindNumeric, "radio"); !errors.Is(err, widget.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}

	k, err := reg.Lookup(widget.NameSlider, map[string]any{"step": 0.5})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if s, ok := k.(widget.NumericSlider); !ok || s.Step != 0.5 {
		t.Errorf("unexpected slider: %#v", k)
	}
	if _, err := reg.Lookup(widget.NameSlider, map[string]any{"step": "wide"}); err == nil {
		t.Error("expected error for non-numeric step")
	}

	if err := reg.SetDefault(profile.KindNumeric, widget.NameSlider); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	d, _ := reg.Default(profile.KindNumeric)
	if d.Name() != widget.NameSlider {
		t.Errorf("expected slider default, got %s", d.Name())
	}

	reg.Register("radio", func(map[string]any) (widget.Kind, error) { return widget.CategoricalCheckbox{}, nil })
	if !slices.Contains(reg.Names(), "radio") {
		t.Errorf("registered kind missing from %v", reg.Names())
	}
}

func TestSliderIntegerStep(t *testing.T) {
	k := widget.NumericSlider{}
	spec := k.Render(profile.ColumnSpec{Name: "size", Kind: profile.KindNumeric, Type: arrow.PrimitiveTypes.Int64}, nil)
	if spec.Step != 1 {
		t.Errorf("expected step 1 for integer column, got %g", spec.Step)
	}
	spec = k.Render(profile.ColumnSpec{Name: "tip", Kind: profile.KindNumeric, Type: arrow.PrimitiveTypes.Float64}, nil)
	if spec.Step != 0 {
		t.Errorf("expected continuous slider, got step %g", spec.Step)
	}
}

func TestRangeBoundsSkipNaN(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	schema := arrow.NewSchema([]arrow.Field{{Name: "tip", Type: arrow.PrimitiveTypes.Float64}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{2, math.NaN(), 5}, nil)
	rec := b.NewRecordBatch()
	b.Release()

	tbl, err := table.New(rec)
	rec.Release()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer tbl.Release()

	data, _ := tbl.Column("tip")
	spec := widget.NumericRange{}.Render(profile.ColumnSpec{Name: "tip", Kind: profile.KindNumeric, Type: arrow.PrimitiveTypes.Float64}, data)
	if spec.Min == nil || spec.Max == nil || *spec.Min != 2 || *spec.Max != 5 {
		t.Errorf("expected domain [2, 5], got %v..%v", spec.Min, spec.Max)
	}
}

func TestMatches(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	square := orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}

	tests := []struct {
		name  string
		kind  widget.Kind
		value table.Value
		state widget.State
		want  bool
	}{
		{"select hit", widget.CategoricalSelect{}, table.Value{Valid: true, Text: "Sun"}, widget.Selection{"Sat", "Sun"}, true},
		{"select miss", widget.CategoricalSelect{}, table.Value{Valid: true, Text: "Fri"}, widget.Selection{"Sun"}, false},
		{"select null", widget.CategoricalSelect{}, table.Value{}, widget.Selection{"Sun"}, false},
		{"range inside", widget.NumericRange{}, table.Value{Valid: true, Num: 2}, widget.Between(1, 3), true},
		{"range inclusive", widget.NumericRange{}, table.Value{Valid: true, Num: 3}, widget.Between(1, 3), true},
		{"range outside", widget.NumericRange{}, table.Value{Valid: true, Num: 3.5}, widget.Between(1, 3), false},
		{"range open max", widget.NumericRange{}, table.Value{Valid: true, Num: 100}, widget.AtLeast(1), true},
		{"range null", widget.NumericRange{}, table.Value{}, widget.AtMost(1), false},
		{"range NaN", widget.NumericRange{}, table.Value{Valid: true, Num: math.NaN()}, widget.AtLeast(1), false},
		{"period inside", widget.DateRange{}, table.Value{Valid: true, Time: day}, widget.During(day.AddDate(0, 0, -1), day), true},
		{"period outside", widget.DateRange{}, table.Value{Valid: true, Time: day}, widget.During(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)), false},
		{"bounds hit", widget.GeometryBounds{}, table.Value{Valid: true, Geom: square}, widget.Within(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{5, 5}}), true},
		{"bounds miss", widget.GeometryBounds{}, table.Value{Valid: true, Geom: square}, widget.Within(orb.Bound{Min: orb.Point{3, 3}, Max: orb.Point{5, 5}}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Matches(tt.value, tt.state); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		kind  widget.Kind
		state widget.State
		ok    bool
	}{
		{"nil", widget.NumericRange{}, nil, true},
		{"selection", widget.CategoricalSelect{}, widget.Selection{"a"}, true},
		{"wrong shape", widget.CategoricalSelect{}, widget.Between(1, 2), false},
		{"inverted range", widget.NumericRange{}, widget.Between(3, 1), false},
		{"inverted period", widget.DateRange{}, widget.During(time.Unix(10, 0), time.Unix(0, 0)), false},
		{"inverted extent", widget.GeometryBounds{}, widget.Within(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{0, 0}}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := widget.Check(tt.kind, tt.state)
			if (err == nil) != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, err)
			}
			if err != nil && !errors.Is(err, widget.ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		})
	}
}

func TestExpressions(t *testing.T) {
	enc := filter.NewDuckDBEncoder(nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	text := profile.ColumnSpec{Name: "day", Kind: profile.KindCategorical, Type: arrow.BinaryTypes.String}
	float := profile.ColumnSpec{Name: "tip", Kind: profile.KindNumeric, Type: arrow.PrimitiveTypes.Float64}
	integer := profile.ColumnSpec{Name: "size", Kind: profile.KindNumeric, Type: arrow.PrimitiveTypes.Int64}
	flag := profile.ColumnSpec{Name: "smoker", Kind: profile.KindCategorical, Type: arrow.FixedWidthTypes.Boolean}
	date := profile.ColumnSpec{Name: "day_of", Kind: profile.KindDatetime, Type: arrow.FixedWidthTypes.Date32}
	stamp := profile.ColumnSpec{Name: "ts", Kind: profile.KindDatetime, Type: &arrow.TimestampType{Unit: arrow.Microsecond}}
	geom := profile.ColumnSpec{Name: "geom", Kind: profile.KindGeometry, Type: arrow.BinaryTypes.Binary}

	tests := []struct {
		name string
		kind widget.Expresser
		col  profile.ColumnSpec
		st   widget.State
		want string
	}{
		{"selection", widget.CategoricalSelect{}, text, widget.Selection{"Sun", "Sat"}, "day IN ('Sun', 'Sat')"},
		{"empty selection", widget.CategoricalCheckbox{}, text, widget.Selection{}, ""},
		{"integer selection", widget.CategoricalCheckbox{}, integer, widget.Selection{"2", "4"}, "size IN (2, 4)"},
		{"float selection", widget.CategoricalSelect{}, float, widget.Selection{"3.5"}, "tip IN (3.5)"},
		{"bool selection", widget.CategoricalSelect{}, flag, widget.Selection{"true"}, "smoker IN (TRUE)"},
		{"date selection", widget.CategoricalSelect{}, date, widget.Selection{"2024-01-02"}, "day_of IN (DATE '2024-01-02')"},
		{"timestamp selection", widget.CategoricalSelect{}, stamp, widget.Selection{"2024-01-01T10:00:00.1Z"}, "ts IN (TIMESTAMP '2024-01-01 10:00:00.100000')"},
		{"foreign values", widget.CategoricalCheckbox{}, integer, widget.Selection{"two"}, "FALSE"},
		{"closed integer range", widget.NumericRange{}, integer, widget.Between(1, 2.5), "size BETWEEN 1 AND 2.5"},
		{"closed float range", widget.NumericRange{}, float, widget.Between(1, 2.5), "(tip BETWEEN 1 AND 2.5 AND NOT (isnan(tip)))"},
		{"open range", widget.NumericSlider{}, integer, widget.AtLeast(2), "size >= 2"},
		{"period", widget.DateRange{}, stamp, widget.During(from, to), "ts BETWEEN TIMESTAMP '2024-01-01 00:00:00' AND TIMESTAMP '2024-01-31 00:00:00'"},
		{"extent", widget.GeometryBounds{}, geom, widget.Within(orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{2, 3}}), "ST_Intersects(geom, ST_MakeEnvelope(0, 1, 2, 3))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enc.Encode(tt.kind.Expression(tt.col, tt.st)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
