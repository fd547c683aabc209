package adaptive_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	adaptive "github.com/hugr-lab/adaptive-filter"
	"github.com/hugr-lab/adaptive-filter/filter"
	"github.com/hugr-lab/adaptive-filter/internal/testutil"
	"github.com/hugr-lab/adaptive-filter/table"
	"github.com/hugr-lab/adaptive-filter/widget"
)

func quietConfig() adaptive.Config {
	return adaptive.Config{Logger: slog.New(slog.DiscardHandler)}
}

func newFilter(t *testing.T, tbl *table.Table, overrides adaptive.Overrides) *adaptive.Filter {
	t.Helper()
	f, err := adaptive.New(tbl, overrides, quietConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func TestNewRequiresTable(t *testing.T) {
	if _, err := adaptive.New(nil, nil, quietConfig()); !errors.Is(err, adaptive.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDayTimeScenario(t *testing.T) {
	tbl := testutil.DayTime.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, nil)

	if n := f.Index().Len(); n != 5 {
		t.Fatalf("expected all 5 rows by default, got %d", n)
	}

	if err := f.Set("day", widget.Selection{"Sun"}); err != nil {
		t.Fatalf("Set day failed: %v", err)
	}
	if n := f.Index().Len(); n != 3 {
		t.Errorf("expected 3 Sun rows, got %d", n)
	}

	if err := f.Set("time", widget.Selection{"Dinner"}); err != nil {
		t.Fatalf("Set time failed: %v", err)
	}
	if got := f.Index().RowIDs(); !slices.Equal(got, []int64{1, 2}) {
		t.Errorf("expected Sun dinners [1 2], got %v", got)
	}

	before := f.Recomputations()
	f.ResetAll()
	if f.Recomputations() != before+1 {
		t.Errorf("ResetAll must recompute exactly once, got %d runs", f.Recomputations()-before)
	}
	if n := f.Index().Len(); n != 5 {
		t.Errorf("expected 5 rows after reset, got %d", n)
	}
	if f.Recomputations() != before+1 {
		t.Error("reading after ResetAll must not recompute again")
	}
}

func TestFiveTipsCounts(t *testing.T) {
	tbl := testutil.FiveTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, nil)

	f.Set("day", widget.Selection{"Sun"})
	if n := f.Index().Len(); n != 4 {
		t.Errorf("expected 4 Sun rows, got %d", n)
	}
	f.Set("time", widget.Selection{"Dinner"})
	if n := f.Index().Len(); n != 3 {
		t.Errorf("expected 3 Sun dinners, got %d", n)
	}
}

func TestManyWritesOneRecomputation(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, nil)
	f.Index()

	f.Set("day", widget.Selection{"Sun"})
	f.Set("day", widget.Selection{"Sun", "Sat"})
	f.Set("tip", widget.AtLeast(3))
	f.Set("sex", widget.Selection{"Male"})
	if f.Recomputations() != 1 {
		t.Errorf("writes must not recompute, got %d runs", f.Recomputations())
	}

	f.Index()
	f.Index()
	if f.Recomputations() != 2 {
		t.Errorf("expected exactly one recomputation, got %d runs", f.Recomputations())
	}
}

func TestDisabledColumn(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, adaptive.Overrides{"total_bill": widget.Disable()})

	if _, ok := f.Widget("total_bill"); ok {
		t.Error("disabled column must have no widget")
	}
	if len(f.Widgets()) != 6 {
		t.Errorf("expected 6 widgets, got %d", len(f.Widgets()))
	}

	err := f.Set("total_bill", widget.Between(0, 1))
	if !errors.Is(err, adaptive.ErrNoWidget) {
		t.Errorf("expected ErrNoWidget, got %v", err)
	}
	if n := f.Index().Len(); n != 10 {
		t.Errorf("disabled column must not filter, got %d rows", n)
	}
}

func TestResetAllEqualsFreshFilter(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	overrides := adaptive.Overrides{
		"total_bill": widget.Disable(),
		"size":       widget.Replace(widget.CategoricalCheckbox{}),
	}
	f := newFilter(t, tbl, overrides)
	fresh := newFilter(t, tbl, overrides)

	f.Set("day", widget.Selection{"Sat"})
	f.Set("size", widget.Selection{"2"})
	f.Set("tip", widget.Between(2, 3.2))
	if f.Index().Equal(fresh.Index()) {
		t.Fatal("states should restrict the index")
	}

	f.ResetAll()
	if !f.Index().Equal(fresh.Index()) {
		t.Error("reset filter differs from fresh filter")
	}
	for _, spec := range f.Widgets() {
		if f.Get(spec.Column) != nil {
			t.Errorf("%s: expected default state after reset", spec.Column)
		}
	}
}

func TestSetInvalidState(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, nil)
	f.Index()

	if err := f.Set("day", widget.Between(1, 2)); !errors.Is(err, adaptive.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if err := f.Set("tip", widget.Between(3, 1)); !errors.Is(err, adaptive.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	f.Index()
	if f.Recomputations() != 1 {
		t.Errorf("rejected states must not invalidate, got %d runs", f.Recomputations())
	}
}

func TestProblems(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, adaptive.Overrides{
		"missing": widget.Disable(),
		"day":     widget.Replace(widget.NumericRange{}),
	})

	var unknown *adaptive.UnknownColumnError
	var cfgErr *widget.ConfigError
	for _, p := range f.Problems() {
		switch {
		case errors.As(p, &unknown):
		case errors.As(p, &cfgErr):
		default:
			t.Errorf("unexpected problem %v", p)
		}
	}
	if unknown == nil || unknown.Column != "missing" || !errors.Is(unknown, adaptive.ErrUnknownColumn) {
		t.Errorf("expected unknown column problem, got %v", f.Problems())
	}
	if cfgErr == nil || cfgErr.Column != "day" || !errors.Is(cfgErr, adaptive.ErrIncompatibleKind) {
		t.Errorf("expected incompatible kind problem, got %v", f.Problems())
	}
	if _, ok := f.Widget("day"); ok {
		t.Error("misconfigured column must be excluded")
	}
	if len(f.Widgets()) != 6 {
		t.Errorf("other columns must keep their widgets, got %d", len(f.Widgets()))
	}
}

func TestWidgetsOrderAndNamespace(t *testing.T) {
	tbl := testutil.FiveTips.Table(t, memory.DefaultAllocator)
	cfg := quietConfig()
	cfg.Namespace = "tips"
	f, err := adaptive.New(tbl, adaptive.Overrides{"day": widget.Relabel("Day of Week")}, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var columns []string
	for _, w := range f.Widgets() {
		columns = append(columns, w.Column)
	}
	want := []string{"total_bill", "tip", "sex", "smoker", "day", "time", "size"}
	if !slices.Equal(columns, want) {
		t.Errorf("expected schema order %v, got %v", want, columns)
	}

	day, _ := f.Widget("day")
	if day.InputID != "tips-filter_day" || day.Label != "Day of Week" {
		t.Errorf("unexpected day widget %+v", day)
	}
}

func TestOnChange(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, nil)

	notified := 0
	cancel := f.OnChange(func() {
		// observers may use the filter
		if len(f.Widgets()) == 0 {
			t.Error("observer sees no widgets")
		}
		notified++
	})
	f.Index()

	f.Set("day", widget.Selection{"Sun"})
	f.Set("time", widget.Selection{"Dinner"})
	if notified != 1 {
		t.Errorf("expected one notification before the next read, got %d", notified)
	}

	if n := f.Index().Len(); n != 2 {
		t.Errorf("expected 2 Sun dinners, got %d", n)
	}
	f.Set("time", nil)
	if notified != 2 {
		t.Errorf("expected a notification after the read, got %d", notified)
	}

	cancel()
	f.Index()
	f.Set("day", nil)
	if notified != 2 {
		t.Errorf("cancelled observer must not run, got %d", notified)
	}
}

func TestSetTableSameSchema(t *testing.T) {
	five := testutil.DayTime.Table(t, memory.DefaultAllocator)
	ten := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, five, nil)

	f.Set("day", widget.Selection{"Sun"})
	if n := f.Index().Len(); n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}

	if err := f.SetTable(ten); err != nil {
		t.Fatalf("SetTable failed: %v", err)
	}
	if sel, _ := f.Get("day").(widget.Selection); !slices.Equal(sel, []string{"Sun"}) {
		t.Errorf("state must survive a same-schema table change, got %v", f.Get("day"))
	}
	if n := f.Index().Len(); n != 4 {
		t.Errorf("expected 4 Sun rows in the new table, got %d", n)
	}
	day, _ := f.Widget("day")
	if !slices.Equal(day.Options, []string{"Fri", "Sat", "Sun", "Thu"}) {
		t.Errorf("expected options of the new table, got %v", day.Options)
	}
}

func TestSetTableSchemaChange(t *testing.T) {
	tips := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tips, nil)
	f.Set("day", widget.Selection{"Sun"})
	f.Set("tip", widget.AtLeast(3))

	other, err := table.ReadCSV(context.Background(), strings.NewReader("day,tip_pct\nSun,10.5\nSat,12\nSun,8\n"), memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	defer other.Release()

	if err := f.SetTable(other); err != nil {
		t.Fatalf("SetTable failed: %v", err)
	}
	if f.Get("tip") != nil {
		t.Error("state of a vanished column must be dropped")
	}
	if f.Get("day") == nil {
		t.Error("state of a kept column must survive")
	}
	if got := f.Index().Positions(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("expected Sun rows [0 2], got %v", got)
	}
	if _, ok := f.Widget("tip_pct"); !ok {
		t.Error("new column must get a widget")
	}
}

func TestSnapshotRestore(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, nil)
	f.Set("day", widget.Selection{"Sat", "Sun"})
	f.Set("tip", widget.Between(2, 3.6))

	data, err := f.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	g := newFilter(t, tbl, nil)
	g.Index()
	if err := g.Restore(data); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !g.Index().Equal(f.Index()) {
		t.Errorf("restored index %v differs from %v", g.Index().Positions(), f.Index().Positions())
	}
	if g.Recomputations() != 2 {
		t.Errorf("restore must be one change, got %d runs", g.Recomputations())
	}

	if err := g.Restore([]byte("garbage")); !errors.Is(err, adaptive.ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot, got %v", err)
	}

	disabled := newFilter(t, tbl, adaptive.Overrides{"day": widget.Disable()})
	if err := disabled.Restore(data); !errors.Is(err, adaptive.ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot for state without widget, got %v", err)
	}
	if disabled.Get("tip") != nil {
		t.Error("failed restore must leave states untouched")
	}
}

func TestWhereClause(t *testing.T) {
	tbl := testutil.TenTips.Table(t, memory.DefaultAllocator)
	f := newFilter(t, tbl, nil)

	if w := f.WhereClause(nil); w != "" {
		t.Errorf("expected empty clause, got %q", w)
	}

	f.Set("day", widget.Selection{"Sun"})
	f.Set("tip", widget.AtLeast(3))
	f.Set("time", widget.Selection{"Dinner"})

	want := `(tip >= 3) AND (NOT (isnan(tip))) AND (day IN ('Sun')) AND ("time" IN ('Dinner'))`
	if w := f.WhereClause(nil); w != want {
		t.Errorf("expected %q, got %q", want, w)
	}

	mapped := f.WhereClause(&filter.EncoderOptions{ColumnMapping: map[string]string{"time": "meal"}})
	if !strings.Contains(mapped, "meal IN ('Dinner')") {
		t.Errorf("expected mapped column, got %q", mapped)
	}
}

func TestFiltered(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := testutil.DayTime.Record(mem)
	tbl, err := table.New(rec)
	rec.Release()
	if err != nil {
		t.Fatalf("table.New failed: %v", err)
	}
	defer tbl.Release()

	cfg := quietConfig()
	cfg.Allocator = mem
	f, err := adaptive.New(tbl, nil, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.Set("time", widget.Selection{"Lunch"})

	out, err := f.Filtered(context.Background())
	if err != nil {
		t.Fatalf("Filtered failed: %v", err)
	}
	defer out.Release()

	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}
	if size := out.Column(6).(*array.Int64); size.Value(0) != 2 || size.Value(1) != 4 {
		t.Errorf("unexpected sizes %v", size)
	}
}
