package adaptive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/google/uuid"

	"github.com/hugr-lab/adaptive-filter/combine"
	"github.com/hugr-lab/adaptive-filter/filter"
	"github.com/hugr-lab/adaptive-filter/internal/recovery"
	"github.com/hugr-lab/adaptive-filter/profile"
	"github.com/hugr-lab/adaptive-filter/reactive"
	"github.com/hugr-lab/adaptive-filter/state"
	"github.com/hugr-lab/adaptive-filter/table"
	"github.com/hugr-lab/adaptive-filter/widget"
)

// Filter is an adaptive filter session over one table.
//
// It owns one widget per filterable column and the widgets' states, and
// exposes the rows passing every active widget as a memoized index. Any
// number of state changes cause at most one recomputation, on the next
// read of Index.
//
// Filter is safe for concurrent use; events are serialized. The table is
// borrowed: the caller keeps it alive until it is replaced or the filter
// is discarded.
type Filter struct {
	mu sync.Mutex

	id        string
	cfg       Config
	logger    *slog.Logger
	overrides Overrides

	tbl      *table.Table
	profile  *profile.Profile
	warnings []error
	problems []error
	specs    []widget.Spec
	byColumn map[string]int

	store        *state.Store
	tableChanged reactive.Trigger
	combiner     *combine.Combiner
	index        *reactive.Calc[*combine.ResultIndex]

	pending   bool
	observers []observer
	nextObs   int
}

type observer struct {
	id int
	fn func()
}

// New creates a filter over tbl. Columns listed in overrides get the
// overridden widget; problems with individual columns are reported by
// Problems and never fail construction.
//
// Example:
//
//	f, err := adaptive.New(tbl, adaptive.Overrides{
//	    "total_bill": widget.Disable(),
//	}, adaptive.Config{})
//	...
//	f.Set("day", widget.Selection{"Sun"})
//	rows := f.Index().RowIDs()
func New(tbl *table.Table, overrides Overrides, cfg Config) (*Filter, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: table cannot be nil", ErrInvalidConfig)
	}

	cfg = cfg.withDefaults()
	f := &Filter{
		id:        uuid.NewString(),
		cfg:       cfg,
		overrides: overrides,
		tbl:       tbl,
		store:     state.New(),
	}
	f.logger = cfg.Logger.With("filter_id", f.id)
	f.combiner = combine.New(f.logger)

	f.profileTable()
	f.resolveWidgets()

	f.index = reactive.NewCalc(f.computeIndex, f.store.Changed(), &f.tableChanged)
	f.index.Subscribe(func() { f.pending = true })

	f.logger.Info("Adaptive filter created",
		"rows", tbl.NumRows(),
		"columns", len(f.profile.Columns),
		"widgets", len(f.specs),
		"problems", len(f.problems),
	)
	return f, nil
}

// ID returns the session id used in log records.
func (f *Filter) ID() string {
	return f.id
}

// Table returns the current table.
func (f *Filter) Table() *table.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tbl
}

// Widgets returns the widget specs in schema order.
func (f *Filter) Widgets() []widget.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]widget.Spec(nil), f.specs...)
}

// Widget returns the widget spec of column.
func (f *Filter) Widget(column string) (widget.Spec, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.byColumn[column]
	if !ok {
		return widget.Spec{}, false
	}
	return f.specs[i], true
}

// Profile returns the column profile of the current table.
func (f *Filter) Profile() *profile.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile
}

// Problems returns the non-fatal configuration problems: *widget.ConfigError
// for excluded columns, *UnknownColumnError for ignored overrides and
// *profile.AmbiguityError for guessed column kinds.
func (f *Filter) Problems() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.problems...)
}

// Index returns the rows passing every active widget.
func (f *Filter) Index() *combine.ResultIndex {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index.Get()
}

// Recomputations returns how many times the index has been computed.
func (f *Filter) Recomputations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index.Runs()
}

// Get returns the state of column's widget; nil means no restriction.
func (f *Filter) Get(column string) widget.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store.Get(column)
}

// Set changes the state of column's widget. A nil or default state clears it.
func (f *Filter) Set(column string, st widget.State) error {
	return f.event(func() error {
		i, ok := f.byColumn[column]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoWidget, column)
		}
		if err := checkState(f.specs[i], st); err != nil {
			return err
		}
		f.store.Set(column, st)
		return nil
	})
}

// ResetAll returns every widget to its default state and recomputes the
// index once. The result equals that of a freshly created filter.
func (f *Filter) ResetAll() {
	_ = f.event(func() error {
		f.store.ResetAll()
		idx := f.index.Get()
		f.logger.Debug("Filters reset", "rows", idx.Len())
		return nil
	})
}

// SetTable replaces the table. When the schema changed, columns are
// profiled and widgets resolved again, and states of columns that lost
// their widget are dropped; otherwise only widget options are rendered
// again. The index is always invalidated.
func (f *Filter) SetTable(tbl *table.Table) error {
	if tbl == nil {
		return fmt.Errorf("%w: table cannot be nil", ErrInvalidConfig)
	}
	return f.event(func() error {
		schemaChanged := !tbl.Schema().Equal(f.tbl.Schema())
		f.tbl = tbl
		if schemaChanged {
			f.profileTable()
		}
		f.resolveWidgets()

		dropped := f.store.Prune(func(column string, st widget.State) bool {
			i, ok := f.byColumn[column]
			return ok && checkState(f.specs[i], st) == nil
		})
		f.tableChanged.Fire()

		f.logger.Info("Table replaced",
			"rows", tbl.NumRows(),
			"schema_changed", schemaChanged,
			"dropped_states", dropped,
		)
		return nil
	})
}

// OnChange registers fn to run whenever the index becomes stale.
// Many changes between two reads of Index notify once. fn runs after the
// triggering call has released the filter, so it may read the filter.
// The returned function removes the observer.
func (f *Filter) OnChange(fn func()) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextObs++
	id := f.nextObs
	f.observers = append(f.observers, observer{id: id, fn: fn})
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, o := range f.observers {
			if o.id == id {
				f.observers = append(f.observers[:i], f.observers[i+1:]...)
				return
			}
		}
	}
}

// WhereClause returns the active states as the body of a DuckDB WHERE
// clause, or "" when nothing is filtered. Widgets whose kind has no SQL
// form are skipped, so the clause may select a superset of Index.
func (f *Filter) WhereClause(opts *filter.EncoderOptions) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var exprs []filter.Expression
	for _, spec := range f.specs {
		st := f.store.Get(spec.Column)
		if st == nil || st.IsDefault() {
			continue
		}
		e, ok := spec.Kind.(widget.Expresser)
		if !ok {
			continue
		}
		col, ok := f.profile.Column(spec.Column)
		if !ok {
			continue
		}
		switch expr := e.Expression(col, st).(type) {
		case nil:
		case *filter.ConjunctionExpression:
			if expr.Type() == filter.TypeConjunctionAnd {
				exprs = append(exprs, expr.Children...)
			} else {
				exprs = append(exprs, expr)
			}
		default:
			exprs = append(exprs, expr)
		}
	}
	return filter.NewDuckDBEncoder(opts).EncodeFilters(exprs)
}

// Filtered returns the rows of the current table passing every active widget.
// The caller must Release the result.
func (f *Filter) Filtered(ctx context.Context) (arrow.RecordBatch, error) {
	f.mu.Lock()
	idx, tbl := f.index.Get(), f.tbl
	f.mu.Unlock()

	return idx.Apply(compute.WithAllocator(ctx, f.cfg.Allocator), tbl)
}

// event runs fn under the lock, then notifies observers if the index
// went stale.
func (f *Filter) event(fn func() error) error {
	f.mu.Lock()
	err := fn()
	var notify []observer
	if f.pending {
		f.pending = false
		notify = append(notify, f.observers...)
	}
	f.mu.Unlock()

	for _, o := range notify {
		recovery.Recover(f.logger, "OnChange", o.fn)
	}
	return err
}

func (f *Filter) computeIndex() *combine.ResultIndex {
	idx := f.combiner.Combine(f.tbl, f.store, f.specs)
	f.logger.Debug("Filter index computed",
		"matched", idx.Len(),
		"rows", f.tbl.NumRows(),
		"active", f.store.Len(),
	)
	return idx
}

// profileTable classifies the columns of the current table and records
// overrides that name unknown columns.
func (f *Filter) profileTable() {
	p, warnings := profile.Infer(f.tbl, profile.Options{MaxCategories: f.cfg.MaxCategories})
	f.profile = p

	for column := range f.overrides {
		if _, ok := p.Column(column); !ok {
			warnings = append(warnings, &UnknownColumnError{Column: column})
		}
	}
	f.warnings = warnings
}

// resolveWidgets builds one widget per non-disabled column.
func (f *Filter) resolveWidgets() {
	f.specs = nil
	f.byColumn = make(map[string]int)
	f.problems = append([]error(nil), f.warnings...)

	for _, col := range f.profile.Columns {
		data, _ := f.tbl.Column(col.Name)
		spec, err := f.cfg.Registry.Resolve(col, f.overrides[col.Name], data)
		if err != nil {
			f.problems = append(f.problems, err)
			continue
		}
		if spec == nil {
			continue
		}
		spec.InputID = widget.InputID(f.cfg.Namespace, col.Name)
		f.byColumn[col.Name] = len(f.specs)
		f.specs = append(f.specs, *spec)
	}

	for _, p := range f.problems {
		f.logger.Warn("Filter configuration problem", "error", p)
	}
}

func checkState(spec widget.Spec, st widget.State) error {
	if st == nil || st.IsDefault() {
		return nil
	}
	err := widget.Check(spec.Kind, st)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidState) {
		return fmt.Errorf("column %s: %w", spec.Column, err)
	}
	return fmt.Errorf("column %s: %w: %v", spec.Column, ErrInvalidState, err)
}
