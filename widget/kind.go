package widget

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/adaptive-filter/filter"
	"github.com/hugr-lab/adaptive-filter/internal/recovery"
	"github.com/hugr-lab/adaptive-filter/profile"
	"github.com/hugr-lab/adaptive-filter/table"
)

var (
	// ErrIncompatibleKind indicates an override names a kind that cannot filter the column.
	ErrIncompatibleKind = errors.New("filter kind incompatible with column")

	// ErrUnknownKind indicates a kind name that is not registered.
	ErrUnknownKind = errors.New("unknown filter kind")

	// ErrInvalidState indicates a state of the wrong shape for a widget.
	ErrInvalidState = errors.New("invalid widget state")
)

// Kind is a filter widget type: it renders a widget for a column and
// decides which rows a widget state admits.
type Kind interface {
	// Name is the registry name of the kind.
	Name() string

	// Accepts reports whether the kind can filter the column.
	Accepts(col profile.ColumnSpec) bool

	// Render builds the widget's data fields from the column contents.
	// data may be nil when no rows are available.
	Render(col profile.ColumnSpec, data *table.Column) Spec

	// Validate checks that st has the shape this kind understands.
	// A nil state is always valid.
	Validate(st State) error

	// Matches reports whether a cell passes a non-default state.
	Matches(v table.Value, st State) bool
}

// SetMatcher is implemented by kinds whose states are sets of categorical
// values. Rows match when their Text is one of Values.
type SetMatcher interface {
	Kind
	Values(st State) []string
}

// Expresser is implemented by kinds that can state their filter in SQL.
// The expression must select the same rows as Matches; col carries the
// Arrow type so literals can be typed like the column.
type Expresser interface {
	Expression(col profile.ColumnSpec, st State) filter.Expression
}

// Spec describes one rendered widget.
type Spec struct {
	// InputID identifies the widget towards the host UI.
	InputID string
	Column  string
	Label   string

	// Kind evaluates the widget; KindName is its registry name.
	Kind     Kind `msgpack:"-" json:"-" yaml:"-"`
	KindName string

	// Options lists the choices of categorical widgets.
	Options  []string
	Multiple bool

	// Min and Max bound numeric widgets; Step is the slider increment.
	Min  *float64
	Max  *float64
	Step float64

	// Start and End bound date widgets.
	Start *time.Time
	End   *time.Time

	// Extent bounds geometry widgets.
	Extent *orb.Bound
}

// ConfigError reports a widget that could not be configured for a column.
// The column is excluded from filtering.
type ConfigError struct {
	Column string
	Kind   string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("column %s: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("column %s: filter %s: %v", e.Column, e.Kind, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InputID returns the host-facing id of a column widget.
func InputID(namespace, column string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + "-filter_" + column
}

// DefaultNamespace prefixes widget input ids when none is configured.
const DefaultNamespace = "adaptive"

// Check validates st against k, converting a panic into an error.
func Check(k Kind, st State) error {
	if st == nil {
		return nil
	}
	return recovery.RecoverToError(nil, k.Name()+".Validate", func() error {
		return k.Validate(st)
	})
}

func stateError(kind string, want, got State) error {
	return fmt.Errorf("%w: %s filter expects %T, got %T", ErrInvalidState, kind, want, got)
}
