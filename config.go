package adaptive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/adaptive-filter/profile"
	"github.com/hugr-lab/adaptive-filter/widget"
)

// Config contains configuration for an adaptive filter.
type Config struct {
	// Registry resolves widget kinds for columns and overrides.
	// OPTIONAL: Uses widget.NewRegistry() if nil.
	Registry *widget.Registry

	// Allocator for Arrow memory used when materializing filtered rows.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// Note: If LogLevel is specified, a new logger will be created with that level.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: If nil, uses Info level.
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level

	// Namespace prefixes widget input ids ("<namespace>-filter_<column>").
	// OPTIONAL: Uses "adaptive" if empty.
	Namespace string

	// MaxCategories reports text columns with more distinct values as
	// ambiguous. They still get a categorical widget.
	// OPTIONAL: If 0, no limit.
	MaxCategories int
}

func (c Config) withDefaults() Config {
	if c.Registry == nil {
		c.Registry = widget.NewRegistry()
	}
	if c.Allocator == nil {
		c.Allocator = memory.DefaultAllocator
	}
	if c.Logger == nil {
		if c.LogLevel != nil {
			c.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: *c.LogLevel,
			}))
		} else {
			c.Logger = slog.Default()
		}
	}
	if c.Namespace == "" {
		c.Namespace = widget.DefaultNamespace
	}
	return c
}

// Overrides maps column names to widget overrides.
// Columns without an entry keep their default widget.
type Overrides map[string]widget.Override

// Standard errors returned by the adaptive package.
var (
	// ErrInvalidConfig indicates the filter could not be configured at all.
	ErrInvalidConfig = errors.New("invalid filter config")

	// ErrUnknownColumn indicates an override names a column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoWidget indicates a state was addressed to a column without widget.
	ErrNoWidget = errors.New("column has no filter widget")

	// ErrInvalidSnapshot indicates a state snapshot that cannot be restored.
	ErrInvalidSnapshot = errors.New("invalid state snapshot")

	// ErrIncompatibleKind indicates an override kind that cannot filter its column.
	ErrIncompatibleKind = widget.ErrIncompatibleKind

	// ErrInvalidState indicates a state of the wrong shape for its widget.
	ErrInvalidState = widget.ErrInvalidState

	// ErrAmbiguousColumn indicates a column whose kind was guessed.
	ErrAmbiguousColumn = profile.ErrAmbiguousColumn
)

// UnknownColumnError reports an override for a column that is not in the table.
// The override is ignored.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("override for column %s: %v", e.Column, ErrUnknownColumn)
}

func (e *UnknownColumnError) Unwrap() error {
	return ErrUnknownColumn
}
