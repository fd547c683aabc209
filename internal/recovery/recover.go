// Package recovery isolates panics raised by user-provided filter kinds.
// A misbehaving kind must never take down the host that embeds the engine.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ErrPanic is wrapped by every error produced from a recovered panic.
var ErrPanic = errors.New("panic recovered")

// RecoverToError wraps a function call with panic recovery.
// If the function panics, the panic is converted to an error wrapping ErrPanic.
// A nil logger disables logging.
//
// Example:
//
//	err := recovery.RecoverToError(logger, "Validate", func() error {
//	    return kind.Validate(st)
//	})
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
			err = fmt.Errorf("%s: %w: %v", operation, ErrPanic, r)
		}
	}()

	return fn()
}

// RecoverToValue wraps a function that returns a value and error.
// If the function panics, returns zero value and an error wrapping ErrPanic.
//
// Example:
//
//	spec, err := recovery.RecoverToValue(logger, "Render", func() (widget.Spec, error) {
//	    return kind.Render(col, data), nil
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)

			var zero T
			result = zero
			err = fmt.Errorf("%s: %w: %v", operation, ErrPanic, r)
		}
	}()

	return fn()
}

// Recover wraps a void function with panic recovery.
// Logs the panic but doesn't return an error.
// Use for observer callbacks where errors can't be returned.
func Recover(logger *slog.Logger, operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
		}
	}()

	fn()
}

func logPanic(logger *slog.Logger, operation string, r any) {
	if logger == nil {
		return
	}
	logger.Error("Panic recovered",
		"operation", operation,
		"panic", r,
		"stack", string(debug.Stack()),
	)
}
