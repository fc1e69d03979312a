package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	domainerrors "github.com/reglet-dev/sqlbridge/domain/errors"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/reglet-dev/sqlbridge/log"
)

// Invoker runs one SQL call of the named function and returns its result cell.
type Invoker func(ctx context.Context, name string, args []ports.Value) (entities.Cell, error)

// Middleware is a function that wraps an Invoker to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next binding.Invoker) binding.Invoker {
//	    return func(ctx context.Context, name string, args []ports.Value) (entities.Cell, error) {
//	        start := time.Now()
//	        defer func() { slog.Debug("call", "function", name, "took", time.Since(start)) }()
//	        return next(ctx, name, args)
//	    }
//	}
type Middleware func(next Invoker) Invoker

// RecoveryMiddleware returns a middleware that turns a panic into a
// CallableRaised execution error instead of unwinding into the engine.
// Register always installs it outermost.
func RecoveryMiddleware() Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, name string, args []ports.Value) (cell entities.Cell, err error) {
			defer func() {
				if r := recover(); r != nil {
					cell = entities.Cell{}
					err = panicError(name, r)
				}
			}()
			return next(ctx, name, args)
		}
	}
}

// LoggingMiddleware returns a middleware that logs every call at debug level
// and every failed call at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Invoker) Invoker {
		return func(ctx context.Context, name string, args []ports.Value) (entities.Cell, error) {
			logger.DebugContext(ctx, "binding: invoking function", "function", name, "args", len(args))
			cell, err := next(ctx, name, args)
			if err != nil {
				attrs := []any{"function", name, log.Error(err)}
				var execErr *domainerrors.ExecutionError
				if errors.As(err, &execErr) && execErr.Kind == domainerrors.ArgumentConversion {
					attrs = append(attrs, "arg", execErr.Arg)
				}
				logger.WarnContext(ctx, "binding: function failed", attrs...)
				return cell, err
			}
			logger.DebugContext(ctx, "binding: function completed", "function", name, log.Cell("result", cell))
			return cell, nil
		}
	}
}

func chain(core Invoker, mw []Middleware) Invoker {
	wrapped := core
	// Apply middleware in reverse order so first middleware wraps outermost
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](wrapped)
	}
	return wrapped
}

func panicError(name string, r any) error {
	return &domainerrors.ExecutionError{
		Function: name,
		Kind:     domainerrors.CallableRaised,
		Arg:      -1,
		Err:      fmt.Errorf("panic: %v", r),
	}
}
