package binding

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	domainerrors "github.com/reglet-dev/sqlbridge/domain/errors"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/reglet-dev/sqlbridge/hostrt"
	"github.com/reglet-dev/sqlbridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareOrder(t *testing.T) {
	rt := hostrt.New()
	engine := testutil.NewEngine()
	fn := newFunc(t, rt, "identity", identity)
	defer fn.DecRef()

	var order []string
	tag := func(name string) Middleware {
		return func(next Invoker) Invoker {
			return func(ctx context.Context, fn string, args []ports.Value) (entities.Cell, error) {
				order = append(order, name+":before")
				cell, err := next(ctx, fn, args)
				order = append(order, name+":after")
				return cell, err
			}
		}
	}

	_, err := Register(engine, rt, entities.NewFunctionSpec("f"), fn, WithMiddleware(tag("first"), tag("second")))
	require.NoError(t, err)

	rec := engine.Call("f", entities.IntegerCell(1))
	require.NoError(t, rec.Err)
	assert.Equal(t, []string{"first:before", "second:before", "second:after", "first:after"}, order)
}

func TestMiddlewareCanShortCircuit(t *testing.T) {
	rt := hostrt.New()
	engine := testutil.NewEngine()
	var called bool
	fn := newFunc(t, rt, "spy", func(_ context.Context, args []*hostrt.Object) (*hostrt.Object, error) {
		called = true
		return rt.None(), nil
	})
	defer fn.DecRef()

	cached := func(Invoker) Invoker {
		return func(context.Context, string, []ports.Value) (entities.Cell, error) {
			return entities.TextCell("cached"), nil
		}
	}
	_, err := Register(engine, rt, entities.NewFunctionSpec("f"), fn, WithMiddleware(cached))
	require.NoError(t, err)

	rec := engine.Call("f")
	require.NoError(t, rec.Err)
	assert.Equal(t, "cached", rec.Cell.Text())
	assert.False(t, called)
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := func(context.Context, string, []ports.Value) (entities.Cell, error) {
		panic("middleware bug")
	}

	cell, err := RecoveryMiddleware()(panicky)(context.Background(), "f", nil)
	assert.Equal(t, entities.CellNull, cell.Type())
	assert.ErrorIs(t, err, domainerrors.ErrCallableRaised)
	assert.ErrorContains(t, err, "middleware bug")
}

func TestRecoveryMiddleware_WrapsUserMiddleware(t *testing.T) {
	rt := hostrt.New()
	engine := testutil.NewEngine()
	fn := newFunc(t, rt, "identity", identity)
	defer fn.DecRef()

	broken := func(Invoker) Invoker {
		return func(context.Context, string, []ports.Value) (entities.Cell, error) {
			panic("broken middleware")
		}
	}
	_, err := Register(engine, rt, entities.NewFunctionSpec("f"), fn, WithMiddleware(broken))
	require.NoError(t, err)

	var rec *testutil.Recorder
	require.NotPanics(t, func() { rec = engine.Call("f") })
	requireExecErr(t, rec, domainerrors.CallableRaised)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rt := hostrt.New(hostrt.WithLogger(logger))
	engine := testutil.NewEngine()
	fn := newFunc(t, rt, "identity", identity)
	defer fn.DecRef()

	_, err := Register(engine, rt, entities.NewFunctionSpec("echo"), fn,
		WithLogger(logger), WithMiddleware(LoggingMiddleware(logger)))
	require.NoError(t, err)

	engine.Call("echo", entities.IntegerCell(1))
	assert.Contains(t, buf.String(), `"msg":"binding: function completed"`)
	assert.Contains(t, buf.String(), `"result":{"type":"INTEGER","value":1}`)

	buf.Reset()
	engine.Call("echo")
	out := buf.String()
	assert.Contains(t, out, `"msg":"binding: function failed"`)
	assert.Contains(t, out, `"code":"callable_raised"`)
	assert.Contains(t, out, `"msg":"hostrt: unhandled error"`)
	assert.Contains(t, out, `"function":"echo"`)
}

func TestLoggingMiddleware_NilLogger(t *testing.T) {
	mw := LoggingMiddleware(nil)
	cell, err := mw(func(context.Context, string, []ports.Value) (entities.Cell, error) {
		return entities.IntegerCell(3), nil
	})(context.Background(), "f", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cell.Int64())
}
