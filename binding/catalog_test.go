package binding

import (
	"errors"
	"testing"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	domainerrors "github.com/reglet-dev/sqlbridge/domain/errors"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/reglet-dev/sqlbridge/hostrt"
	"github.com/reglet-dev/sqlbridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pickyEngine rejects one function name.
type pickyEngine struct {
	*testutil.Engine
	reject string
}

func (e *pickyEngine) RegisterFunction(spec entities.FunctionSpec, fn ports.ScalarFunction) error {
	if spec.Name == e.reject {
		return errors.New("rejected")
	}
	return e.Engine.RegisterFunction(spec, fn)
}

// registerOnly hides DropFunction.
type registerOnly struct {
	ports.Engine
}

func TestNewCatalog(t *testing.T) {
	rt := hostrt.New()
	engine := testutil.NewEngine()
	a := newFunc(t, rt, "a", identity)
	defer a.DecRef()
	b := newFunc(t, rt, "b", identity)
	defer b.DecRef()

	catalog, err := NewCatalog(engine, rt,
		WithFunction(entities.NewFunctionSpec("zeta"), a),
		WithFunction(entities.NewFunctionSpec("alpha").WithArity(1), b),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, catalog.Names())
	assert.True(t, catalog.Has("alpha"))
	assert.False(t, catalog.Has("beta"))
	require.NotNil(t, catalog.Get("alpha"))
	assert.Equal(t, 1, catalog.Get("alpha").Spec().Arity)
	assert.Nil(t, catalog.Get("beta"))

	rec := engine.Call("zeta", entities.TextCell("z"))
	require.NoError(t, rec.Err)
	assert.Equal(t, "z", rec.Cell.Text())

	testutil.RequireRefCount(t, a, 2)
	require.NoError(t, catalog.Close())
	assert.False(t, engine.Has("zeta"))
	assert.False(t, engine.Has("alpha"))
	testutil.RequireRefCount(t, a, 1)
	testutil.RequireRefCount(t, b, 1)
	assert.Empty(t, catalog.Names())
}

func TestNewCatalog_Names(t *testing.T) {
	rt := hostrt.New()
	engine := testutil.NewEngine()
	a := newFunc(t, rt, "a", identity)
	defer a.DecRef()

	catalog, err := NewCatalog(engine, rt, WithFunction(entities.NewFunctionSpec("a"), a))
	require.NoError(t, err)
	defer catalog.Close()

	names := catalog.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, catalog.Names(), "Names returns a copy")
}

func TestNewCatalog_Duplicate(t *testing.T) {
	rt := hostrt.New()
	engine := testutil.NewEngine()
	a := newFunc(t, rt, "a", identity)
	defer a.DecRef()

	catalog, err := NewCatalog(engine, rt,
		WithFunction(entities.NewFunctionSpec("dup"), a),
		WithFunction(entities.NewFunctionSpec("dup").WithArity(2), a),
	)
	assert.Nil(t, catalog)
	assert.ErrorContains(t, err, `duplicate function name: "dup"`)
	assert.False(t, engine.Has("dup"), "nothing is registered on a builder error")
	testutil.RequireRefCount(t, a, 1)
}

func TestNewCatalog_RollsBack(t *testing.T) {
	rt := hostrt.New()
	engine := &pickyEngine{Engine: testutil.NewEngine(), reject: "second"}
	a := newFunc(t, rt, "a", identity)
	defer a.DecRef()

	catalog, err := NewCatalog(engine, rt,
		WithFunction(entities.NewFunctionSpec("first"), a),
		WithFunction(entities.NewFunctionSpec("second"), a),
	)
	assert.Nil(t, catalog)
	assert.True(t, errors.Is(err, domainerrors.ErrEngineRejected))
	assert.False(t, engine.Has("first"))
	testutil.RequireRefCount(t, a, 1)
}

func TestCatalogClose_EngineWithoutDrop(t *testing.T) {
	rt := hostrt.New()
	inner := testutil.NewEngine()
	a := newFunc(t, rt, "a", identity)
	defer a.DecRef()

	catalog, err := NewCatalog(registerOnly{inner}, rt, WithFunction(entities.NewFunctionSpec("f"), a))
	require.NoError(t, err)

	require.NoError(t, catalog.Close())
	assert.True(t, inner.Has("f"), "left to the engine")
	inner.Close()
	testutil.RequireRefCount(t, a, 1)
}

func TestCatalogOptions(t *testing.T) {
	rt := hostrt.New()
	engine := testutil.NewEngine()
	a := newFunc(t, rt, "a", identity)
	defer a.DecRef()

	var calls int
	counting := func(next Invoker) Invoker {
		calls++
		return next
	}
	catalog, err := NewCatalog(engine, rt,
		WithCatalogOptions(WithMiddleware(counting)),
		WithFunction(entities.NewFunctionSpec("one"), a),
		WithFunction(entities.NewFunctionSpec("two"), a),
	)
	require.NoError(t, err)
	defer catalog.Close()

	assert.Equal(t, 2, calls, "middleware wraps every registration")
}
