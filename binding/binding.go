package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/sqlbridge/codec"
	"github.com/reglet-dev/sqlbridge/domain/entities"
	domainerrors "github.com/reglet-dev/sqlbridge/domain/errors"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/reglet-dev/sqlbridge/hostrt"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Option configures a Registration.
type Option func(*options)

type options struct {
	ctx        context.Context
	logger     *slog.Logger
	middleware []Middleware
}

// WithContext sets the context every call runs under. It is handed to the
// host callable and to middleware. Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithLogger sets the logger for registration lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMiddleware adds middleware around every call.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

// Registration is one host callable installed in an engine.
// It implements ports.ScalarFunction.
type Registration struct {
	ctx      context.Context
	rt       *hostrt.Runtime
	callable *hostrt.Ref // guarded by the runtime's interpreter lock
	logger   *slog.Logger
	invoke   Invoker
	spec     entities.FunctionSpec
}

var _ ports.ScalarFunction = (*Registration)(nil)

// ValidateSpec checks a function spec without registering anything.
func ValidateSpec(spec entities.FunctionSpec) error {
	if !utf8.ValidString(spec.Name) {
		return &domainerrors.RegistrationError{Name: spec.Name, Kind: domainerrors.InvalidSpec, Err: errors.New("name is not valid UTF-8")}
	}
	if err := validate.Struct(spec); err != nil {
		return &domainerrors.RegistrationError{Name: spec.Name, Kind: domainerrors.InvalidSpec, Err: err}
	}
	return nil
}

// Register installs callable in engine under spec.
//
// A nil or non-callable object, or an empty name, fails with NotCallable; any
// other malformed spec fails with InvalidSpec. Neither touches the callable's
// reference count. On success the Registration holds one new reference to
// callable and the caller keeps its own. If the engine refuses the function
// that reference is released again and the error is EngineRejected.
func Register(engine ports.Engine, rt *hostrt.Runtime, spec entities.FunctionSpec, callable *hostrt.Object, opts ...Option) (*Registration, error) {
	o := &options{ctx: context.Background(), logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if spec.Name == "" {
		return nil, &domainerrors.RegistrationError{Kind: domainerrors.NotCallable, Err: errors.New("function name is empty")}
	}
	if err := checkCallable(rt, callable); err != nil {
		return nil, &domainerrors.RegistrationError{Name: spec.Name, Kind: domainerrors.NotCallable, Err: err}
	}
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}

	reg := &Registration{
		ctx:    o.ctx,
		rt:     rt,
		logger: o.logger,
		spec:   spec,
	}
	reg.invoke = chain(reg.call, append([]Middleware{RecoveryMiddleware()}, o.middleware...))

	g := rt.Ensure(o.ctx)
	reg.callable = hostrt.NewRef(callable)
	g.Release()

	// The engine may destroy a registration it replaces, which takes the lock.
	if err := engine.RegisterFunction(spec, reg); err != nil {
		reg.release()
		o.logger.ErrorContext(o.ctx, "binding: engine rejected function", "function", spec.Name, "error", err)
		return nil, &domainerrors.RegistrationError{Name: spec.Name, Kind: domainerrors.EngineRejected, Err: err}
	}

	o.logger.DebugContext(o.ctx, "binding: registered function", "function", spec.Name, "arity", spec.Arity, "flags", spec.Flags.String())
	return reg, nil
}

func checkCallable(rt *hostrt.Runtime, callable *hostrt.Object) error {
	switch {
	case rt == nil:
		return errors.New("no host runtime")
	case callable == nil:
		return errors.New("callable is nil")
	case callable.Runtime() != rt:
		return errors.New("callable belongs to another runtime")
	case !callable.Callable():
		return fmt.Errorf("%s object is not callable", callable.Kind())
	}
	return nil
}

// Spec returns the function spec the registration was installed with.
func (r *Registration) Spec() entities.FunctionSpec { return r.spec }

// Name returns the SQL function name.
func (r *Registration) Name() string { return r.spec.Name }

// Active reports whether the registration still owns its callable.
func (r *Registration) Active() bool {
	if r == nil || r.rt == nil {
		return false
	}
	g := r.rt.Ensure(r.ctx)
	defer g.Release()
	return r.callable.Valid()
}

// Call implements ports.ScalarFunction. It reports exactly one result or one
// *errors.ExecutionError through rc and never panics.
func (r *Registration) Call(rc ports.ResultContext, args []ports.Value) {
	cell, err := r.invoke(r.ctx, r.spec.Name, args)
	if err != nil {
		rc.ResultError(err)
		return
	}
	codec.WriteResult(rc, cell)
}

// Destroy implements ports.ScalarFunction. It releases the owned callable
// reference. Later calls, and calls on a registration that never completed
// Register, do nothing.
func (r *Registration) Destroy() {
	if r == nil || r.rt == nil {
		return
	}
	if r.release() {
		r.logger.DebugContext(r.ctx, "binding: released function", "function", r.spec.Name)
	}
}

func (r *Registration) release() bool {
	g := r.rt.Ensure(r.ctx)
	defer g.Release()
	if !r.callable.Valid() {
		return false
	}
	r.callable.Release()
	return true
}

// call is the core Invoker. The interpreter lock is held from the first
// look at the callable until the result cell has been copied out.
func (r *Registration) call(ctx context.Context, name string, args []ports.Value) (cell entities.Cell, err error) {
	g := r.rt.Ensure(ctx)
	defer g.Release()
	defer func() {
		if p := recover(); p != nil {
			r.rt.Clear()
			cell, err = entities.Cell{}, panicError(name, p)
		}
	}()

	callable := r.callable.Object()
	if !callable.Callable() {
		return entities.Cell{}, r.fail(domainerrors.InvalidCallable, -1, errors.New("callable has been released"))
	}

	argv, err := r.rt.NewTuple(len(args))
	if err != nil {
		r.rt.Clear()
		return entities.Cell{}, r.fail(domainerrors.ArgumentConversion, -1,
			&domainerrors.ConversionError{Type: "tuple", Kind: domainerrors.Allocation, Err: err})
	}
	// Releasing the vector releases every item placed so far.
	defer argv.DecRef()

	for i, v := range args {
		obj, err := codec.ToHostObject(r.rt, v)
		if err != nil {
			r.rt.Clear()
			return entities.Cell{}, r.fail(domainerrors.ArgumentConversion, i, err)
		}
		if err := argv.SetItem(i, obj); err != nil {
			r.rt.Clear()
			return entities.Cell{}, r.fail(domainerrors.ArgumentConversion, i, err)
		}
	}

	res, err := r.rt.Call(g.Context(), callable, argv)
	if err != nil {
		if pending := r.rt.PrintErr(ctx); pending != nil {
			err = pending
		}
		return entities.Cell{}, r.fail(domainerrors.CallableRaised, -1, err)
	}
	defer res.DecRef()

	cell, err = codec.FromHostObject(res)
	if err != nil {
		r.rt.Clear()
		return entities.Cell{}, r.fail(domainerrors.UnsupportedReturnType, -1, err)
	}
	return cell, nil
}

func (r *Registration) fail(kind domainerrors.ExecutionKind, arg int, err error) error {
	return &domainerrors.ExecutionError{Function: r.spec.Name, Kind: kind, Arg: arg, Err: err}
}
