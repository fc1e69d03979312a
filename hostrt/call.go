package hostrt

import (
	"context"
	"errors"
)

// Func is the implementation of a callable object.
//
// args are borrowed for the duration of the call. On success Func returns a
// new reference the caller will own. A returned error is raised in the
// runtime; any object returned alongside it is released.
type Func func(ctx context.Context, args []*Object) (*Object, error)

// NewFunc returns a new callable object.
func (rt *Runtime) NewFunc(name string, fn Func) (*Object, error) {
	if fn == nil {
		he := Errorf("ValueError", "func %q has no implementation", name)
		rt.Raise(he)
		return nil, he
	}
	o, err := rt.alloc(KindFunc)
	if err != nil {
		return nil, err
	}
	o.name = name
	o.fn = fn
	return o, nil
}

// Call invokes callable with the items of the args tuple and returns a new
// reference to the result. args is borrowed and may be nil for no arguments.
//
// When the callable fails Call returns nil and an error wrapping ErrRaised;
// the cause stays pending until fetched or cleared.
func (rt *Runtime) Call(ctx context.Context, callable, args *Object) (*Object, error) {
	if !callable.Callable() {
		kind := "nil"
		if callable != nil {
			kind = callable.kind.String()
		}
		return nil, rt.raised(Errorf("TypeError", "%s object is not callable", kind))
	}
	var items []*Object
	if args != nil {
		if args.kind != KindTuple {
			return nil, rt.raised(rt.typeError("tuple", args))
		}
		items = args.items
	}
	for i, it := range items {
		if it == nil || it.freed.Load() {
			return nil, rt.raised(Errorf("SystemError", "argument %d is not set", i))
		}
	}

	res, err := callable.fn(ctx, items)
	if err != nil {
		res.DecRef()
		var he *HostError
		if !errors.As(err, &he) {
			err = &HostError{Type: "RuntimeError", Msg: err.Error(), Err: err}
		}
		return nil, rt.raised(err)
	}
	if res == nil {
		return nil, rt.raised(Errorf("SystemError", "%s returned nil without raising", callable.name))
	}
	return res, nil
}

// CallArgs is a convenience around Call that packs args into a tuple.
// args are borrowed.
func (rt *Runtime) CallArgs(ctx context.Context, callable *Object, args ...*Object) (*Object, error) {
	t, err := rt.NewTuple(len(args))
	if err != nil {
		return nil, err
	}
	defer t.DecRef()
	for i, a := range args {
		if err := t.SetItem(i, a.IncRef()); err != nil {
			return nil, err
		}
	}
	return rt.Call(ctx, callable, t)
}

type raisedError struct{ cause error }

func (e *raisedError) Error() string { return e.cause.Error() }

func (e *raisedError) Unwrap() []error { return []error{ErrRaised, e.cause} }

func (rt *Runtime) raised(cause error) error {
	rt.Raise(cause)
	return &raisedError{cause: cause}
}
