package hostrt

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

// Runtime owns a graph of reference-counted objects and the interpreter lock
// that guards it.
type Runtime struct {
	logger     *slog.Logger
	none       *Object
	pending    error
	gil        sync.Mutex
	errMu      sync.Mutex
	maxObjects int64
	live       atomic.Int64
	allocated  atomic.Int64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithMaxObjects limits the number of live objects. Allocations beyond the
// limit fail with ErrNoMemory and leave a MemoryError pending. Zero means no limit.
func WithMaxObjects(n int) Option {
	return func(rt *Runtime) {
		if n >= 0 {
			rt.maxObjects = int64(n)
		}
	}
}

// WithLogger sets the logger used by PrintErr.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// New creates a Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{logger: slog.Default()}
	for _, opt := range opts {
		opt(rt)
	}
	rt.none = &Object{rt: rt, kind: KindNone}
	rt.none.refs.Store(1) // the runtime's own reference keeps it immortal
	return rt
}

// Live returns the number of allocated objects that have not been freed.
// The none singleton is not counted.
func (rt *Runtime) Live() int { return int(rt.live.Load()) }

// Allocated returns the total number of objects allocated since New.
func (rt *Runtime) Allocated() int { return int(rt.allocated.Load()) }

func (rt *Runtime) alloc(kind Kind) (*Object, error) {
	if rt.maxObjects > 0 && rt.live.Load() >= rt.maxObjects {
		he := &HostError{Type: "MemoryError", Msg: "object limit reached", Err: ErrNoMemory}
		rt.Raise(he)
		return nil, he
	}
	o := &Object{rt: rt, kind: kind}
	o.refs.Store(1)
	rt.live.Add(1)
	rt.allocated.Add(1)
	return o, nil
}

func (rt *Runtime) dealloc(o *Object) {
	if o == rt.none {
		panic("hostrt: deallocating None")
	}
	o.freed.Store(true)
	rt.live.Add(-1)

	items, m := o.items, o.m
	o.items, o.m, o.b, o.fn = nil, nil, nil, nil
	for _, it := range items {
		it.DecRef()
	}
	for _, v := range m {
		v.DecRef()
	}
}

// None returns a new reference to the shared none singleton.
func (rt *Runtime) None() *Object {
	return rt.none.IncRef()
}

// NewInt returns a new int object.
func (rt *Runtime) NewInt(v int64) (*Object, error) {
	o, err := rt.alloc(KindInt)
	if err != nil {
		return nil, err
	}
	o.i = v
	return o, nil
}

// NewFloat returns a new float object.
func (rt *Runtime) NewFloat(v float64) (*Object, error) {
	o, err := rt.alloc(KindFloat)
	if err != nil {
		return nil, err
	}
	o.f = v
	return o, nil
}

// NewBool returns a new bool object.
func (rt *Runtime) NewBool(v bool) (*Object, error) {
	o, err := rt.alloc(KindBool)
	if err != nil {
		return nil, err
	}
	if v {
		o.i = 1
	}
	return o, nil
}

// NewStr returns a new str object holding s as is.
func (rt *Runtime) NewStr(s string) (*Object, error) {
	o, err := rt.alloc(KindStr)
	if err != nil {
		return nil, err
	}
	o.s = s
	return o, nil
}

// DecodeUTF8 returns a new str object decoded strictly from b.
// Invalid UTF-8 fails with ErrUnicode and leaves a UnicodeDecodeError pending.
func (rt *Runtime) DecodeUTF8(b []byte) (*Object, error) {
	if !utf8.Valid(b) {
		he := &HostError{Type: "UnicodeDecodeError", Msg: "invalid UTF-8 sequence", Err: ErrUnicode}
		rt.Raise(he)
		return nil, he
	}
	return rt.NewStr(string(b))
}

// NewBytes returns a new bytes object holding a copy of b. A nil b yields an
// empty object.
func (rt *Runtime) NewBytes(b []byte) (*Object, error) {
	o, err := rt.alloc(KindBytes)
	if err != nil {
		return nil, err
	}
	o.b = make([]byte, len(b))
	copy(o.b, b)
	return o, nil
}

// NewTuple returns a tuple with n empty slots to be filled with SetItem.
func (rt *Runtime) NewTuple(n int) (*Object, error) {
	if n < 0 {
		he := Errorf("ValueError", "negative tuple size %d", n)
		rt.Raise(he)
		return nil, he
	}
	o, err := rt.alloc(KindTuple)
	if err != nil {
		return nil, err
	}
	o.items = make([]*Object, n)
	return o, nil
}

// Pack returns a tuple holding items, stealing every item reference even on error.
func (rt *Runtime) Pack(items ...*Object) (*Object, error) {
	t, err := rt.NewTuple(len(items))
	if err != nil {
		for _, it := range items {
			it.DecRef()
		}
		return nil, err
	}
	for i, it := range items {
		t.items[i] = it
	}
	return t, nil
}

// NewMap returns an empty map object.
func (rt *Runtime) NewMap() (*Object, error) {
	o, err := rt.alloc(KindMap)
	if err != nil {
		return nil, err
	}
	o.m = make(map[string]*Object)
	return o, nil
}

// Raise sets the pending error, replacing any previous one.
func (rt *Runtime) Raise(err error) {
	rt.errMu.Lock()
	defer rt.errMu.Unlock()
	rt.pending = err
}

// Occurred returns the pending error without clearing it.
func (rt *Runtime) Occurred() error {
	rt.errMu.Lock()
	defer rt.errMu.Unlock()
	return rt.pending
}

// Fetch returns and clears the pending error.
func (rt *Runtime) Fetch() error {
	rt.errMu.Lock()
	defer rt.errMu.Unlock()
	err := rt.pending
	rt.pending = nil
	return err
}

// Clear discards the pending error.
func (rt *Runtime) Clear() {
	rt.Fetch()
}

// PrintErr logs the pending error, clears it and returns it.
// It returns nil and logs nothing when no error is pending.
func (rt *Runtime) PrintErr(ctx context.Context) error {
	err := rt.Fetch()
	if err == nil {
		return nil
	}
	attrs := []any{"error", err}
	var he *HostError
	if errors.As(err, &he) {
		attrs = append(attrs, "type", he.Type)
	}
	rt.logger.ErrorContext(ctx, "hostrt: unhandled error", attrs...)
	return err
}
