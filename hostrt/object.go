package hostrt

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"unicode/utf8"
)

// Kind is the runtime type tag of an object.
type Kind uint8

// Object kinds.
const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	KindTuple
	KindMap
	KindFunc
)

var kindNames = [...]string{
	KindNone:  "none",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindStr:   "str",
	KindBytes: "bytes",
	KindTuple: "tuple",
	KindMap:   "map",
	KindFunc:  "func",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Object is a reference-counted value owned by a Runtime.
type Object struct {
	rt    *Runtime
	fn    Func
	m     map[string]*Object
	s     string
	name  string
	b     []byte
	items []*Object
	i     int64
	f     float64
	refs  atomic.Int64
	freed atomic.Bool
	kind  Kind
}

// Kind returns the object's type tag.
func (o *Object) Kind() Kind { return o.kind }

// Runtime returns the runtime that allocated o.
func (o *Object) Runtime() *Runtime { return o.rt }

// RefCount returns the current number of references.
func (o *Object) RefCount() int64 { return o.refs.Load() }

// Freed reports whether the object has been deallocated.
func (o *Object) Freed() bool { return o.freed.Load() }

// IsNone reports whether o is the none singleton.
func (o *Object) IsNone() bool { return o != nil && o.kind == KindNone }

// Callable reports whether o can be passed to Runtime.Call.
func (o *Object) Callable() bool {
	return o != nil && !o.freed.Load() && o.kind == KindFunc && o.fn != nil
}

// IncRef adds a reference and returns o for chaining.
func (o *Object) IncRef() *Object {
	if o == nil {
		return nil
	}
	if o.freed.Load() {
		panic(fmt.Sprintf("hostrt: IncRef on freed %s object", o.kind))
	}
	o.refs.Add(1)
	return o
}

// DecRef removes a reference and frees the object when none remain.
// A nil object is ignored.
func (o *Object) DecRef() {
	if o == nil {
		return
	}
	if o.freed.Load() {
		panic(fmt.Sprintf("hostrt: DecRef on freed %s object", o.kind))
	}
	n := o.refs.Add(-1)
	switch {
	case n < 0:
		panic(fmt.Sprintf("hostrt: negative reference count on %s object", o.kind))
	case n == 0:
		o.rt.dealloc(o)
	}
}

// Int64 returns the value of an int object.
func (o *Object) Int64() (int64, error) {
	if o.kind != KindInt {
		return 0, o.rt.typeError("int", o)
	}
	return o.i, nil
}

// Float64 returns the value of a float object.
func (o *Object) Float64() (float64, error) {
	if o.kind != KindFloat {
		return 0, o.rt.typeError("float", o)
	}
	return o.f, nil
}

// Bool returns the value of a bool object.
func (o *Object) Bool() (bool, error) {
	if o.kind != KindBool {
		return false, o.rt.typeError("bool", o)
	}
	return o.i != 0, nil
}

// UTF8 returns a copy of a str object's UTF-8 encoding.
// A str built from a Go string that is not valid UTF-8 fails with ErrUnicode.
func (o *Object) UTF8() ([]byte, error) {
	if o.kind != KindStr {
		return nil, o.rt.typeError("str", o)
	}
	if !utf8.ValidString(o.s) {
		he := &HostError{Type: "UnicodeEncodeError", Msg: "str is not valid UTF-8", Err: ErrUnicode}
		o.rt.Raise(he)
		return nil, he
	}
	return []byte(o.s), nil
}

// Bytes returns the contents of a bytes object. The slice is borrowed and
// must not be modified.
func (o *Object) Bytes() ([]byte, error) {
	if o.kind != KindBytes {
		return nil, o.rt.typeError("bytes", o)
	}
	return o.b, nil
}

// Items returns the borrowed items of a tuple. Unset slots are nil.
func (o *Object) Items() []*Object {
	if o.kind != KindTuple {
		return nil
	}
	return o.items
}

// Len returns the number of items of a tuple or map, or the length of a str or bytes.
func (o *Object) Len() int {
	switch o.kind {
	case KindTuple:
		return len(o.items)
	case KindMap:
		return len(o.m)
	case KindStr:
		return len(o.s)
	case KindBytes:
		return len(o.b)
	default:
		return 0
	}
}

// SetItem stores item at index i of a tuple, stealing the caller's reference
// to item. A previously stored item is released. On error the reference to
// item is released as well, so the caller never owns it after the call.
func (o *Object) SetItem(i int, item *Object) error {
	if o.kind != KindTuple {
		item.DecRef()
		return o.rt.typeError("tuple", o)
	}
	if i < 0 || i >= len(o.items) {
		item.DecRef()
		he := &HostError{Type: "IndexError", Msg: fmt.Sprintf("tuple index %d out of range", i)}
		o.rt.Raise(he)
		return he
	}
	old := o.items[i]
	o.items[i] = item
	old.DecRef()
	return nil
}

// MapSet stores v under key in a map, stealing the caller's reference to v.
func (o *Object) MapSet(key string, v *Object) error {
	if o.kind != KindMap {
		v.DecRef()
		return o.rt.typeError("map", o)
	}
	old := o.m[key]
	o.m[key] = v
	old.DecRef()
	return nil
}

// Name returns the name of a func object.
func (o *Object) Name() string { return o.name }

// String returns a short human-readable representation.
func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	if o.freed.Load() {
		return "<freed " + o.kind.String() + ">"
	}
	switch o.kind {
	case KindNone:
		return "None"
	case KindBool:
		return strconv.FormatBool(o.i != 0)
	case KindInt:
		return strconv.FormatInt(o.i, 10)
	case KindFloat:
		return strconv.FormatFloat(o.f, 'g', -1, 64)
	case KindStr:
		return strconv.Quote(o.s)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(o.b))
	case KindTuple:
		return fmt.Sprintf("tuple(%d)", len(o.items))
	case KindMap:
		return fmt.Sprintf("map(%d)", len(o.m))
	case KindFunc:
		return "<func " + o.name + ">"
	default:
		return o.kind.String()
	}
}
