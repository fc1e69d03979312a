package hostrt

// Ref owns exactly one reference to an object: creating it takes ownership of
// a reference the caller already holds and Release gives it back. Release is
// idempotent, so a Ref can be released with defer on every path.
//
// A Ref is not safe for concurrent use.
type Ref struct {
	obj *Object
}

// Own wraps a reference the caller already owns. obj may be nil.
func Own(obj *Object) *Ref {
	return &Ref{obj: obj}
}

// NewRef takes a new reference to obj and wraps it.
func NewRef(obj *Object) *Ref {
	return &Ref{obj: obj.IncRef()}
}

// Object returns the referenced object, or nil once released.
func (r *Ref) Object() *Object {
	if r == nil {
		return nil
	}
	return r.obj
}

// Valid reports whether the Ref still holds an object.
func (r *Ref) Valid() bool { return r != nil && r.obj != nil }

// Release drops the reference. Later calls do nothing.
func (r *Ref) Release() {
	if r == nil || r.obj == nil {
		return
	}
	obj := r.obj
	r.obj = nil
	obj.DecRef()
}

// Steal transfers the reference out of r, leaving r empty.
func (r *Ref) Steal() *Object {
	if r == nil {
		return nil
	}
	obj := r.obj
	r.obj = nil
	return obj
}
