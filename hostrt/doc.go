// Package hostrt is a small reference-counted object runtime that plays the
// role of the host scripting runtime behind a SQL function.
//
// It offers what a bridge needs from such a runtime and nothing more:
//
//   - Objects with a closed set of kinds (none, bool, int, float, str, bytes,
//     tuple, map, func) and explicit reference counts
//   - Constructors that return a new reference and accessors that borrow
//   - Tuples whose SetItem steals the item reference
//   - A calling convention for Go-implemented callables
//   - A pending error slot, set when a call or allocation fails
//   - An interpreter-wide lock, taken with Ensure and released through the
//     returned Guard
//
// # Reference counting
//
// Every constructor returns an object with one reference owned by the
// caller. IncRef adds one, DecRef removes one and frees the object when the
// count reaches zero. Freeing a tuple or map releases its children. Releasing
// a freed object panics: the runtime treats that as memory corruption.
//
// Reference counts and the pending error belong to the interpreter; callers
// hold the lock returned by Ensure while touching objects:
//
//	g := rt.Ensure(ctx)
//	defer g.Release()
//
//	n, err := rt.NewInt(42)
//	if err != nil {
//	    return err
//	}
//	defer n.DecRef()
//
// Ref wraps one owned reference so that it can be released with defer on
// every return path.
package hostrt
