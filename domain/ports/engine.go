package ports

import "github.com/reglet-dev/sqlbridge/domain/entities"

// Value is a read-only view of one engine-owned argument cell.
// It is valid only for the duration of the call that received it and must
// not be retained.
type Value interface {
	// Type returns the cell tag.
	Type() entities.CellType
	// Int64 returns the value of an INTEGER cell.
	Int64() int64
	// Float returns the value of a FLOAT cell.
	Float() float64
	// RawText returns the bytes of a TEXT cell without copying.
	RawText() []byte
	// RawBlob returns the bytes of a BLOB cell without copying.
	// An empty blob may be reported as nil.
	RawBlob() []byte
}

// ResultContext is the per-call capability for reporting exactly one result
// or one error back to the engine.
type ResultContext interface {
	ResultInt64(v int64)
	ResultFloat(v float64)
	// ResultText reports a TEXT result. The engine copies v.
	ResultText(v []byte)
	// ResultBlob reports a BLOB result. The engine copies v.
	ResultBlob(v []byte)
	ResultNull()
	// ResultError reports a user-visible SQL error for this call.
	ResultError(err error)
}

// ScalarFunction is the per-registration user data handed to the engine.
//
// The engine calls Call once per SQL invocation, possibly from several
// goroutines at once, and calls Destroy exactly once when the function is
// removed: dropped, replaced or when the connection closes. Destroy is never
// called for a registration the engine rejected.
type ScalarFunction interface {
	Call(rc ResultContext, args []Value)
	Destroy()
}

// Engine is the part of a relational engine the bridge consumes.
type Engine interface {
	// RegisterFunction installs fn under spec.Name with spec.Arity.
	// On error fn is not retained and Destroy will not be called.
	RegisterFunction(spec entities.FunctionSpec, fn ScalarFunction) error
}

// FunctionDropper is implemented by engines that can remove a single
// function. Dropping calls the registration's Destroy.
type FunctionDropper interface {
	DropFunction(name string, arity int) error
}
