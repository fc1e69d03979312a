// Package binding exposes host runtime callables as engine scalar functions.
//
// A Registration owns exactly one reference to its callable from a successful
// Register until the engine calls Destroy. Each SQL call converts the argument
// cells with the codec package, invokes the callable under the runtime's
// interpreter lock and reports one result or one error back to the engine:
//
//	reg, err := binding.Register(engine, rt, entities.NewFunctionSpec("upper"), fn)
//	if err != nil {
//	    return err
//	}
//	// the caller still owns its own reference to fn
//	fn.DecRef()
//
// Failures never propagate to the engine as Go errors or panics. They are
// reported through ResultContext.ResultError as *errors.ExecutionError.
package binding
