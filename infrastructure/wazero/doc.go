// Package wazero exposes functions exported by a WebAssembly module as host
// runtime callables, so that they can be registered as SQL functions.
//
// Each exported function becomes a func object. Arguments are converted by
// the function's WebAssembly signature:
//
//   - i32 and i64 parameters take int objects (i32 must fit in 32 bits)
//   - f32 and f64 parameters take float or int objects
//   - no result yields none, one result an int or float, several a tuple
//
// A trap, a closed module or a mismatched argument raises an error in the
// host runtime; the bridge reports it as a failed SQL call.
//
// # Basic Usage
//
//	mod, err := wazero.Load(ctx, rt, wasmBytes, wazero.WithModuleName("math"))
//	if err != nil {
//	    return err
//	}
//	defer mod.Close(ctx)
//
//	add, err := mod.Callable("add")
//	if err != nil {
//	    return err
//	}
//	defer add.DecRef()
//
//	_, err = binding.Register(conn, rt, entities.NewFunctionSpec("add").WithArity(2), add)
package wazero
