// Package sqlite adapts a github.com/ncruces/go-sqlite3 connection to the
// bridge's engine port.
//
// SQLite runs inside the wazero WebAssembly runtime, so the whole engine is
// pure Go. Registered functions are plain Go closures on the engine side; the
// adapter keeps the per-registration user data itself and calls Destroy
// exactly once when a function is replaced, dropped or the connection closes.
//
// # Basic Usage
//
//	conn, err := sqlite.Open(":memory:")
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	reg, err := binding.Register(conn, rt, entities.NewFunctionSpec("identity"), fn)
//	if err != nil {
//	    return err
//	}
//
//	row, err := conn.QueryRow(ctx, "SELECT identity(?)", entities.IntegerCell(42))
package sqlite
