package testutil

import (
	"fmt"
	"sync"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/ports"
)

// Recorder is a ports.ResultContext that keeps what was reported.
type Recorder struct {
	Err   error
	Cell  entities.Cell
	Calls int
}

var _ ports.ResultContext = (*Recorder)(nil)

func (r *Recorder) ResultInt64(v int64) { r.Calls++; r.Cell = entities.IntegerCell(v) }
func (r *Recorder) ResultFloat(v float64) { r.Calls++; r.Cell = entities.FloatCell(v) }
func (r *Recorder) ResultText(v []byte) { r.Calls++; r.Cell = entities.RawTextCell(v) }
func (r *Recorder) ResultBlob(v []byte) { r.Calls++; r.Cell = entities.BlobCell(v) }
func (r *Recorder) ResultNull() { r.Calls++; r.Cell = entities.NullCell() }
func (r *Recorder) ResultError(err error) { r.Calls++; r.Err = err }

// BadValue is a cell whose tag is outside the supported set.
type BadValue struct {
	Tag entities.CellType
}

func (v BadValue) Type() entities.CellType { return v.Tag }
func (BadValue) Int64() int64 { return 0 }
func (BadValue) Float() float64 { return 0 }
func (BadValue) RawText() []byte { return nil }
func (BadValue) RawBlob() []byte { return nil }

// Values adapts cells to the engine argument slice type.
func Values(cells ...entities.Cell) []ports.Value {
	out := make([]ports.Value, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// Engine is an in-memory ports.Engine that honours the teardown contract:
// Destroy is called once when a function is dropped, replaced or the engine
// is closed.
type Engine struct {
	// Reject, when set, makes RegisterFunction fail with this error.
	Reject error

	funcs map[string]ports.ScalarFunction
	mu    sync.Mutex
}

var (
	_ ports.Engine          = (*Engine)(nil)
	_ ports.FunctionDropper = (*Engine)(nil)
)

// NewEngine returns an empty engine.
func NewEngine() *Engine {
	return &Engine{funcs: make(map[string]ports.ScalarFunction)}
}

// RegisterFunction implements ports.Engine.
func (e *Engine) RegisterFunction(spec entities.FunctionSpec, fn ports.ScalarFunction) error {
	if e.Reject != nil {
		return e.Reject
	}
	e.mu.Lock()
	old := e.funcs[spec.Name]
	e.funcs[spec.Name] = fn
	e.mu.Unlock()
	if old != nil {
		old.Destroy()
	}
	return nil
}

// Call invokes a registered function the way the engine would.
func (e *Engine) Call(name string, args ...entities.Cell) *Recorder {
	e.mu.Lock()
	fn := e.funcs[name]
	e.mu.Unlock()

	rec := &Recorder{}
	if fn == nil {
		rec.ResultError(fmt.Errorf("no such function: %s", name))
		return rec
	}
	fn.Call(rec, Values(args...))
	return rec
}

// CallValues is Call with arbitrary argument values.
func (e *Engine) CallValues(name string, args ...ports.Value) *Recorder {
	e.mu.Lock()
	fn := e.funcs[name]
	e.mu.Unlock()

	rec := &Recorder{}
	fn.Call(rec, args)
	return rec
}

// Has reports whether name is registered.
func (e *Engine) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.funcs[name]
	return ok
}

// DropFunction implements ports.FunctionDropper. The arity is ignored.
func (e *Engine) DropFunction(name string, _ int) error {
	if !e.Has(name) {
		return fmt.Errorf("no such function: %s", name)
	}
	e.Drop(name)
	return nil
}

// Drop removes name and destroys its registration.
func (e *Engine) Drop(name string) {
	e.mu.Lock()
	fn := e.funcs[name]
	delete(e.funcs, name)
	e.mu.Unlock()
	if fn != nil {
		fn.Destroy()
	}
}

// Close destroys every registration.
func (e *Engine) Close() {
	e.mu.Lock()
	funcs := e.funcs
	e.funcs = make(map[string]ports.ScalarFunction)
	e.mu.Unlock()
	for _, fn := range funcs {
		fn.Destroy()
	}
}
