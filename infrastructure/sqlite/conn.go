package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed" // SQLite WebAssembly binary
	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/tetratelabs/wazero"
)

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("sqlite: connection closed")

// ConfigureRuntime limits the memory of the SQLite WebAssembly instance to
// pages of 64 KiB each. It only has an effect before the first Open in the
// process. Zero keeps the wazero default.
func ConfigureRuntime(pages uint32) {
	if pages == 0 {
		return
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithMemoryLimitPages(pages)
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger for function lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type funcKey struct {
	name  string
	arity int
}

// Conn is a SQLite connection implementing ports.Engine.
//
// A Conn serializes its own use; statements run one at a time. Registered
// functions must not use the same Conn while they run.
type Conn struct {
	conn   *sqlite3.Conn
	logger *slog.Logger
	funcs  map[funcKey]ports.ScalarFunction
	mu     sync.Mutex
}

var (
	_ ports.Engine          = (*Conn)(nil)
	_ ports.FunctionDropper = (*Conn)(nil)
)

// Open opens a SQLite database. filename may be ":memory:" or a URI.
func Open(filename string, opts ...Option) (*Conn, error) {
	conn, err := sqlite3.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", filename, err)
	}
	c := &Conn{
		conn:   conn,
		logger: slog.Default(),
		funcs:  make(map[funcKey]ports.ScalarFunction),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func keyOf(name string, arity int) funcKey {
	// SQLite matches function names case-insensitively.
	return funcKey{name: strings.ToLower(name), arity: arity}
}

// RegisterFunction implements ports.Engine. A function already registered
// under the same name and arity is replaced and destroyed.
func (c *Conn) RegisterFunction(spec entities.FunctionSpec, fn ports.ScalarFunction) error {
	if fn == nil {
		return errors.New("sqlite: nil function")
	}

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return ErrClosed
	}
	err := c.conn.CreateFunction(spec.Name, spec.Arity, functionFlags(spec.Flags), func(ctx sqlite3.Context, arg ...sqlite3.Value) {
		args := make([]ports.Value, len(arg))
		for i, a := range arg {
			args[i] = value{v: a}
		}
		fn.Call(resultContext{ctx: ctx}, args)
	})
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("sqlite: create function %q: %w", spec.Name, err)
	}
	key := keyOf(spec.Name, spec.Arity)
	old := c.funcs[key]
	c.funcs[key] = fn
	c.mu.Unlock()

	if old != nil {
		c.logger.Debug("sqlite: replaced function", "function", spec.Name, "arity", spec.Arity)
		old.Destroy()
	}
	return nil
}

// DropFunction implements ports.FunctionDropper.
func (c *Conn) DropFunction(name string, arity int) error {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return ErrClosed
	}
	key := keyOf(name, arity)
	fn, ok := c.funcs[key]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("sqlite: no function %q with %d arguments", name, arity)
	}
	// A nil function deletes the definition.
	if err := c.conn.CreateFunction(name, arity, 0, nil); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("sqlite: drop function %q: %w", name, err)
	}
	delete(c.funcs, key)
	c.mu.Unlock()

	fn.Destroy()
	return nil
}

// Functions returns the number of registered functions.
func (c *Conn) Functions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.funcs)
}

// Exec runs one or more statements without arguments.
func (c *Conn) Exec(ctx context.Context, sql string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrClosed
	}
	old := c.conn.SetInterrupt(ctx)
	defer c.conn.SetInterrupt(old)

	if err := c.conn.Exec(sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Query runs one statement with args bound to its parameters and returns
// every row as cells.
func (c *Conn) Query(ctx context.Context, sql string, args ...entities.Cell) ([][]entities.Cell, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, ErrClosed
	}
	old := c.conn.SetInterrupt(ctx)
	defer c.conn.SetInterrupt(old)

	stmt, _, err := c.conn.Prepare(sql)
	if err != nil {
		return nil, fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for i, a := range args {
		if err := bindCell(stmt, i+1, a); err != nil {
			return nil, fmt.Errorf("sqlite: bind parameter %d: %w", i+1, err)
		}
	}

	var rows [][]entities.Cell
	for stmt.Step() {
		row := make([]entities.Cell, stmt.ColumnCount())
		for col := range row {
			row[col] = columnCell(stmt, col)
		}
		rows = append(rows, row)
	}
	if err := stmt.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: step: %w", err)
	}
	return rows, nil
}

// QueryRow is Query for statements that return a single row.
// It returns an error when there is no row.
func (c *Conn) QueryRow(ctx context.Context, sql string, args ...entities.Cell) ([]entities.Cell, error) {
	rows, err := c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("sqlite: no rows in result set")
	}
	return rows[0], nil
}

// Close closes the connection and destroys every registered function.
// Calling Close more than once is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	funcs := c.funcs
	c.funcs = make(map[funcKey]ports.ScalarFunction)
	c.mu.Unlock()

	for key, fn := range funcs {
		c.logger.Debug("sqlite: destroying function", "function", key.name, "arity", key.arity)
		fn.Destroy()
	}
	if err != nil {
		return fmt.Errorf("sqlite: close: %w", err)
	}
	return nil
}
