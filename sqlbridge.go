// Package sqlbridge lets SQLite queries call functions owned by a
// reference-counted host runtime as if they were native scalar SQL functions.
//
// A Bridge wires the pieces together: a hostrt.Runtime, a SQLite connection
// and the registrations connecting the two. Functions come from Go code as
// hostrt func objects or from WebAssembly modules:
//
//	b, err := sqlbridge.New(ctx, entities.DefaultBridgeConfig())
//	if err != nil {
//	    return err
//	}
//	defer b.Close(ctx)
//
//	err = b.RegisterFunc("twice", 1, func(ctx context.Context, args []*hostrt.Object) (*hostrt.Object, error) {
//	    n, err := args[0].Int64()
//	    if err != nil {
//	        return nil, err
//	    }
//	    return b.Runtime().NewInt(2 * n)
//	})
//
//	row, err := b.Conn().QueryRow(ctx, "SELECT twice(21)")
package sqlbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/reglet-dev/sqlbridge/application/config"
	"github.com/reglet-dev/sqlbridge/binding"
	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/hostrt"
	"github.com/reglet-dev/sqlbridge/infrastructure/sqlite"
	"github.com/reglet-dev/sqlbridge/infrastructure/wazero"
	"github.com/reglet-dev/sqlbridge/log"
)

// ErrClosed is returned by operations on a closed Bridge.
var ErrClosed = errors.New("sqlbridge: bridge closed")

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. By default one is built from the configured
// log level.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRuntime uses rt instead of creating a runtime from the configuration.
func WithRuntime(rt *hostrt.Runtime) Option {
	return func(b *Bridge) {
		b.rt = rt
	}
}

// WithMiddleware adds middleware around every function call, after the
// bridge's own logging middleware.
func WithMiddleware(mw ...binding.Middleware) Option {
	return func(b *Bridge) {
		b.middleware = append(b.middleware, mw...)
	}
}

type regKey struct {
	name  string
	arity int
}

// Bridge owns a host runtime, a SQLite connection and the functions
// registered between them.
type Bridge struct {
	logger     *slog.Logger
	rt         *hostrt.Runtime
	conn       *sqlite.Conn
	regs       map[regKey]*binding.Registration
	modules    []*wazero.Module
	middleware []binding.Middleware
	cfg        entities.BridgeConfig
	mu         sync.Mutex
	closed     bool
}

// New validates cfg, opens the database and registers the WebAssembly
// functions cfg lists.
func New(ctx context.Context, cfg entities.BridgeConfig, opts ...Option) (*Bridge, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	b := &Bridge{cfg: cfg, regs: make(map[regKey]*binding.Registration)}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		b.logger = log.NewLogger(log.WithLevel(level))
	}
	if b.rt == nil {
		b.rt = hostrt.New(hostrt.WithMaxObjects(cfg.MaxObjects), hostrt.WithLogger(b.logger))
	}

	sqlite.ConfigureRuntime(cfg.MemoryLimitPages)
	conn, err := sqlite.Open(cfg.Database, sqlite.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}
	b.conn = conn

	if err := b.loadFunctions(ctx, cfg.Functions); err != nil {
		_ = b.Close(ctx)
		return nil, err
	}

	b.logger.DebugContext(ctx, "sqlbridge: ready", "database", cfg.Database, "functions", len(b.regs))
	return b, nil
}

func (b *Bridge) loadFunctions(ctx context.Context, fns []entities.WasmFunctionConfig) error {
	modules := make(map[string]*wazero.Module)
	for _, fc := range fns {
		mod, ok := modules[fc.Module]
		if !ok {
			wasm, err := os.ReadFile(fc.Module)
			if err != nil {
				return fmt.Errorf("sqlbridge: read module for %q: %w", fc.Name, err)
			}
			mod, err = b.LoadModule(ctx, wasm)
			if err != nil {
				return err
			}
			modules[fc.Module] = mod
		}
		if _, err := b.RegisterExport(mod, fc.ExportName(), fc.Name); err != nil {
			return err
		}
	}
	return nil
}

// Runtime returns the host runtime functions are evaluated in.
func (b *Bridge) Runtime() *hostrt.Runtime { return b.rt }

// Conn returns the SQLite connection.
func (b *Bridge) Conn() *sqlite.Conn { return b.conn }

// Config returns the configuration the bridge was built from.
func (b *Bridge) Config() entities.BridgeConfig { return b.cfg }

// Register installs callable as name with any arity and the configured flags.
// The bridge takes its own reference; the caller keeps theirs.
func (b *Bridge) Register(name string, callable *hostrt.Object) (*binding.Registration, error) {
	return b.RegisterSpec(entities.FunctionSpec{Name: name, Arity: entities.AnyArity, Flags: b.cfg.Flags()}, callable)
}

// RegisterSpec installs callable under spec. A function with the same name
// and arity is replaced.
func (b *Bridge) RegisterSpec(spec entities.FunctionSpec, callable *hostrt.Object) (*binding.Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	mw := append([]binding.Middleware{binding.LoggingMiddleware(b.logger)}, b.middleware...)
	reg, err := binding.Register(b.conn, b.rt, spec, callable,
		binding.WithLogger(b.logger),
		binding.WithMiddleware(mw...),
	)
	if err != nil {
		return nil, err
	}
	b.regs[regKey{name: strings.ToLower(spec.Name), arity: spec.Arity}] = reg
	return reg, nil
}

// RegisterFunc wraps fn in a func object and registers it with a fixed
// arity, or entities.AnyArity.
func (b *Bridge) RegisterFunc(name string, arity int, fn hostrt.Func) error {
	g := b.rt.Ensure(context.Background())
	obj, err := b.rt.NewFunc(name, fn)
	if err != nil {
		b.rt.Clear()
		g.Release()
		return err
	}
	g.Release()

	_, err = b.RegisterSpec(entities.FunctionSpec{Name: name, Arity: arity, Flags: b.cfg.Flags()}, obj)

	g = b.rt.Ensure(context.Background())
	obj.DecRef()
	g.Release()
	return err
}

// LoadModule instantiates a WebAssembly module in the bridge's runtime. It is
// closed with the bridge.
func (b *Bridge) LoadModule(ctx context.Context, wasm []byte, opts ...wazero.ModuleOption) (*wazero.Module, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	mod, err := wazero.Load(ctx, b.rt, wasm, append([]wazero.ModuleOption{wazero.WithLogger(b.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	b.modules = append(b.modules, mod)
	return mod, nil
}

// RegisterExport registers the function export of mod as the SQL function
// name. The arity is the export's parameter count.
func (b *Bridge) RegisterExport(mod *wazero.Module, export, name string) (*binding.Registration, error) {
	arity, ok := mod.Arity(export)
	if !ok {
		return nil, fmt.Errorf("sqlbridge: module %q has no export %q", mod.Name(), export)
	}

	g := b.rt.Ensure(context.Background())
	fn, err := mod.Callable(export)
	if err != nil {
		b.rt.Clear()
		g.Release()
		return nil, err
	}
	g.Release()

	reg, err := b.RegisterSpec(entities.FunctionSpec{Name: name, Arity: arity, Flags: b.cfg.Flags()}, fn)

	g = b.rt.Ensure(context.Background())
	fn.DecRef()
	g.Release()
	return reg, err
}

// Drop removes every registration of name, whatever its arity.
func (b *Bridge) Drop(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	lower := strings.ToLower(name)
	var errs []error
	found := false
	for key := range b.regs {
		if key.name != lower {
			continue
		}
		found = true
		if err := b.conn.DropFunction(name, key.arity); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(b.regs, key)
	}
	if !found {
		return fmt.Errorf("sqlbridge: no function %q", name)
	}
	return errors.Join(errs...)
}

// Functions returns the sorted names of the registered functions.
func (b *Bridge) Functions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]struct{}, len(b.regs))
	names := make([]string, 0, len(b.regs))
	for key, reg := range b.regs {
		if !reg.Active() {
			continue
		}
		if _, ok := seen[key.name]; ok {
			continue
		}
		seen[key.name] = struct{}{}
		names = append(names, reg.Name())
	}
	sort.Strings(names)
	return names
}

// Close closes the connection, which releases every registered callable,
// and then the WebAssembly modules. Calling Close more than once is a no-op.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, mod := range b.modules {
		if err := mod.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.regs = nil
	b.modules = nil
	return errors.Join(errs...)
}
