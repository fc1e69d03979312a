package wazero

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/reglet-dev/sqlbridge/hostrt"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ModuleConfig holds configuration for a loaded module.
type ModuleConfig struct {
	// Logger receives call failures. Defaults to slog.Default().
	Logger *slog.Logger

	// Name is the module instance name (default: "sqlbridge_module").
	Name string

	// MemoryLimitPages limits guest memory in 64 KiB pages.
	// Zero keeps the wazero default.
	MemoryLimitPages uint32
}

// ModuleOption configures Load.
type ModuleOption func(*ModuleConfig)

// WithModuleName sets the module instance name.
func WithModuleName(name string) ModuleOption {
	return func(c *ModuleConfig) {
		c.Name = name
	}
}

// WithMemoryLimitPages sets the maximum guest memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) ModuleOption {
	return func(c *ModuleConfig) {
		c.MemoryLimitPages = pages
	}
}

// WithLogger sets the logger for call failures.
func WithLogger(logger *slog.Logger) ModuleOption {
	return func(c *ModuleConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// defaultModuleConfig returns the default module configuration.
func defaultModuleConfig() ModuleConfig {
	return ModuleConfig{
		Logger: slog.Default(),
		Name:   "sqlbridge_module",
	}
}

// Module is an instantiated WebAssembly module whose exports can be handed to
// a host runtime as callables.
type Module struct {
	rt      *hostrt.Runtime
	runtime wazero.Runtime
	mod     api.Module
	logger  *slog.Logger
	exports map[string]api.FunctionDefinition
	mu      sync.RWMutex
	closed  bool
}

// Load compiles and instantiates wasm in a private wazero runtime.
// The module must not import anything.
func Load(ctx context.Context, rt *hostrt.Runtime, wasm []byte, opts ...ModuleOption) (*Module, error) {
	if rt == nil {
		return nil, errors.New("wazero: nil host runtime")
	}
	cfg := defaultModuleConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rc := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, rc)

	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("wazero: compile module: %w", err)
	}
	mod, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(cfg.Name))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("wazero: instantiate module %q: %w", cfg.Name, err)
	}

	return &Module{
		rt:      rt,
		runtime: runtime,
		mod:     mod,
		logger:  cfg.Logger,
		exports: compiled.ExportedFunctions(),
	}, nil
}

// Name returns the module instance name.
func (m *Module) Name() string { return m.mod.Name() }

// Exports returns the sorted names of the exported functions.
func (m *Module) Exports() []string {
	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Arity returns the parameter count of the exported function name.
func (m *Module) Arity(name string) (int, bool) {
	def, ok := m.exports[name]
	if !ok {
		return 0, false
	}
	return len(def.ParamTypes()), true
}

// Callable returns a new reference to a func object calling the exported
// function name. The caller owns the reference.
//
// The object's Func runs the export under the runtime's interpreter lock,
// which also serializes calls into the module.
func (m *Module) Callable(name string) (*hostrt.Object, error) {
	def, ok := m.exports[name]
	if !ok {
		return nil, fmt.Errorf("wazero: module %q has no exported function %q", m.mod.Name(), name)
	}
	params, results := def.ParamTypes(), def.ResultTypes()
	for _, t := range append(append([]api.ValueType(nil), params...), results...) {
		if !supported(t) {
			return nil, fmt.Errorf("wazero: function %q uses unsupported type %s", name, api.ValueTypeName(t))
		}
	}
	return m.rt.NewFunc(name, func(ctx context.Context, args []*hostrt.Object) (*hostrt.Object, error) {
		return m.call(ctx, name, params, results, args)
	})
}

func supported(t api.ValueType) bool {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		return true
	default:
		return false
	}
}

// call runs one export. It returns a new reference or a HostError.
func (m *Module) call(ctx context.Context, name string, params, results []api.ValueType, args []*hostrt.Object) (*hostrt.Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, hostrt.Errorf("RuntimeError", "module %q is closed", m.mod.Name())
	}
	if len(args) != len(params) {
		return nil, hostrt.Errorf("TypeError", "%s() takes %d arguments (%d given)", name, len(params), len(args))
	}

	stack := make([]uint64, len(params))
	for i, t := range params {
		v, err := encode(t, args[i])
		if err != nil {
			return nil, err
		}
		stack[i] = v
	}

	fn := m.mod.ExportedFunction(name)
	out, err := fn.Call(ctx, stack...)
	if err != nil {
		m.logger.ErrorContext(ctx, "wazero: function call failed", "module", GetModuleName(ctx, m.mod), "function", name, "error", err)
		return nil, &hostrt.HostError{Type: "RuntimeError", Msg: fmt.Sprintf("%s: %v", name, err), Err: err}
	}

	switch len(out) {
	case 0:
		return m.rt.None(), nil
	case 1:
		return m.decode(results[0], out[0])
	default:
		items := make([]*hostrt.Object, 0, len(out))
		for i, v := range out {
			obj, err := m.decode(results[i], v)
			if err != nil {
				for _, it := range items {
					it.DecRef()
				}
				return nil, err
			}
			items = append(items, obj)
		}
		return m.rt.Pack(items...)
	}
}

func encode(t api.ValueType, arg *hostrt.Object) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		v, err := arg.Int64()
		if err != nil {
			return 0, err
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, hostrt.Errorf("OverflowError", "%d does not fit in i32", v)
		}
		return api.EncodeI32(int32(v)), nil
	case api.ValueTypeI64:
		v, err := arg.Int64()
		if err != nil {
			return 0, err
		}
		return api.EncodeI64(v), nil
	case api.ValueTypeF32:
		f, err := toFloat(arg)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(f)), nil
	default:
		f, err := toFloat(arg)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(f), nil
	}
}

func toFloat(arg *hostrt.Object) (float64, error) {
	if arg.Kind() == hostrt.KindInt {
		v, err := arg.Int64()
		return float64(v), err
	}
	return arg.Float64()
}

func (m *Module) decode(t api.ValueType, v uint64) (*hostrt.Object, error) {
	switch t {
	case api.ValueTypeI32:
		return m.rt.NewInt(int64(api.DecodeI32(v)))
	case api.ValueTypeI64:
		return m.rt.NewInt(int64(v)) //nolint:gosec // G115: i64 results are two's complement
	case api.ValueTypeF32:
		return m.rt.NewFloat(float64(api.DecodeF32(v)))
	default:
		return m.rt.NewFloat(api.DecodeF64(v))
	}
}

// Close releases the module and its wazero runtime. Callables created from
// the module raise an error afterwards. Calling Close more than once is a
// no-op.
func (m *Module) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.runtime.Close(ctx)
}
