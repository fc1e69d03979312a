package entities

// BridgeConfig represents bridge configuration settings.
// These settings control the engine, the host runtime and logging.
type BridgeConfig struct {
	// Database is the SQLite filename or URI. Defaults to an in-memory database.
	Database string `json:"database" yaml:"database" validate:"required"`

	// LogLevel is the logging verbosity level (e.g., "debug", "info", "warn", "error").
	LogLevel string `json:"log_level,omitempty" yaml:"log_level" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// MemoryLimitPages caps the engine's WebAssembly memory in 64KiB pages. Zero keeps the runtime default.
	MemoryLimitPages uint32 `json:"memory_limit_pages,omitempty" yaml:"memory_limit_pages" validate:"max=65536" jsonschema:"minimum=0,maximum=65536"`

	// MaxObjects caps the number of live host objects. Zero means unlimited.
	MaxObjects int `json:"max_objects,omitempty" yaml:"max_objects" validate:"min=0" jsonschema:"minimum=0"`

	// Deterministic sets FlagDeterministic on functions registered through the facade.
	Deterministic bool `json:"deterministic" yaml:"deterministic"`

	// DirectOnly sets FlagDirectOnly on functions registered through the facade.
	DirectOnly bool `json:"direct_only,omitempty" yaml:"direct_only"`

	// Functions lists WebAssembly exports to register at startup.
	Functions []WasmFunctionConfig `json:"functions,omitempty" yaml:"functions" validate:"dive"`
}

// WasmFunctionConfig binds one WebAssembly export to a SQL function name.
type WasmFunctionConfig struct {
	// Name is the SQL function name.
	Name string `json:"name" yaml:"name" validate:"required" jsonschema:"required,minLength=1"`

	// Module is the path of the .wasm file.
	Module string `json:"module" yaml:"module" validate:"required" jsonschema:"required,minLength=1"`

	// Export is the exported function name. Defaults to Name.
	// The SQL arity is the export's parameter count.
	Export string `json:"export,omitempty" yaml:"export"`
}

// ExportName returns Export, or Name when Export is empty.
func (f WasmFunctionConfig) ExportName() string {
	if f.Export != "" {
		return f.Export
	}
	return f.Name
}

// DefaultBridgeConfig returns the default configuration.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Database:      ":memory:",
		LogLevel:      "info",
		Deterministic: true,
	}
}

// Flags returns the function flags implied by the configuration.
func (c BridgeConfig) Flags() FunctionFlags {
	var f FunctionFlags
	if c.Deterministic {
		f |= FlagDeterministic
	}
	if c.DirectOnly {
		f |= FlagDirectOnly
	}
	return f
}

// ConfigOption is a functional option for configuring the bridge.
type ConfigOption func(*BridgeConfig)

// WithDatabase sets the database filename.
func WithDatabase(name string) ConfigOption {
	return func(c *BridgeConfig) {
		if name != "" {
			c.Database = name
		}
	}
}

// WithLogLevel sets the logging verbosity level.
func WithLogLevel(level string) ConfigOption {
	return func(c *BridgeConfig) {
		c.LogLevel = level
	}
}

// WithMaxObjects sets the live host object limit.
func WithMaxObjects(n int) ConfigOption {
	return func(c *BridgeConfig) {
		if n >= 0 {
			c.MaxObjects = n
		}
	}
}

// WithMemoryLimitPages sets the engine memory limit.
func WithMemoryLimitPages(pages uint32) ConfigOption {
	return func(c *BridgeConfig) {
		c.MemoryLimitPages = pages
	}
}

// WithDeterministic toggles FlagDeterministic for facade registrations.
func WithDeterministic(enabled bool) ConfigOption {
	return func(c *BridgeConfig) {
		c.Deterministic = enabled
	}
}

// NewBridgeConfig creates a new BridgeConfig with the given options.
func NewBridgeConfig(opts ...ConfigOption) BridgeConfig {
	cfg := DefaultBridgeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
