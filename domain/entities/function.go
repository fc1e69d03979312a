package entities

import "strings"

// AnyArity registers a function that accepts any number of arguments.
const AnyArity = -1

// MaxArity is the largest fixed arity SQLite accepts for a function.
const MaxArity = 127

// FunctionFlags are the engine-level properties of a registered function.
type FunctionFlags uint8

const (
	// FlagDeterministic marks the function as always returning the same
	// result for the same arguments within one statement.
	FlagDeterministic FunctionFlags = 1 << iota
	// FlagDirectOnly forbids use from triggers, views and schema structures.
	FlagDirectOnly
	// FlagInnocuous marks the function as free of side effects.
	FlagInnocuous
)

// Has reports whether all bits of f are set.
func (fl FunctionFlags) Has(f FunctionFlags) bool { return fl&f == f }

// String lists the set flags separated by "|".
func (fl FunctionFlags) String() string {
	var parts []string
	if fl.Has(FlagDeterministic) {
		parts = append(parts, "deterministic")
	}
	if fl.Has(FlagDirectOnly) {
		parts = append(parts, "directonly")
	}
	if fl.Has(FlagInnocuous) {
		parts = append(parts, "innocuous")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// FunctionSpec describes how a callable is installed in the engine.
type FunctionSpec struct {
	// Name is the SQL-visible function name.
	Name string `json:"name" yaml:"name" validate:"required,max=255"`

	// Arity is the fixed argument count, or AnyArity.
	Arity int `json:"arity" yaml:"arity" validate:"min=-1,max=127"`

	// Flags are passed through to the engine.
	Flags FunctionFlags `json:"flags" yaml:"flags"`
}

// NewFunctionSpec returns a spec accepting any number of arguments with the
// deterministic flag set, the configuration most SQL functions want.
func NewFunctionSpec(name string) FunctionSpec {
	return FunctionSpec{
		Name:  name,
		Arity: AnyArity,
		Flags: FlagDeterministic,
	}
}

// WithArity returns a copy of s with a fixed arity.
func (s FunctionSpec) WithArity(n int) FunctionSpec {
	s.Arity = n
	return s
}

// WithFlags returns a copy of s with the given flags.
func (s FunctionSpec) WithFlags(f FunctionFlags) FunctionSpec {
	s.Flags = f
	return s
}
