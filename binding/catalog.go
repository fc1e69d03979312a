package binding

import (
	"errors"
	"fmt"
	"sort"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/reglet-dev/sqlbridge/hostrt"
)

// Catalog is an immutable set of functions registered in one engine.
// Once created via NewCatalog, functions cannot be added; Close removes all
// of them.
type Catalog struct {
	engine ports.Engine
	regs   map[string]*Registration
	names  []string // sorted for consistent iteration
}

// CatalogOption is a functional option for NewCatalog.
type CatalogOption func(*catalogBuilder)

type catalogBuilder struct {
	entries []catalogEntry
	seen    map[string]struct{}
	opts    []Option
	errors  []error
}

type catalogEntry struct {
	callable *hostrt.Object
	spec     entities.FunctionSpec
}

// NewCatalog registers every function given with WithFunction in engine.
// Returns an error if a name is given twice or any registration fails; in
// the latter case the functions registered so far are removed again when the
// engine supports it.
//
// Example usage:
//
//	catalog, err := binding.NewCatalog(engine, rt,
//	    binding.WithCatalogOptions(binding.WithMiddleware(binding.LoggingMiddleware(logger))),
//	    binding.WithFunction(entities.NewFunctionSpec("identity"), identity),
//	    binding.WithFunction(entities.NewFunctionSpec("add").WithArity(2), add),
//	)
func NewCatalog(engine ports.Engine, rt *hostrt.Runtime, opts ...CatalogOption) (*Catalog, error) {
	b := &catalogBuilder{seen: make(map[string]struct{})}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, b.errors[0] // Return first error
	}

	c := &Catalog{engine: engine, regs: make(map[string]*Registration, len(b.entries))}
	for _, e := range b.entries {
		reg, err := Register(engine, rt, e.spec, e.callable, b.opts...)
		if err != nil {
			return nil, errors.Join(err, c.Close())
		}
		c.regs[e.spec.Name] = reg
		c.names = append(c.names, e.spec.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

// WithFunction adds callable under spec. The catalog takes its own reference.
func WithFunction(spec entities.FunctionSpec, callable *hostrt.Object) CatalogOption {
	return func(b *catalogBuilder) {
		if _, exists := b.seen[spec.Name]; exists {
			b.errors = append(b.errors, fmt.Errorf("duplicate function name: %q", spec.Name))
			return
		}
		b.seen[spec.Name] = struct{}{}
		b.entries = append(b.entries, catalogEntry{spec: spec, callable: callable})
	}
}

// WithCatalogOptions applies opts to every registration of the catalog.
func WithCatalogOptions(opts ...Option) CatalogOption {
	return func(b *catalogBuilder) {
		b.opts = append(b.opts, opts...)
	}
}

// Get returns the registration for name, or nil.
func (c *Catalog) Get(name string) *Registration {
	return c.regs[name]
}

// Has returns true if a function with the given name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.regs[name]
	return ok
}

// Names returns a sorted list of all registered function names.
func (c *Catalog) Names() []string {
	result := make([]string, len(c.names))
	copy(result, c.names)
	return result
}

// Close drops every function from the engine, which tears the registrations
// down. Engines that cannot drop single functions release them when they
// close; Close then leaves them alone.
func (c *Catalog) Close() error {
	dropper, ok := c.engine.(ports.FunctionDropper)
	if !ok {
		return nil
	}
	var errs []error
	for name, reg := range c.regs {
		if err := dropper.DropFunction(name, reg.spec.Arity); err != nil {
			errs = append(errs, fmt.Errorf("drop %q: %w", name, err))
		}
		delete(c.regs, name)
	}
	c.names = nil
	return errors.Join(errs...)
}
