// Package ports defines the narrow interfaces through which the bridge talks
// to the relational engine and to configuration sources.
// Domain and application code depend on these abstractions; infrastructure
// adapters implement them.
package ports
