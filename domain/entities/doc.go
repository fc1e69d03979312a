// Package entities provides core domain entities for the bridge.
// These are plain value types shared by the codec, the binding and the
// engine and runtime adapters. They carry no behaviour that depends on a
// particular SQL engine or host runtime.
package entities
