// Package errors provides domain-specific error types for the bridge.
// All error types support error unwrapping via errors.As() and errors.Is().
//
// The three families mirror the three places a failure can happen:
// registering a callable, converting one value, and executing one SQL call.
// Only the kind of a failure is part of the contract; message text is
// diagnostic.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/sqlbridge/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// Kind sentinels. Match them with errors.Is.
var (
	ErrNotCallable    = stdErrors.New("object is not callable")
	ErrInvalidSpec    = stdErrors.New("invalid function spec")
	ErrEngineRejected = stdErrors.New("engine rejected registration")

	ErrEncoding        = stdErrors.New("invalid UTF-8")
	ErrAllocation      = stdErrors.New("host object allocation failed")
	ErrUnsupportedType = stdErrors.New("unsupported type")

	ErrInvalidCallable       = stdErrors.New("failed to call host function")
	ErrArgumentConversion    = stdErrors.New("failed to convert argument")
	ErrCallableRaised        = stdErrors.New("host function raised an error")
	ErrUnsupportedReturnType = stdErrors.New("unsupported return type")
)

// RegistrationKind classifies a failed registration.
type RegistrationKind int

const (
	// NotCallable means the object handed to Register cannot be invoked.
	NotCallable RegistrationKind = iota + 1
	// InvalidSpec means the function name or arity is unusable.
	InvalidSpec
	// EngineRejected means the engine refused to install the function.
	EngineRejected
)

func (k RegistrationKind) String() string {
	switch k {
	case NotCallable:
		return "not_callable"
	case InvalidSpec:
		return "invalid_spec"
	case EngineRejected:
		return "engine_rejected"
	default:
		return "unknown"
	}
}

func (k RegistrationKind) sentinel() error {
	switch k {
	case NotCallable:
		return ErrNotCallable
	case InvalidSpec:
		return ErrInvalidSpec
	case EngineRejected:
		return ErrEngineRejected
	default:
		return nil
	}
}

// RegistrationError is returned by Register. The attempt is fully rolled back.
type RegistrationError struct {
	Err  error
	Name string
	Kind RegistrationKind
}

func (e *RegistrationError) Error() string {
	msg := fmt.Sprintf("register %q: %v", e.Name, e.Kind.sentinel())
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *RegistrationError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// ToErrorDetail implements DetailedError.
func (e *RegistrationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "registration", Code: e.Kind.String()}
}

// ConversionKind classifies a failed value conversion.
type ConversionKind int

const (
	// Encoding means text was not valid UTF-8.
	Encoding ConversionKind = iota + 1
	// Allocation means the host runtime could not create the object.
	Allocation
	// UnsupportedType means the value's tag has no mapping.
	UnsupportedType
)

func (k ConversionKind) String() string {
	switch k {
	case Encoding:
		return "encoding"
	case Allocation:
		return "allocation"
	case UnsupportedType:
		return "unsupported_type"
	default:
		return "unknown"
	}
}

func (k ConversionKind) sentinel() error {
	switch k {
	case Encoding:
		return ErrEncoding
	case Allocation:
		return ErrAllocation
	case UnsupportedType:
		return ErrUnsupportedType
	default:
		return nil
	}
}

// ConversionError is returned by the codec for one argument or result.
type ConversionError struct {
	Err error
	// Type names the offending tag: a cell type or a host object kind.
	Type string
	Kind ConversionKind
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("convert %s: %v", e.Type, e.Kind.sentinel())
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *ConversionError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// ToErrorDetail implements DetailedError.
func (e *ConversionError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "conversion",
		Code:    e.Kind.String(),
		Details: map[string]any{"type": e.Type},
	}
}

// ExecutionKind classifies a failed SQL call.
type ExecutionKind int

const (
	// InvalidCallable means the registration no longer holds a usable callable.
	InvalidCallable ExecutionKind = iota + 1
	// ArgumentConversion means an argument cell could not become a host object.
	ArgumentConversion
	// CallableRaised means the host callable reported an error.
	CallableRaised
	// UnsupportedReturnType means the result could not become a cell.
	UnsupportedReturnType
)

func (k ExecutionKind) String() string {
	switch k {
	case InvalidCallable:
		return "invalid_callable"
	case ArgumentConversion:
		return "argument_conversion"
	case CallableRaised:
		return "callable_raised"
	case UnsupportedReturnType:
		return "unsupported_return_type"
	default:
		return "unknown"
	}
}

func (k ExecutionKind) sentinel() error {
	switch k {
	case InvalidCallable:
		return ErrInvalidCallable
	case ArgumentConversion:
		return ErrArgumentConversion
	case CallableRaised:
		return ErrCallableRaised
	case UnsupportedReturnType:
		return ErrUnsupportedReturnType
	default:
		return nil
	}
}

// ExecutionError is reported to the engine as the result of one SQL call.
type ExecutionError struct {
	Err      error
	Function string
	Kind     ExecutionKind
	// Arg is the zero-based index of the failing argument for ArgumentConversion, else -1.
	Arg int
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Function, e.Kind.sentinel())
	if e.Kind == ArgumentConversion && e.Arg >= 0 {
		msg = fmt.Sprintf("%s #%d", msg, e.Arg+1)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *ExecutionError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// ToErrorDetail implements DetailedError.
func (e *ExecutionError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "execution", Code: e.Kind.String()}
	if e.Err != nil {
		detail.Wrapped = ToErrorDetail(e.Err)
	}
	return detail
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// SchemaError represents a schema generation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: "schema"}
}
