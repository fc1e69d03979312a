package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationError(t *testing.T) {
	baseErr := fmt.Errorf("SQLITE_MISUSE")
	err := &RegistrationError{Name: "py", Kind: EngineRejected, Err: baseErr}

	assert.Equal(t, `register "py": engine rejected registration: SQLITE_MISUSE`, err.Error())
	assert.True(t, errors.Is(err, ErrEngineRejected))
	assert.True(t, errors.Is(err, baseErr))
	assert.False(t, errors.Is(err, ErrNotCallable))

	var regErr *RegistrationError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, EngineRejected, regErr.Kind)
}

func TestRegistrationError_NoCause(t *testing.T) {
	err := &RegistrationError{Name: "f", Kind: NotCallable}
	assert.Equal(t, `register "f": object is not callable`, err.Error())
	assert.True(t, errors.Is(err, ErrNotCallable))
}

func TestConversionError(t *testing.T) {
	err := &ConversionError{Type: "TEXT", Kind: Encoding}
	assert.Equal(t, "convert TEXT: invalid UTF-8", err.Error())
	assert.True(t, errors.Is(err, ErrEncoding))
	assert.False(t, errors.Is(err, ErrAllocation))

	detail := err.ToErrorDetail()
	assert.Equal(t, "conversion", detail.Type)
	assert.Equal(t, "encoding", detail.Code)
	assert.Equal(t, "TEXT", detail.Details["type"])
}

func TestExecutionError_WrapsConversion(t *testing.T) {
	conv := &ConversionError{Type: "map", Kind: UnsupportedType}
	err := &ExecutionError{Function: "f", Kind: UnsupportedReturnType, Arg: -1, Err: conv}

	assert.True(t, errors.Is(err, ErrUnsupportedReturnType))
	assert.True(t, errors.Is(err, ErrUnsupportedType), "kind of the wrapped conversion error is reachable")
	assert.Equal(t, "f: unsupported return type: convert map: unsupported type", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "unsupported_return_type", detail.Code)
	require.NotNil(t, detail.Wrapped)
	assert.Equal(t, "unsupported_type", detail.Wrapped.Code)
}

func TestExecutionError_ArgumentIndex(t *testing.T) {
	err := &ExecutionError{Function: "f", Kind: ArgumentConversion, Arg: 2}
	assert.Equal(t, "f: failed to convert argument #3", err.Error())
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "not_callable", NotCallable.String())
	assert.Equal(t, "invalid_spec", InvalidSpec.String())
	assert.Equal(t, "allocation", Allocation.String())
	assert.Equal(t, "callable_raised", CallableRaised.String())
	assert.Equal(t, "unknown", ExecutionKind(0).String())
}

func TestToErrorDetail(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		wantType string
		wantCode string
	}{
		{name: "nil", err: nil},
		{name: "generic", err: fmt.Errorf("boom"), wantType: "internal"},
		{name: "config", err: &ConfigError{Field: "log_level", Err: fmt.Errorf("bad")}, wantType: "config", wantCode: "log_level"},
		{name: "schema", err: &SchemaError{Type: "BridgeConfig", Err: fmt.Errorf("bad")}, wantType: "config", wantCode: "schema"},
		{name: "wrapped execution", err: fmt.Errorf("ctx: %w", &ExecutionError{Kind: CallableRaised, Arg: -1}), wantType: "execution", wantCode: "callable_raised"},
		{name: "entity", err: entities.NewErrorDetail("internal", "x").WithCode("c"), wantType: "internal", wantCode: "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToErrorDetail(tt.err)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}
