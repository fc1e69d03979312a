package hostrt

import (
	"errors"
	"fmt"
)

// Sentinel causes. Match them with errors.Is on the error a runtime call returns.
var (
	// ErrRaised is returned by Call when the callable failed; the cause is pending.
	ErrRaised = errors.New("hostrt: error raised")
	// ErrNoMemory is the cause of a failed allocation.
	ErrNoMemory = errors.New("hostrt: object limit reached")
	// ErrUnicode is the cause of a failed UTF-8 decode or encode.
	ErrUnicode = errors.New("hostrt: invalid UTF-8")
)

// HostError is an error raised inside the runtime, the equivalent of a
// scripting-language exception. Type names the exception class.
type HostError struct {
	Err  error
	Type string
	Msg  string
}

func (e *HostError) Error() string {
	if e.Msg == "" {
		return e.Type
	}
	return e.Type + ": " + e.Msg
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// Errorf builds a HostError of the given type.
func Errorf(typ, format string, args ...any) *HostError {
	return &HostError{Type: typ, Msg: fmt.Sprintf(format, args...)}
}

func (rt *Runtime) typeError(want string, got *Object) *HostError {
	he := Errorf("TypeError", "expected %s, got %s", want, got.kind)
	rt.Raise(he)
	return he
}
