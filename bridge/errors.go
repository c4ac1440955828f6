package bridge

import (
	"errors"
	"fmt"

	"github.com/rubiojr/objcbridge/types"
)

// Error kinds. Every error returned by a Context wraps exactly one of them.
var (
	// ErrResolution: a native class, method, mirror class or ancestor
	// mapping could not be found.
	ErrResolution = errors.New("resolution failed")
	// ErrUnsupported: a value, closure shape or type the bridge does not model.
	ErrUnsupported = types.ErrUnsupported
	// ErrABI: a call interface could not be built or a call did not match it.
	ErrABI = errors.New("calling convention")
	// ErrEnvironment: thread attachment, library loading, closure
	// allocation or a closed context.
	ErrEnvironment = errors.New("environment")
)

// Error is a failure of one bridge operation.
type Error struct {
	// Op names the operation, e.g. "send" or "trampoline".
	Op string
	// Kind is one of ErrResolution, ErrUnsupported, ErrABI, ErrEnvironment.
	Kind error
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge: %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func errorf(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// wrap attaches op to err. Errors that are already *Error keep their kind.
func wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
