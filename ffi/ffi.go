// Package ffi describes and performs dynamically typed calls through the
// platform calling convention.
//
// A call interface (CIF) is prepared once from a return kind and a list of
// argument kinds, then used to call any function pointer of that shape or to
// synthesize a native-callable closure that forwards into Go. Values cross
// this layer as 64-bit machine words; narrower values occupy the low bytes
// of the word, the same layout libffi reads from an argument slot.
//
// Two Callers exist: LibFFI (cgo, darwin) drives the real libffi, and
// CodeTable is an in-process table of Go functions addressable by synthetic
// entry points, used by the simulated Objective-C runtime and by tests.
package ffi

import (
	"errors"
	"fmt"
)

// Kind is the calling-convention type of one argument or return slot.
type Kind int

const (
	Void Kind = iota
	SInt8
	SInt16
	SInt32
	SInt64
	Float
	Double
	Pointer
)

// MaxArgs bounds the number of argument slots a CIF may describe.
const MaxArgs = 32

// ErrPrepare is returned when a call interface cannot be built.
var ErrPrepare = errors.New("ffi: cannot prepare call interface")

// ErrNoCode is returned when a call targets an address with no code behind it.
var ErrNoCode = errors.New("ffi: no code at address")

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case SInt8:
		return "sint8"
	case SInt16:
		return "sint16"
	case SInt32:
		return "sint32"
	case SInt64:
		return "sint64"
	case Float:
		return "float"
	case Double:
		return "double"
	case Pointer:
		return "pointer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsFloat reports whether values of this kind travel in floating-point registers.
func (k Kind) IsFloat() bool {
	return k == Float || k == Double
}

// Size returns the width in bytes of a value of this kind.
func (k Kind) Size() int {
	switch k {
	case SInt8:
		return 1
	case SInt16:
		return 2
	case SInt32, Float:
		return 4
	case SInt64, Double, Pointer:
		return 8
	default:
		return 0
	}
}

// Narrow reduces a machine word to the bits a slot of kind k actually
// carries: signed integers are truncated and sign-extended back to 64 bits,
// floats keep their low 32 bits, void yields zero.
func Narrow(k Kind, w uint64) uint64 {
	switch k {
	case Void:
		return 0
	case SInt8:
		return uint64(int64(int8(w)))
	case SInt16:
		return uint64(int64(int16(w)))
	case SInt32:
		return uint64(int64(int32(w)))
	case Float:
		return w & 0xffffffff
	default:
		return w
	}
}

// CIF is a prepared call interface.
type CIF struct {
	Return Kind
	Args   []Kind

	impl any
}

func (c *CIF) String() string {
	return fmt.Sprintf("%v%v", c.Return, c.Args)
}

// Func is the Go side of a closure: it receives the raw argument words,
// already narrowed to their declared kinds, and returns the raw result word.
type Func func(args []uint64) uint64

// Closure is a native-callable entry point bound to a Func.
type Closure struct {
	// Entry is the address native code calls.
	Entry uintptr
	CIF   *CIF

	impl any
}

// Caller prepares call interfaces, performs calls and allocates closures.
type Caller interface {
	Prepare(ret Kind, args []Kind) (*CIF, error)
	Call(cif *CIF, fn uintptr, args []uint64) (uint64, error)
	NewClosure(cif *CIF, fn Func) (*Closure, error)
	FreeClosure(c *Closure) error
}

// validate checks a return kind and argument list before any Caller builds
// a CIF from them.
func validate(ret Kind, args []Kind) error {
	if ret < Void || ret > Pointer {
		return fmt.Errorf("%w: invalid return kind %v", ErrPrepare, ret)
	}
	if len(args) > MaxArgs {
		return fmt.Errorf("%w: %d arguments exceeds the limit of %d", ErrPrepare, len(args), MaxArgs)
	}
	for i, k := range args {
		if k == Void {
			return fmt.Errorf("%w: argument %d has kind void", ErrPrepare, i)
		}
		if k < Void || k > Pointer {
			return fmt.Errorf("%w: argument %d has invalid kind %v", ErrPrepare, i, k)
		}
	}
	return nil
}
