// Package types models every value shape that can cross the bridge and
// decodes it from the two places shapes are described: Objective-C runtime
// type encodings and Go reflected type names.
package types

import (
	"errors"
	"fmt"

	"github.com/rubiojr/objcbridge/ffi"
)

// Kind tags a Type.
type Kind int

const (
	Void Kind = iota
	Int
	Long
	Short
	Float
	Double
	Char
	Boolean
	Pointer
	Selector
	Class
	ID     // nil-able untyped native object
	Object // native object of a known mirror class
)

// ErrUnsupported is returned for shapes the bridge does not model.
var ErrUnsupported = errors.New("unsupported type")

// ErrInvalid is returned when a Type violates its payload invariant.
var ErrInvalid = errors.New("invalid type")

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Int:
		return "int"
	case Long:
		return "long"
	case Short:
		return "short"
	case Float:
		return "float"
	case Double:
		return "double"
	case Char:
		return "char"
	case Boolean:
		return "boolean"
	case Pointer:
		return "pointer"
	case Selector:
		return "selector"
	case Class:
		return "class"
	case ID:
		return "id"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsPrimitive reports whether values of this kind are boxed Go scalars.
func (k Kind) IsPrimitive() bool {
	return k >= Int && k <= Boolean
}

// Type is a value shape. Only Object carries a payload: the registry name
// of its mirror class (e.g. "objc/NSString"). Types are compared with ==.
type Type struct {
	Kind Kind
	Name string
}

// Of returns the payload-free Type of kind k. Use Named for Object.
func Of(k Kind) Type {
	return Type{Kind: k}
}

// Named returns the Object type for the given mirror name.
func Named(name string) Type {
	return Type{Kind: Object, Name: name}
}

// Validate checks the payload invariant.
func (t Type) Validate() error {
	if t.Kind < Void || t.Kind > Object {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalid, int(t.Kind))
	}
	if t.Kind == Object && t.Name == "" {
		return fmt.Errorf("%w: object type without a mirror class name", ErrInvalid)
	}
	if t.Kind != Object && t.Name != "" {
		return fmt.Errorf("%w: %s type carries a name %q", ErrInvalid, t.Kind, t.Name)
	}
	return nil
}

func (t Type) String() string {
	if t.Kind == Object {
		return "object(" + t.Name + ")"
	}
	return t.Kind.String()
}

// FFIKind returns the calling-convention kind used for slots of this type.
// Non-primitive kinds are pointer-sized.
func (t Type) FFIKind() ffi.Kind {
	switch t.Kind {
	case Void:
		return ffi.Void
	case Int:
		return ffi.SInt32
	case Long:
		return ffi.SInt64
	case Short:
		return ffi.SInt16
	case Float:
		return ffi.Float
	case Double:
		return ffi.Double
	case Char, Boolean:
		return ffi.SInt8
	default:
		return ffi.Pointer
	}
}
