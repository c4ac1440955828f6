// Package objcrt holds the Go-side wrapper types for native values that
// cross the bridge and the registry of mirror classes.
//
// A mirror class is a Go type standing in for one Objective-C class. Mirrors
// live in a package named objc and register themselves from init() under
// the name MirrorPrefix + native class name (e.g. "objc/NSString").
package objcrt

import (
	"fmt"
	"sync/atomic"
)

// MirrorPackage is the Go package name every mirror class lives in.
const MirrorPackage = "objc"

// MirrorPrefix is the namespace prefix of registered mirror names.
const MirrorPrefix = MirrorPackage + "/"

// MirrorName returns the registry name for a native class name.
func MirrorName(native string) string {
	return MirrorPrefix + native
}

// ID is implemented by every Go value wrapping a native object.
type ID interface {
	Ptr() uintptr
}

// Class is implemented by class singletons. Every class is also an object.
type Class interface {
	ID
	ClassName() string
}

// Object is the embeddable base of mirror instances.
type Object struct {
	ptr uintptr
}

// MakeObject wraps a native object pointer.
func MakeObject(ptr uintptr) Object {
	return Object{ptr: ptr}
}

// Ptr returns the wrapped native pointer.
func (o Object) Ptr() uintptr { return o.ptr }

// IsNil reports whether the wrapped pointer is nil.
func (o Object) IsNil() bool { return o.ptr == 0 }

func (o Object) String() string {
	return fmt.Sprintf("<object %#x>", o.ptr)
}

// Pointer wraps an opaque native address.
type Pointer struct {
	Peer uintptr
}

func (p Pointer) String() string {
	return fmt.Sprintf("Pointer(%#x)", p.Peer)
}

// Selector wraps a native selector token.
type Selector struct {
	Peer uintptr
}

func (s Selector) String() string {
	return fmt.Sprintf("Selector(%#x)", s.Peer)
}

// ClassObject is the singleton standing for one native class. Its native
// pointer is bound the first time the class is resolved.
type ClassObject struct {
	name string
	ptr  atomic.Uintptr
}

// NewClassObject returns an unbound class singleton for the native class name.
func NewClassObject(name string) *ClassObject {
	return &ClassObject{name: name}
}

func (c *ClassObject) Ptr() uintptr { return c.ptr.Load() }

// ClassName returns the native class name.
func (c *ClassObject) ClassName() string { return c.name }

// Bind records the native class pointer. Only the first bind wins; it
// reports whether the singleton now holds ptr.
func (c *ClassObject) Bind(ptr uintptr) bool {
	if c.ptr.CompareAndSwap(0, ptr) {
		return true
	}
	return c.ptr.Load() == ptr
}

// Bound reports whether a native pointer has been recorded.
func (c *ClassObject) Bound() bool { return c.ptr.Load() != 0 }

func (c *ClassObject) String() string {
	return fmt.Sprintf("<class %s %#x>", c.name, c.Ptr())
}

// NilObject is the type of Nil.
type NilObject struct{}

func (NilObject) Ptr() uintptr       { return 0 }
func (NilObject) ClassName() string { return "" }
func (NilObject) String() string    { return "nil" }

// Nil is the canonical nil, usable wherever an ID or a Class is expected.
var Nil = NilObject{}
