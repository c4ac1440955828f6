// Package native describes the Objective-C runtime surface the bridge
// drives. Implementations: native/darwin (libobjc through cgo) and
// native/objcsim (an in-process simulation).
package native

// Runtime handle types. Zero is nil for each of them.
type (
	ID     uintptr
	Class  uintptr
	SEL    uintptr
	Method uintptr
)

// Runtime is the introspection and dispatch surface of the Objective-C
// runtime, named after the libobjc functions it mirrors.
type Runtime interface {
	// GetClass returns the class named name, or 0.
	GetClass(name string) Class
	// ObjectGetClass returns the isa of obj. For a class object this is
	// its metaclass, whose instance methods are the class methods.
	ObjectGetClass(obj ID) Class
	// ObjectGetClassName returns the class name of obj.
	ObjectGetClassName(obj ID) string
	ClassGetName(cls Class) string
	// ClassGetSuperclass returns 0 for a root class.
	ClassGetSuperclass(cls Class) Class
	// ClassGetInstanceMethod searches cls and its ancestors; 0 if not found.
	ClassGetInstanceMethod(cls Class, sel SEL) Method
	// MethodNumberOfArguments counts the receiver and selector slots.
	MethodNumberOfArguments(m Method) int
	MethodArgumentType(m Method, index int) string
	MethodReturnType(m Method) string
	RegisterSelector(name string) SEL
	SelectorName(sel SEL) string
	// MsgSend is the address of the generic message-dispatch entry point.
	MsgSend() uintptr
	// MsgSendFpret is the entry point for methods returning floating-point
	// values. Platforms without a distinct one return MsgSend().
	MsgSendFpret() uintptr
}

// Memory is raw native memory access. No bounds checking is performed.
type Memory interface {
	Malloc(n int) uintptr
	Free(p uintptr)
	ReadWord(p uintptr) uint64
	WriteWord(p uintptr, v uint64)
}

// Loader loads dynamic libraries into the process.
type Loader interface {
	Open(path string) error
}
