// Package objc holds mirror classes for a subset of Foundation.
//
// Each class has its own file that self-registers via init(). A mirror is a
// Go struct embedding its superclass mirror (NSObject embeds objcrt.Object)
// plus a class singleton, NSNumberClass and so on, whose methods are the
// class methods. To mirror another class, add a file and call
// objcrt.Register; the bridge finds it by name.
package objc

import (
	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/objcrt"
)

// NSObject is the root mirror.
type NSObject struct {
	objcrt.Object
}

// NSObjectMeta is the type of NSObjectClass.
type NSObjectMeta struct {
	*objcrt.ClassObject
}

// NSObjectClass is the NSObject class singleton.
var NSObjectClass = &NSObjectMeta{objcrt.NewClassObject("NSObject")}

func init() {
	objcrt.Register(&objcrt.Mirror{
		Name:  objcrt.MirrorName("NSObject"),
		Class: NSObjectClass,
		New:   func(ptr uintptr) objcrt.ID { return &NSObject{objcrt.MakeObject(ptr)} },
		Doc:   "root class of most Objective-C class hierarchies",
	})
}

// Alloc returns a new uninitialized instance.
func (m *NSObjectMeta) Alloc(ctx *bridge.Context) (*NSObject, error) {
	return bridge.Send[*NSObject](ctx, m, "alloc")
}

// New returns a new initialized instance.
func (m *NSObjectMeta) New(ctx *bridge.Context) (*NSObject, error) {
	return bridge.Send[*NSObject](ctx, m, "new")
}

func (o *NSObject) Init(ctx *bridge.Context) (objcrt.ID, error) {
	return bridge.Send[objcrt.ID](ctx, o, "init")
}

func (o *NSObject) Class(ctx *bridge.Context) (objcrt.Class, error) {
	return bridge.Send[objcrt.Class](ctx, o, "class")
}

func (o *NSObject) Hash(ctx *bridge.Context) (int64, error) {
	return bridge.Send[int64](ctx, o, "hash")
}

func (o *NSObject) IsEqual(ctx *bridge.Context, other objcrt.ID) (bool, error) {
	return bridge.Send[bool](ctx, o, "isEqual:", other)
}

func (o *NSObject) IsKindOfClass(ctx *bridge.Context, cls objcrt.Class) (bool, error) {
	return bridge.Send[bool](ctx, o, "isKindOfClass:", cls)
}

func (o *NSObject) RespondsToSelector(ctx *bridge.Context, sel objcrt.Selector) (bool, error) {
	return bridge.Send[bool](ctx, o, "respondsToSelector:", sel)
}
