package objc

import (
	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/objcrt"
)

type NSValue struct {
	NSObject
}

type NSValueMeta struct {
	*objcrt.ClassObject
}

var NSValueClass = &NSValueMeta{objcrt.NewClassObject("NSValue")}

func init() {
	objcrt.Register(&objcrt.Mirror{
		Name:  objcrt.MirrorName("NSValue"),
		Class: NSValueClass,
		New:   func(ptr uintptr) objcrt.ID { return &NSValue{NSObject{objcrt.MakeObject(ptr)}} },
		Doc:   "container for a single C or Objective-C data item",
	})
}

func (m *NSValueMeta) ValueWithPointer(ctx *bridge.Context, p objcrt.Pointer) (*NSValue, error) {
	return bridge.Send[*NSValue](ctx, m, "valueWithPointer:", p)
}

func (v *NSValue) PointerValue(ctx *bridge.Context) (objcrt.Pointer, error) {
	return bridge.Send[objcrt.Pointer](ctx, v, "pointerValue")
}
