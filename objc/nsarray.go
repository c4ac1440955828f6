package objc

import (
	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/objcrt"
)

type NSArray struct {
	NSObject
}

type NSArrayMeta struct {
	*objcrt.ClassObject
}

var NSArrayClass = &NSArrayMeta{objcrt.NewClassObject("NSArray")}

type NSMutableArray struct {
	NSArray
}

type NSMutableArrayMeta struct {
	*objcrt.ClassObject
}

var NSMutableArrayClass = &NSMutableArrayMeta{objcrt.NewClassObject("NSMutableArray")}

func init() {
	objcrt.Register(&objcrt.Mirror{
		Name:  objcrt.MirrorName("NSArray"),
		Class: NSArrayClass,
		New:   func(ptr uintptr) objcrt.ID { return &NSArray{NSObject{objcrt.MakeObject(ptr)}} },
		Doc:   "ordered collection of objects",
	})
	objcrt.Register(&objcrt.Mirror{
		Name:  objcrt.MirrorName("NSMutableArray"),
		Class: NSMutableArrayClass,
		New: func(ptr uintptr) objcrt.ID {
			return &NSMutableArray{NSArray{NSObject{objcrt.MakeObject(ptr)}}}
		},
		Doc: "modifiable ordered collection of objects",
	})
}

func (m *NSArrayMeta) Array(ctx *bridge.Context) (*NSArray, error) {
	return bridge.Send[*NSArray](ctx, m, "array")
}

func (a *NSArray) Count(ctx *bridge.Context) (int64, error) {
	return bridge.Send[int64](ctx, a, "count")
}

func (a *NSArray) ObjectAtIndex(ctx *bridge.Context, i int64) (objcrt.ID, error) {
	return bridge.Send[objcrt.ID](ctx, a, "objectAtIndex:", i)
}

// FirstObject returns objcrt.Nil for an empty array.
func (a *NSArray) FirstObject(ctx *bridge.Context) (objcrt.ID, error) {
	return bridge.Send[objcrt.ID](ctx, a, "firstObject")
}

func (a *NSArray) ContainsObject(ctx *bridge.Context, obj objcrt.ID) (bool, error) {
	return bridge.Send[bool](ctx, a, "containsObject:", obj)
}

func (m *NSMutableArrayMeta) Array(ctx *bridge.Context) (*NSMutableArray, error) {
	return bridge.Send[*NSMutableArray](ctx, m, "array")
}

func (a *NSMutableArray) AddObject(ctx *bridge.Context, obj objcrt.ID) error {
	return bridge.SendVoid(ctx, a, "addObject:", obj)
}

func (a *NSMutableArray) RemoveAllObjects(ctx *bridge.Context) error {
	return bridge.SendVoid(ctx, a, "removeAllObjects")
}

// SortUsingFunction sorts the array with compare, a Go func such as
// func(a, b objcrt.ID, context objcrt.Pointer) int64 returning a negative,
// zero or positive ordering. It becomes a native function pointer for the
// duration of the call.
func (a *NSMutableArray) SortUsingFunction(ctx *bridge.Context, compare any, context objcrt.Pointer) error {
	tr, err := ctx.NewTrampoline(compare)
	if err != nil {
		return err
	}
	defer ctx.Release(tr.Handle())
	return bridge.SendVoid(ctx, a, "sortUsingFunction:context:", objcrt.Pointer{Peer: tr.Entry()}, context)
}
