package objc

import (
	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/objcrt"
)

type NSAutoreleasePool struct {
	NSObject
}

type NSAutoreleasePoolMeta struct {
	*objcrt.ClassObject
}

var NSAutoreleasePoolClass = &NSAutoreleasePoolMeta{objcrt.NewClassObject("NSAutoreleasePool")}

func init() {
	objcrt.Register(&objcrt.Mirror{
		Name:  objcrt.MirrorName("NSAutoreleasePool"),
		Class: NSAutoreleasePoolClass,
		New: func(ptr uintptr) objcrt.ID {
			return &NSAutoreleasePool{NSObject{objcrt.MakeObject(ptr)}}
		},
		Doc: "scope for objects sent autorelease",
	})
}

func (m *NSAutoreleasePoolMeta) Alloc(ctx *bridge.Context) (*NSAutoreleasePool, error) {
	return bridge.Send[*NSAutoreleasePool](ctx, m, "alloc")
}

func (p *NSAutoreleasePool) Init(ctx *bridge.Context) (*NSAutoreleasePool, error) {
	return bridge.Send[*NSAutoreleasePool](ctx, p, "init")
}

// Drain releases the pool's objects and the pool itself.
func (p *NSAutoreleasePool) Drain(ctx *bridge.Context) error {
	return bridge.SendVoid(ctx, p, "drain")
}
