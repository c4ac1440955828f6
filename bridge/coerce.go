package bridge

import (
	"fmt"
	"math"
	"reflect"

	"github.com/rubiojr/objcbridge/native"
	"github.com/rubiojr/objcbridge/objcrt"
	"github.com/rubiojr/objcbridge/types"
)

var primitiveKinds = []types.Kind{
	types.Int, types.Long, types.Short, types.Float,
	types.Double, types.Char, types.Boolean,
}

// boxers turn a raw word into the Go value of each primitive kind. Only the
// low bytes the kind occupies are read.
var boxers = map[types.Kind]func(uint64) any{
	types.Int:     func(w uint64) any { return int32(w) },
	types.Long:    func(w uint64) any { return int64(w) },
	types.Short:   func(w uint64) any { return int16(w) },
	types.Float:   func(w uint64) any { return math.Float32frombits(uint32(w)) },
	types.Double:  func(w uint64) any { return math.Float64frombits(w) },
	types.Char:    func(w uint64) any { return uint8(w) },
	types.Boolean: func(w uint64) any { return uint8(w) != 0 },
}

// unboxers turn a Go primitive into a raw word, sign-extending integers the
// way the ABI widens a narrow argument slot. char is signed on the native side.
var unboxers = map[reflect.Type]func(any) uint64{
	reflect.TypeFor[int32]():   func(v any) uint64 { return uint64(int64(v.(int32))) },
	reflect.TypeFor[int64]():   func(v any) uint64 { return uint64(v.(int64)) },
	reflect.TypeFor[int]():     func(v any) uint64 { return uint64(int64(v.(int))) },
	reflect.TypeFor[int16]():   func(v any) uint64 { return uint64(int64(v.(int16))) },
	reflect.TypeFor[float32](): func(v any) uint64 { return uint64(math.Float32bits(v.(float32))) },
	reflect.TypeFor[float64](): func(v any) uint64 { return math.Float64bits(v.(float64)) },
	reflect.TypeFor[uint8]():   func(v any) uint64 { return uint64(int64(int8(v.(uint8)))) },
	reflect.TypeFor[bool](): func(v any) uint64 {
		if v.(bool) {
			return 1
		}
		return 0
	},
}

// capability is one way of turning a Go value into a native word.
type capability struct {
	name    string
	match   func(c *Context, v any) bool
	convert func(c *Context, v any) (uint64, error)
}

// capabilities returns the conversions ToNative tries, in priority order.
func capabilities() []capability {
	return []capability{
		{"nil", isNil, func(*Context, any) (uint64, error) { return 0, nil }},
		{"primitive", func(c *Context, v any) bool {
			_, ok := c.unbox[reflect.TypeOf(v)]
			return ok
		}, func(c *Context, v any) (uint64, error) {
			return c.unbox[reflect.TypeOf(v)](v), nil
		}},
		{"pointer", func(_ *Context, v any) bool {
			switch v.(type) {
			case objcrt.Pointer, *objcrt.Pointer:
				return true
			}
			return false
		}, func(_ *Context, v any) (uint64, error) {
			if p, ok := v.(*objcrt.Pointer); ok {
				return uint64(p.Peer), nil
			}
			return uint64(v.(objcrt.Pointer).Peer), nil
		}},
		{"selector", func(_ *Context, v any) bool {
			switch v.(type) {
			case objcrt.Selector, *objcrt.Selector:
				return true
			}
			return false
		}, func(_ *Context, v any) (uint64, error) {
			if s, ok := v.(*objcrt.Selector); ok {
				return uint64(s.Peer), nil
			}
			return uint64(v.(objcrt.Selector).Peer), nil
		}},
		{"unbound class", func(_ *Context, v any) bool {
			cls, ok := v.(objcrt.Class)
			if !ok || cls.Ptr() != 0 || cls.ClassName() == "" {
				return false
			}
			_, ok = v.(binder)
			return ok
		}, func(c *Context, v any) (uint64, error) {
			cls := v.(objcrt.Class)
			ptr := c.rt.GetClass(cls.ClassName())
			if ptr == 0 {
				return 0, errorf("coerce", ErrResolution, "native class %s not found", cls.ClassName())
			}
			v.(binder).Bind(uintptr(ptr))
			return uint64(cls.Ptr()), nil
		}},
		{"object", func(_ *Context, v any) bool {
			_, ok := v.(objcrt.ID)
			return ok
		}, func(_ *Context, v any) (uint64, error) {
			return uint64(v.(objcrt.ID).Ptr()), nil
		}},
		{"closure", func(_ *Context, v any) bool {
			t := reflect.TypeOf(v)
			return t.Kind() == reflect.Func && !t.IsVariadic() && t.NumIn() <= MaxClosureArity
		}, func(c *Context, v any) (uint64, error) {
			tr, err := c.NewTrampoline(v)
			if err != nil {
				return 0, err
			}
			return uint64(tr.Entry()), nil
		}},
	}
}

// binder is implemented by class singletons that are bound lazily.
type binder interface {
	Bind(ptr uintptr) bool
}

// isNil matches untyped nil, objcrt.Nil and nil pointers or funcs.
func isNil(_ *Context, v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(objcrt.NilObject); ok {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// ToNative converts a Go value into the native word that stands for it. The
// value's dynamic type decides the conversion: primitives unbox, wrappers
// yield their address, objects their native pointer and funcs the entry
// point of a freshly made trampoline.
func (c *Context) ToNative(v any) (uint64, error) {
	for _, cp := range c.caps {
		if cp.match(c, v) {
			return cp.convert(c, v)
		}
	}
	return 0, errorf("coerce", ErrUnsupported, "unsupported Go value type %T", v)
}

// ToManaged converts a raw native word into the Go value of type t.
//
// A nil Class or ID word yields objcrt.Nil. A nil word of a named object type
// yields that mirror wrapping a nil pointer. A non-nil object resolves to
// the mirror of its most derived class that has one.
func (c *Context) ToManaged(w uint64, t types.Type) (any, error) {
	if t.Kind.IsPrimitive() {
		return c.box[t.Kind](w), nil
	}
	switch t.Kind {
	case types.Void:
		return nil, nil
	case types.Pointer:
		return objcrt.Pointer{Peer: uintptr(w)}, nil
	case types.Selector:
		return objcrt.Selector{Peer: uintptr(w)}, nil
	case types.Class:
		if w == 0 {
			return objcrt.Nil, nil
		}
		return c.classFor(native.Class(w))
	case types.ID:
		if w == 0 {
			return objcrt.Nil, nil
		}
		return c.instanceFor(native.ID(w))
	case types.Object:
		if w == 0 {
			m, ok := c.registry.Lookup(t.Name)
			if !ok {
				return nil, errorf("coerce", ErrResolution, "mirror class %s not registered", t.Name)
			}
			return m.New(0), nil
		}
		return c.instanceFor(native.ID(w))
	}
	return nil, errorf("coerce", ErrUnsupported, "cannot convert to %v", t)
}

// classFor returns the class singleton of the mirror for cls, bound to cls.
func (c *Context) classFor(cls native.Class) (objcrt.Class, error) {
	name := c.rt.ClassGetName(cls)
	m, ok := c.registry.Lookup(objcrt.MirrorName(name))
	if !ok {
		return nil, errorf("coerce", ErrResolution, "no mirror class for native class %s", name)
	}
	if b, ok := m.Class.(binder); ok {
		b.Bind(uintptr(cls))
	}
	return m.Class, nil
}

// instanceFor wraps obj in the mirror of the nearest class, starting at its
// runtime class and walking up, that has one.
func (c *Context) instanceFor(obj native.ID) (objcrt.ID, error) {
	for cls := c.rt.ObjectGetClass(obj); cls != 0; cls = c.rt.ClassGetSuperclass(cls) {
		if m, ok := c.registry.Lookup(objcrt.MirrorName(c.rt.ClassGetName(cls))); ok {
			return m.New(uintptr(obj)), nil
		}
	}
	return nil, errorf("coerce", ErrResolution,
		"no mirror class for %s or any of its superclasses", c.rt.ObjectGetClassName(obj))
}

// assign adapts a converted value to the Go type t: scalars convert between
// widths, wrappers can be taken by pointer and nil becomes t's zero value.
// An object whose mirror is more derived than the mirror t names is
// rewrapped in t's mirror, provided its native class descends from it.
func (c *Context) assign(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)
		return p, nil
	case isScalar(rv.Kind()) && isScalar(t.Kind()) && rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	}
	if obj, ok := v.(objcrt.ID); ok {
		if up, ok := c.upcast(obj, t); ok {
			return reflect.ValueOf(up), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrUnsupported, rv.Type(), t)
}

// upcast wraps obj in the mirror named by t when obj's native class is that
// mirror's class or one of its subclasses.
func (c *Context) upcast(obj objcrt.ID, t reflect.Type) (objcrt.ID, bool) {
	typ, err := types.FromReflectType(t)
	if err != nil || typ.Kind != types.Object {
		return nil, false
	}
	m, ok := c.registry.Lookup(typ.Name)
	if !ok {
		return nil, false
	}
	if obj.Ptr() == 0 {
		return m.New(0), true
	}
	want := m.NativeName()
	for cls := c.rt.ObjectGetClass(native.ID(obj.Ptr())); cls != 0; cls = c.rt.ClassGetSuperclass(cls) {
		if c.rt.ClassGetName(cls) == want {
			up := m.New(obj.Ptr())
			if !reflect.TypeOf(up).AssignableTo(t) {
				return nil, false
			}
			return up, true
		}
	}
	return nil, false
}

func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
