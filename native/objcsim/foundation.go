package objcsim

import (
	"fmt"
	"math"
	"sort"

	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native"
)

// NewFoundation returns a runtime with the Foundation subset installed.
func NewFoundation(code *ffi.CodeTable) *Runtime {
	r := New(code)
	if err := InstallFoundation(r); err != nil {
		panic(err)
	}
	return r
}

// InstallFoundation defines NSObject, NSAutoreleasePool, NSValue, NSNumber,
// NSArray and NSMutableArray, plus the private concrete subclasses real
// Foundation hands out (__NSCFNumber, __NSArrayM).
func InstallFoundation(r *Runtime) error {
	b, err := r.DefineClass("NSObject", "")
	if err != nil {
		return err
	}
	b.ClassMethod("alloc", "@16@0:8", func(c *Call) uint64 {
		return uint64(c.Runtime.Alloc(native.Class(c.Self)))
	}).ClassMethod("new", "@16@0:8", func(c *Call) uint64 {
		obj := c.Runtime.Send(c.Self, "alloc")
		return c.Runtime.Send(native.ID(obj), "init")
	}).ClassMethod("class", "#16@0:8", func(c *Call) uint64 {
		return uint64(c.Self)
	}).Method("init", "@16@0:8", func(c *Call) uint64 {
		return uint64(c.Self)
	}).Method("self", "@16@0:8", func(c *Call) uint64 {
		return uint64(c.Self)
	}).Method("class", "#16@0:8", func(c *Call) uint64 {
		return uint64(c.Runtime.ObjectGetClass(c.Self))
	}).Method("hash", "Q16@0:8", func(c *Call) uint64 {
		return uint64(c.Self)
	}).Method("isEqual:", "B24@0:8@16", func(c *Call) uint64 {
		return boolWord(uint64(c.Self) == c.Args[0])
	}).Method("isKindOfClass:", "B24@0:8#16", func(c *Call) uint64 {
		return boolWord(c.Runtime.IsKindOf(c.Self, native.Class(c.Args[0])))
	}).Method("respondsToSelector:", "B24@0:8:16", func(c *Call) uint64 {
		cls := c.Runtime.ObjectGetClass(c.Self)
		return boolWord(c.Runtime.ClassGetInstanceMethod(cls, native.SEL(c.Args[0])) != 0)
	})

	b, err = r.DefineClass("NSAutoreleasePool", "NSObject")
	if err != nil {
		return err
	}
	b.Method("init", "@16@0:8", func(c *Call) uint64 {
		c.Runtime.Stats.PoolsOpen.Add(1)
		return uint64(c.Self)
	}).Method("drain", "v16@0:8", func(c *Call) uint64 {
		c.Runtime.Stats.PoolsOpen.Add(-1)
		c.Runtime.Stats.PoolDrains.Add(1)
		return 0
	})

	b, err = r.DefineClass("NSValue", "NSObject")
	if err != nil {
		return err
	}
	b.ClassMethod("valueWithPointer:", "@24@0:8^v16", func(c *Call) uint64 {
		obj := c.Runtime.Alloc(native.Class(c.Self))
		c.Runtime.SetIvar(obj, "pointer", c.Args[0])
		return uint64(obj)
	}).Method("pointerValue", "^v16@0:8", func(c *Call) uint64 {
		w, _ := c.Runtime.Ivar(c.Self, "pointer").(uint64)
		return w
	})

	if err := installNumber(r); err != nil {
		return err
	}
	return installArray(r)
}

// number is the payload of an NSNumber instance.
type number struct {
	i int64
	f float64
}

func installNumber(r *Runtime) error {
	b, err := r.DefineClass("NSNumber", "NSValue")
	if err != nil {
		return err
	}
	if _, err := r.DefineClass("__NSCFNumber", "NSNumber"); err != nil {
		return err
	}
	box := func(c *Call, n number) uint64 {
		obj := c.Runtime.Alloc(c.Runtime.GetClass("__NSCFNumber"))
		c.Runtime.SetIvar(obj, "number", n)
		return uint64(obj)
	}
	unbox := func(c *Call) number {
		n, _ := c.Runtime.Ivar(c.Self, "number").(number)
		return n
	}

	b.ClassMethod("numberWithInt:", "@20@0:8i16", func(c *Call) uint64 {
		v := int64(int32(c.Args[0]))
		return box(c, number{i: v, f: float64(v)})
	}).ClassMethod("numberWithShort:", "@20@0:8s16", func(c *Call) uint64 {
		v := int64(int16(c.Args[0]))
		return box(c, number{i: v, f: float64(v)})
	}).ClassMethod("numberWithLongLong:", "@24@0:8q16", func(c *Call) uint64 {
		v := int64(c.Args[0])
		return box(c, number{i: v, f: float64(v)})
	}).ClassMethod("numberWithChar:", "@20@0:8c16", func(c *Call) uint64 {
		v := int64(int8(c.Args[0]))
		return box(c, number{i: v, f: float64(v)})
	}).ClassMethod("numberWithBool:", "@20@0:8B16", func(c *Call) uint64 {
		v := int64(c.Args[0] & 0xff)
		if v != 0 {
			v = 1
		}
		return box(c, number{i: v, f: float64(v)})
	}).ClassMethod("numberWithFloat:", "@20@0:8f16", func(c *Call) uint64 {
		v := float64(math.Float32frombits(uint32(c.Args[0])))
		return box(c, number{i: int64(v), f: v})
	}).ClassMethod("numberWithDouble:", "@24@0:8d16", func(c *Call) uint64 {
		v := math.Float64frombits(c.Args[0])
		return box(c, number{i: int64(v), f: v})
	})

	b.Method("intValue", "i16@0:8", func(c *Call) uint64 {
		return uint64(int64(int32(unbox(c).i)))
	}).Method("shortValue", "s16@0:8", func(c *Call) uint64 {
		return uint64(int64(int16(unbox(c).i)))
	}).Method("longLongValue", "q16@0:8", func(c *Call) uint64 {
		return uint64(unbox(c).i)
	}).Method("charValue", "c16@0:8", func(c *Call) uint64 {
		return uint64(int64(int8(unbox(c).i)))
	}).Method("boolValue", "B16@0:8", func(c *Call) uint64 {
		return boolWord(unbox(c).i != 0)
	}).Method("floatValue", "f16@0:8", func(c *Call) uint64 {
		return uint64(math.Float32bits(float32(unbox(c).f)))
	}).Method("doubleValue", "d16@0:8", func(c *Call) uint64 {
		return math.Float64bits(unbox(c).f)
	}).Method("compare:", "q24@0:8@16", func(c *Call) uint64 {
		a := unbox(c).f
		o, _ := c.Runtime.Ivar(native.ID(c.Args[0]), "number").(number)
		switch {
		case a < o.f:
			return uint64(math.MaxUint64) // NSOrderedAscending
		case a > o.f:
			return 1
		default:
			return 0
		}
	}).Method("isEqualToNumber:", "B24@0:8@16", func(c *Call) uint64 {
		o, _ := c.Runtime.Ivar(native.ID(c.Args[0]), "number").(number)
		return boolWord(unbox(c) == o)
	})
	return nil
}

func installArray(r *Runtime) error {
	items := func(c *Call) []native.ID {
		list, _ := c.Runtime.Ivar(c.Self, "items").([]native.ID)
		return list
	}

	b, err := r.DefineClass("NSArray", "NSObject")
	if err != nil {
		return err
	}
	b.ClassMethod("array", "@16@0:8", func(c *Call) uint64 {
		return uint64(c.Runtime.Alloc(native.Class(c.Self)))
	}).Method("count", "Q16@0:8", func(c *Call) uint64 {
		return uint64(len(items(c)))
	}).Method("objectAtIndex:", "@24@0:8Q16", func(c *Call) uint64 {
		list := items(c)
		if c.Args[0] >= uint64(len(list)) {
			panic(fmt.Sprintf("objcsim: -[%s objectAtIndex:]: index %d beyond bounds [0 .. %d]",
				c.Runtime.ObjectGetClassName(c.Self), c.Args[0], len(list)-1))
		}
		return uint64(list[c.Args[0]])
	}).Method("firstObject", "@16@0:8", func(c *Call) uint64 {
		if list := items(c); len(list) > 0 {
			return uint64(list[0])
		}
		return 0
	}).Method("containsObject:", "B24@0:8@16", func(c *Call) uint64 {
		for _, o := range items(c) {
			if uint64(o) == c.Args[0] {
				return 1
			}
		}
		return 0
	})

	b, err = r.DefineClass("NSMutableArray", "NSArray")
	if err != nil {
		return err
	}
	if _, err := r.DefineClass("__NSArrayM", "NSMutableArray"); err != nil {
		return err
	}
	b.ClassMethod("array", "@16@0:8", func(c *Call) uint64 {
		return uint64(c.Runtime.Alloc(c.Runtime.GetClass("__NSArrayM")))
	}).Method("addObject:", "v24@0:8@16", func(c *Call) uint64 {
		c.Runtime.SetIvar(c.Self, "items", append(items(c), native.ID(c.Args[0])))
		return 0
	}).Method("removeAllObjects", "v16@0:8", func(c *Call) uint64 {
		c.Runtime.SetIvar(c.Self, "items", []native.ID(nil))
		return 0
	}).Method("sortUsingFunction:context:", "v32@0:8^?16^v24", func(c *Call) uint64 {
		fn, ctx := uintptr(c.Args[0]), c.Args[1]
		list := append([]native.ID(nil), items(c)...)
		params := []ffi.Kind{ffi.Pointer, ffi.Pointer, ffi.Pointer}
		sort.SliceStable(list, func(i, j int) bool {
			res, err := c.Runtime.CallFunction(fn, ffi.SInt64, params, uint64(list[i]), uint64(list[j]), ctx)
			if err != nil {
				panic(fmt.Sprintf("objcsim: sortUsingFunction:context: comparator: %v", err))
			}
			return int64(res) < 0
		})
		c.Runtime.SetIvar(c.Self, "items", list)
		return 0
	})
	return nil
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
