package bridge

import (
	"github.com/rubiojr/objcbridge/objcrt"
)

// LoadLibrary loads a dynamic library, making its classes visible to GetClass.
func (c *Context) LoadLibrary(path string) error {
	if c.loader == nil {
		return errorf("load", ErrEnvironment, "no library loader configured")
	}
	if err := c.loader.Open(path); err != nil {
		return wrap("load", ErrEnvironment, err)
	}
	return nil
}

// Malloc allocates n bytes of native memory.
func (c *Context) Malloc(n int) objcrt.Pointer {
	return objcrt.Pointer{Peer: c.mem.Malloc(n)}
}

// Free releases memory returned by Malloc.
func (c *Context) Free(p objcrt.Pointer) {
	c.mem.Free(p.Peer)
}

// GetWord reads the 64-bit word at p. No bounds checking is done.
func (c *Context) GetWord(p objcrt.Pointer) int64 {
	return int64(c.mem.ReadWord(p.Peer))
}

// SetWord writes the 64-bit word v at p. No bounds checking is done.
func (c *Context) SetWord(p objcrt.Pointer, v int64) {
	c.mem.WriteWord(p.Peer, uint64(v))
}

// GetClass resolves a native class by name. It returns the mirror's class
// singleton when one is registered, otherwise a class object bound to the
// native class.
func (c *Context) GetClass(name string) (objcrt.Class, error) {
	cls := c.rt.GetClass(name)
	if cls == 0 {
		return nil, errorf("class", ErrResolution, "native class %s not found", name)
	}
	if m, ok := c.registry.Lookup(objcrt.MirrorName(name)); ok {
		if b, ok := m.Class.(binder); ok {
			b.Bind(uintptr(cls))
		}
		return m.Class, nil
	}
	obj := objcrt.NewClassObject(name)
	obj.Bind(uintptr(cls))
	return obj, nil
}
