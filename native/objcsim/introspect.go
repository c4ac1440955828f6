package objcsim

import (
	"github.com/rubiojr/objcbridge/native"
)

func (r *Runtime) GetClass(name string) native.Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.classes[name]; ok {
		return c.ptr
	}
	return 0
}

func (r *Runtime) ObjectGetClass(obj native.ID) native.Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.objects[obj]; ok {
		return o.cls.ptr
	}
	return 0
}

func (r *Runtime) ObjectGetClassName(obj native.ID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.objects[obj]; ok {
		return o.cls.name
	}
	return "nil"
}

func (r *Runtime) ClassGetName(cls native.Class) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byPtr[cls]; ok {
		return c.name
	}
	return "nil"
}

func (r *Runtime) ClassGetSuperclass(cls native.Class) native.Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byPtr[cls]; ok && c.super != nil {
		return c.super.ptr
	}
	return 0
}

func (r *Runtime) ClassGetInstanceMethod(cls native.Class, sel native.SEL) native.Method {
	if m := r.lookup(cls, sel); m != nil {
		return m.ptr
	}
	return 0
}

func (r *Runtime) MethodNumberOfArguments(m native.Method) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if md, ok := r.methods[m]; ok {
		return len(md.sig.Args)
	}
	return 0
}

func (r *Runtime) MethodArgumentType(m native.Method, index int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if md, ok := r.methods[m]; ok && index >= 0 && index < len(md.sig.Args) {
		return md.sig.Args[index]
	}
	return ""
}

func (r *Runtime) MethodReturnType(m native.Method) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if md, ok := r.methods[m]; ok {
		return md.sig.Return
	}
	return ""
}

// MethodTypeEncoding returns the full encoding the method was defined with.
func (r *Runtime) MethodTypeEncoding(m native.Method) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if md, ok := r.methods[m]; ok {
		return md.enc
	}
	return ""
}

func (r *Runtime) RegisterSelector(name string) native.SEL {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sel, ok := r.selectors[name]; ok {
		return sel
	}
	sel := native.SEL(r.alloc(len(name) + 1))
	r.selectors[name] = sel
	r.selNames[sel] = name
	return sel
}

func (r *Runtime) SelectorName(sel native.SEL) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.selNames[sel]; ok {
		return name
	}
	return "<null selector>"
}

func (r *Runtime) MsgSend() uintptr      { return r.msgSend }
func (r *Runtime) MsgSendFpret() uintptr { return r.msgSendFpret }

// Malloc reserves n bytes; the block reads as zero until written.
func (r *Runtime) Malloc(n int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.alloc(n)
	r.blocks[p] = n
	return p
}

func (r *Runtime) Free(p uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.blocks[p]
	if !ok {
		return
	}
	delete(r.blocks, p)
	for a := p; a < p+uintptr(n); a += 8 {
		delete(r.words, a)
	}
}

func (r *Runtime) ReadWord(p uintptr) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.words[p]
}

func (r *Runtime) WriteWord(p uintptr, v uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.words[p] = v
}
