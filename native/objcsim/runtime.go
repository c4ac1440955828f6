// Package objcsim is an in-process simulation of the Objective-C runtime.
//
// It models what the bridge relies on: classes with metaclasses and single
// inheritance, selectors, methods carrying real type encodings, dynamic
// dispatch through msgSend entry points registered in an ffi.CodeTable,
// raw memory and loadable "libraries". Method implementations are Go
// functions; they can call native function pointers (such as bridge
// trampolines) through the same CodeTable.
package objcsim

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native"
	"github.com/rubiojr/objcbridge/types"
)

// addrBase is the first address handed out for runtime structures.
const addrBase = 0x20000000

// Impl implements one method.
type Impl func(c *Call) uint64

// Call is the context of one method invocation.
type Call struct {
	Runtime *Runtime
	Self    native.ID
	Cmd     native.SEL
	// Args are the explicit arguments, narrowed to the method's encodings.
	Args []uint64
}

// Stats counts dispatches per entry point.
type Stats struct {
	Sends       atomic.Int64
	FpretSends  atomic.Int64
	PoolsOpen   atomic.Int64
	PoolDrains  atomic.Int64
	NilMessages atomic.Int64
}

type class struct {
	name    string
	ptr     native.Class
	super   *class
	meta    *class
	isMeta  bool
	methods map[native.SEL]*method
}

type method struct {
	ptr   native.Method
	sel   native.SEL
	enc   string
	sig   types.MethodSignature
	impl  Impl
	owner *class
}

type object struct {
	ptr   native.ID
	cls   *class
	ivars map[string]any
}

// Runtime is a simulated Objective-C runtime. It implements native.Runtime,
// native.Memory and native.Loader.
type Runtime struct {
	Stats Stats

	code *ffi.CodeTable

	mu        sync.RWMutex
	next      uintptr
	classes   map[string]*class
	byPtr     map[native.Class]*class
	objects   map[native.ID]*object
	selectors map[string]native.SEL
	selNames  map[native.SEL]string
	methods   map[native.Method]*method
	words     map[uintptr]uint64
	blocks    map[uintptr]int
	libraries map[string]func(*Runtime) error
	loaded    map[string]bool

	msgSend      uintptr
	msgSendFpret uintptr
}

var (
	_ native.Runtime = (*Runtime)(nil)
	_ native.Memory  = (*Runtime)(nil)
	_ native.Loader  = (*Runtime)(nil)
)

// New returns an empty runtime whose dispatch entry points live in code.
func New(code *ffi.CodeTable) *Runtime {
	r := &Runtime{
		code:      code,
		next:      addrBase,
		classes:   make(map[string]*class),
		byPtr:     make(map[native.Class]*class),
		objects:   make(map[native.ID]*object),
		selectors: make(map[string]native.SEL),
		selNames:  make(map[native.SEL]string),
		methods:   make(map[native.Method]*method),
		words:     make(map[uintptr]uint64),
		blocks:    make(map[uintptr]int),
		libraries: make(map[string]func(*Runtime) error),
		loaded:    make(map[string]bool),
	}
	r.msgSend = code.Register(func(args []uint64) uint64 {
		r.Stats.Sends.Add(1)
		return r.dispatch(args)
	})
	r.msgSendFpret = code.Register(func(args []uint64) uint64 {
		r.Stats.FpretSends.Add(1)
		return r.dispatch(args)
	})
	return r
}

// Code returns the table holding the runtime's entry points.
func (r *Runtime) Code() *ffi.CodeTable { return r.code }

// alloc reserves n bytes of address space. Callers hold r.mu.
func (r *Runtime) alloc(n int) uintptr {
	p := r.next
	size := uintptr(n+15) &^ 15
	if size == 0 {
		size = 16
	}
	r.next += size
	return p
}

func (r *Runtime) dispatch(args []uint64) uint64 {
	if len(args) < 2 {
		panic("objcsim: msgSend called without receiver and selector")
	}
	self := native.ID(args[0])
	cmd := native.SEL(args[1])
	if self == 0 {
		r.Stats.NilMessages.Add(1)
		return 0
	}
	m := r.lookup(r.ObjectGetClass(self), cmd)
	if m == nil {
		panic(fmt.Sprintf("objcsim: -[%s %s]: unrecognized selector sent to instance %#x",
			r.ObjectGetClassName(self), r.SelectorName(cmd), uintptr(self)))
	}
	return m.impl(&Call{Runtime: r, Self: self, Cmd: cmd, Args: args[2:]})
}

func (r *Runtime) lookup(cls native.Class, sel native.SEL) *method {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := r.byPtr[cls]; c != nil; c = c.super {
		if m, ok := c.methods[sel]; ok {
			return m
		}
	}
	return nil
}

// DefineClass creates a class and its metaclass. An empty super makes a
// root class.
func (r *Runtime) DefineClass(name, super string) (*ClassBuilder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return nil, fmt.Errorf("objcsim: empty class name")
	}
	if _, dup := r.classes[name]; dup {
		return nil, fmt.Errorf("objcsim: class %s already defined", name)
	}
	var parent *class
	if super != "" {
		p, ok := r.classes[super]
		if !ok {
			return nil, fmt.Errorf("objcsim: superclass %s of %s is not defined", super, name)
		}
		parent = p
	}

	meta := &class{name: name, isMeta: true, methods: make(map[native.SEL]*method)}
	meta.ptr = native.Class(r.alloc(64))
	cls := &class{name: name, meta: meta, super: parent, methods: make(map[native.SEL]*method)}
	cls.ptr = native.Class(r.alloc(64))
	if parent != nil {
		meta.super = parent.meta
	} else {
		// The root metaclass inherits from the root class, so class
		// objects answer the root's instance methods.
		meta.super = cls
	}

	r.classes[name] = cls
	r.byPtr[cls.ptr] = cls
	r.byPtr[meta.ptr] = meta
	// A class is itself an object whose isa is the metaclass.
	r.objects[native.ID(cls.ptr)] = &object{ptr: native.ID(cls.ptr), cls: meta}
	return &ClassBuilder{r: r, cls: cls}, nil
}

// MustDefineClass is DefineClass that panics on error, for setup code.
func (r *Runtime) MustDefineClass(name, super string) *ClassBuilder {
	b, err := r.DefineClass(name, super)
	if err != nil {
		panic(err)
	}
	return b
}

// ClassBuilder adds methods to a class being defined.
type ClassBuilder struct {
	r   *Runtime
	cls *class
}

// Class returns the native class pointer.
func (b *ClassBuilder) Class() native.Class { return b.cls.ptr }

// Method adds an instance method. The encoding is a full method encoding
// such as "v24@0:8i16"; its argument count must match the selector.
func (b *ClassBuilder) Method(name, encoding string, impl Impl) *ClassBuilder {
	b.r.addMethod(b.cls, name, encoding, impl)
	return b
}

// ClassMethod adds a class method.
func (b *ClassBuilder) ClassMethod(name, encoding string, impl Impl) *ClassBuilder {
	b.r.addMethod(b.cls.meta, name, encoding, impl)
	return b
}

func (r *Runtime) addMethod(cls *class, name, encoding string, impl Impl) {
	sig, err := types.SplitMethodEncoding(encoding)
	if err != nil {
		panic(fmt.Sprintf("objcsim: %s %s: %v", cls.name, name, err))
	}
	if want := strings.Count(name, ":") + 2; len(sig.Args) != want {
		panic(fmt.Sprintf("objcsim: %s %s: encoding %q has %d arguments, selector needs %d",
			cls.name, name, encoding, len(sig.Args), want))
	}
	sel := r.RegisterSelector(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &method{sel: sel, enc: encoding, sig: sig, impl: impl, owner: cls}
	m.ptr = native.Method(r.alloc(32))
	cls.methods[sel] = m
	r.methods[m.ptr] = m
}

// AddLibrary makes path loadable; install runs the first time it is opened.
func (r *Runtime) AddLibrary(path string, install func(*Runtime) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.libraries[path] = install
}

// Open loads a library registered with AddLibrary.
func (r *Runtime) Open(path string) error {
	r.mu.Lock()
	install, ok := r.libraries[path]
	done := r.loaded[path]
	if ok && !done {
		r.loaded[path] = true
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("dlopen(%s): image not found", path)
	}
	if done {
		return nil
	}
	if err := install(r); err != nil {
		return fmt.Errorf("dlopen(%s): %w", path, err)
	}
	return nil
}

// Alloc creates an instance of cls.
func (r *Runtime) Alloc(cls native.Class) native.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byPtr[cls]
	if c == nil || c.isMeta {
		return 0
	}
	id := native.ID(r.alloc(32))
	r.objects[id] = &object{ptr: id, cls: c, ivars: make(map[string]any)}
	return id
}

// Ivar returns the value stored under key on obj.
func (r *Runtime) Ivar(obj native.ID, key string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o := r.objects[obj]; o != nil && o.ivars != nil {
		return o.ivars[key]
	}
	return nil
}

// SetIvar stores v under key on obj.
func (r *Runtime) SetIvar(obj native.ID, key string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o := r.objects[obj]; o != nil {
		if o.ivars == nil {
			o.ivars = make(map[string]any)
		}
		o.ivars[key] = v
	}
}

// IsKindOf reports whether obj is an instance of cls or a subclass of it.
func (r *Runtime) IsKindOf(obj native.ID, cls native.Class) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o := r.objects[obj]
	if o == nil {
		return false
	}
	for c := o.cls; c != nil; c = c.super {
		if c.ptr == cls {
			return true
		}
	}
	return false
}

// Send dispatches a message the way native code would, through msgSend.
// It is for method implementations and tests; the bridge goes through ffi.
func (r *Runtime) Send(self native.ID, sel string, args ...uint64) uint64 {
	words := append([]uint64{uint64(self), uint64(r.RegisterSelector(sel))}, args...)
	return r.dispatch(words)
}

// CallFunction calls a native function pointer with the given signature.
func (r *Runtime) CallFunction(fn uintptr, ret ffi.Kind, params []ffi.Kind, args ...uint64) (uint64, error) {
	cif, err := r.code.Prepare(ret, params)
	if err != nil {
		return 0, err
	}
	return r.code.Call(cif, fn, args)
}
