// Package bridge sends Objective-C messages from Go and turns Go funcs into
// native function pointers.
//
// A Context owns everything the bridge resolves up front: the dispatch
// entry points, the autorelease pool class and selectors, the Go wrapper
// types and the primitive boxing routines. It is built once with New (or
// Open, which fills in the platform runtime) and closed once with Close.
//
//	ctx, err := bridge.Open()
//	if err != nil { ... }
//	defer ctx.Close()
//	n, err := bridge.Send[float64](ctx, num, "doubleValue")
package bridge

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native"
	"github.com/rubiojr/objcbridge/objcrt"
	"github.com/rubiojr/objcbridge/types"
)

// RootMirror is the mirror every registry must provide.
const RootMirror = objcrt.MirrorPrefix + "NSObject"

// Context is an initialized bridge. It is read-only after New returns,
// except for the trampoline registry, and safe for concurrent use.
type Context struct {
	rt       native.Runtime
	caller   ffi.Caller
	mem      native.Memory
	loader   native.Loader
	registry *objcrt.Registry
	attacher Attacher
	log      *slog.Logger

	// Resolved by resolve; immutable afterwards.
	wrappers     wrapperTypes
	box          map[types.Kind]func(uint64) any
	unbox        map[reflect.Type]func(any) uint64
	caps         []capability
	msgSend      uintptr
	msgSendFpret uintptr
	poolClass    native.Class
	selAlloc     native.SEL
	selInit      native.SEL
	selDrain     native.SEL
	root         *objcrt.Mirror

	pool   native.ID
	closed atomic.Bool

	tmu         sync.Mutex
	trampolines map[Handle]*Trampoline
	byEntry     map[uintptr]Handle
	nextHandle  Handle
}

// wrapperTypes are the Go types standing for native values.
type wrapperTypes struct {
	pointer  reflect.Type
	selector reflect.Type
	id       reflect.Type
	class    reflect.Type
}

// Option configures a Context.
type Option func(*Context)

// WithRuntime sets the native runtime. If rt also implements native.Memory
// or native.Loader, it serves those roles unless they are set separately.
func WithRuntime(rt native.Runtime) Option {
	return func(c *Context) { c.rt = rt }
}

// WithCaller sets the calling-convention layer.
func WithCaller(caller ffi.Caller) Option {
	return func(c *Context) { c.caller = caller }
}

// WithMemory sets the raw memory accessor.
func WithMemory(mem native.Memory) Option {
	return func(c *Context) { c.mem = mem }
}

// WithLoader sets the dynamic library loader.
func WithLoader(l native.Loader) Option {
	return func(c *Context) { c.loader = l }
}

// WithRegistry sets the mirror registry. The default is objcrt.Default.
func WithRegistry(r *objcrt.Registry) Option {
	return func(c *Context) { c.registry = r }
}

// WithAttacher sets how trampoline handlers attach the calling thread.
func WithAttacher(a Attacher) Option {
	return func(c *Context) { c.attacher = a }
}

// WithLogger sets the logger. The default writes warnings and errors to stderr.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) { c.log = l }
}

// New resolves every handle the bridge needs and opens an autorelease pool.
// Any handle that cannot be resolved fails the whole construction.
func New(opts ...Option) (*Context, error) {
	return newContext(nil, opts)
}

// Open is New with the platform's native runtime and calling-convention
// layer filled in for anything the options leave unset.
func Open(opts ...Option) (*Context, error) {
	return newContext(platformDefaults, opts)
}

// codeCarrier is implemented by runtimes that bring their own Caller.
type codeCarrier interface {
	Code() *ffi.CodeTable
}

func newContext(defaults func(*Context) error, opts []Option) (*Context, error) {
	c := &Context{
		registry:    objcrt.Default,
		attacher:    OSThread(),
		trampolines: make(map[Handle]*Trampoline),
		byEntry:     make(map[uintptr]Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if defaults != nil {
		if err := defaults(c); err != nil {
			c.log.Error("bridge initialization failed", slog.Any("error", err))
			return nil, err
		}
	}
	if c.caller == nil {
		if cc, ok := c.rt.(codeCarrier); ok {
			c.caller = cc.Code()
		}
	}
	if c.mem == nil {
		c.mem, _ = c.rt.(native.Memory)
	}
	if c.loader == nil {
		c.loader, _ = c.rt.(native.Loader)
	}

	if err := c.resolve(); err != nil {
		c.log.Error("bridge initialization failed", slog.Any("error", err))
		return nil, err
	}
	pool, err := c.newPool()
	if err != nil {
		c.log.Error("bridge initialization failed", slog.Any("error", err))
		return nil, err
	}
	c.pool = pool
	c.log.Debug("bridge initialized",
		slog.String("msgSend", fmt.Sprintf("%#x", c.msgSend)),
		slog.String("msgSendFpret", fmt.Sprintf("%#x", c.msgSendFpret)),
		slog.Int("mirrors", c.registry.Len()))
	return c, nil
}

// resolve fills in every cached handle, in dependency order.
func (c *Context) resolve() error {
	const op = "init"
	switch {
	case c.rt == nil:
		return errorf(op, ErrEnvironment, "no native runtime configured")
	case c.caller == nil:
		return errorf(op, ErrEnvironment, "no calling-convention layer configured")
	case c.mem == nil:
		return errorf(op, ErrEnvironment, "no native memory accessor configured")
	case c.registry == nil:
		return errorf(op, ErrEnvironment, "no mirror registry configured")
	case c.attacher == nil:
		return errorf(op, ErrEnvironment, "no thread attacher configured")
	}

	c.wrappers = wrapperTypes{
		pointer:  reflect.TypeFor[objcrt.Pointer](),
		selector: reflect.TypeFor[objcrt.Selector](),
		id:       reflect.TypeFor[objcrt.ID](),
		class:    reflect.TypeFor[objcrt.Class](),
	}
	for rt, want := range map[reflect.Type]types.Kind{
		c.wrappers.pointer:  types.Pointer,
		c.wrappers.selector: types.Selector,
		c.wrappers.id:       types.ID,
		c.wrappers.class:    types.Class,
	} {
		got, err := types.FromReflectType(rt)
		if err != nil || got.Kind != want {
			return errorf(op, ErrResolution, "wrapper type %s does not decode as %v", rt, want)
		}
	}

	c.box = make(map[types.Kind]func(uint64) any, len(boxers))
	for _, k := range primitiveKinds {
		fn, ok := boxers[k]
		if !ok {
			return errorf(op, ErrResolution, "no boxing routine for %v", k)
		}
		c.box[k] = fn
	}
	c.unbox = make(map[reflect.Type]func(any) uint64, len(unboxers))
	for rt, fn := range unboxers {
		c.unbox[rt] = fn
	}
	c.caps = capabilities()

	if c.msgSend = c.rt.MsgSend(); c.msgSend == 0 {
		return errorf(op, ErrResolution, "message dispatch entry point not found")
	}
	if c.msgSendFpret = c.rt.MsgSendFpret(); c.msgSendFpret == 0 {
		return errorf(op, ErrResolution, "floating-point message dispatch entry point not found")
	}
	if c.poolClass = c.rt.GetClass("NSAutoreleasePool"); c.poolClass == 0 {
		return errorf(op, ErrResolution, "native class NSAutoreleasePool not found")
	}
	for name, sel := range map[string]*native.SEL{"alloc": &c.selAlloc, "init": &c.selInit, "drain": &c.selDrain} {
		if *sel = c.rt.RegisterSelector(name); *sel == 0 {
			return errorf(op, ErrResolution, "selector %s not registered", name)
		}
	}
	root, ok := c.registry.Lookup(RootMirror)
	if !ok {
		return errorf(op, ErrResolution, "mirror class %s not registered", RootMirror)
	}
	c.root = root
	return nil
}

func (c *Context) newPool() (native.ID, error) {
	obj, err := c.sendSEL(native.ID(c.poolClass), c.selAlloc)
	if err != nil {
		return 0, wrap("init", ErrResolution, err)
	}
	obj, err = c.sendSEL(native.ID(obj), c.selInit)
	if err != nil {
		return 0, wrap("init", ErrResolution, err)
	}
	if obj == 0 {
		return 0, errorf("init", ErrEnvironment, "autorelease pool creation returned nil")
	}
	return native.ID(obj), nil
}

// Close drains the autorelease pool. Trampolines stay alive: native code may
// still hold their entry points. Release them explicitly when it cannot.
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return errorf("close", ErrEnvironment, "context already closed")
	}
	if _, err := c.sendSEL(c.pool, c.selDrain); err != nil {
		return wrap("close", ErrABI, err)
	}
	c.log.Debug("autorelease pool drained", slog.String("pool", fmt.Sprintf("%#x", uintptr(c.pool))))
	return nil
}

// live fails once the context is closed.
func (c *Context) live(op string) error {
	if c.closed.Load() {
		return errorf(op, ErrEnvironment, "context is closed")
	}
	return nil
}

// Runtime returns the native runtime the context drives.
func (c *Context) Runtime() native.Runtime { return c.rt }

// Registry returns the mirror registry.
func (c *Context) Registry() *objcrt.Registry { return c.registry }

// Logger returns the context's logger.
func (c *Context) Logger() *slog.Logger { return c.log }
