package bridge

import (
	"cmp"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/types"
)

// MaxClosureArity is the largest number of parameters a Go func may take to
// be passed where native code expects a function pointer.
const MaxClosureArity = 22

// Handle identifies a live trampoline.
type Handle uint64

// Attacher brackets every trampoline invocation. Attach reports whether this
// call did the attaching; only then is Detach called afterwards.
type Attacher interface {
	Attach() (attached bool, err error)
	Detach() error
}

// OSThread returns the default Attacher. It pins the calling goroutine to
// its OS thread for the duration of the callback. Pins nest, so a thread
// that was already pinned stays pinned after Detach.
func OSThread() Attacher { return osThread{} }

type osThread struct{}

func (osThread) Attach() (bool, error) {
	runtime.LockOSThread()
	return true, nil
}

func (osThread) Detach() error {
	runtime.UnlockOSThread()
	return nil
}

// Trampoline is a native function pointer that calls a Go func.
type Trampoline struct {
	ctx     *Context
	handle  Handle
	closure *ffi.Closure
	fn      reflect.Value
	params  []types.Type
	result  types.Type
}

// Handle returns the registry key of t.
func (t *Trampoline) Handle() Handle { return t.handle }

// Entry returns the native function pointer.
func (t *Trampoline) Entry() uintptr { return t.closure.Entry }

// Params returns the decoded parameter types.
func (t *Trampoline) Params() []types.Type { return slices.Clone(t.params) }

// Result returns the decoded result type; Void when the func returns nothing.
func (t *Trampoline) Result() types.Type { return t.result }

func (t *Trampoline) String() string {
	params := make([]string, len(t.params))
	for i, p := range t.params {
		params[i] = p.String()
	}
	return fmt.Sprintf("trampoline#%d %#x (%s) %v", t.handle, t.Entry(), strings.Join(params, ", "), t.result)
}

// NewTrampoline makes a native function pointer for fn, a Go func of at
// most MaxClosureArity parameters and at most one result. Parameter and
// result types must be ones Send can return: primitives, objcrt wrappers or
// mirror classes.
func (c *Context) NewTrampoline(fn any) (*Trampoline, error) {
	const op = "trampoline"
	if err := c.live(op); err != nil {
		return nil, err
	}
	ft := reflect.TypeOf(fn)
	if ft == nil || ft.Kind() != reflect.Func {
		return nil, errorf(op, ErrUnsupported, "%T is not a func", fn)
	}
	switch {
	case ft.IsVariadic():
		return nil, errorf(op, ErrUnsupported, "variadic func %s", ft)
	case ft.NumIn() > MaxClosureArity:
		return nil, errorf(op, ErrUnsupported, "func %s takes more than %d parameters", ft, MaxClosureArity)
	case ft.NumOut() > 1:
		return nil, errorf(op, ErrUnsupported, "func %s returns more than one result", ft)
	}

	t := &Trampoline{ctx: c, fn: reflect.ValueOf(fn), params: make([]types.Type, ft.NumIn()), result: types.Of(types.Void)}
	kinds := make([]ffi.Kind, ft.NumIn())
	for i := range ft.NumIn() {
		pt, err := types.FromReflectType(ft.In(i))
		if err != nil {
			return nil, wrap(op, ErrUnsupported, fmt.Errorf("func %s parameter %d: %w", ft, i, err))
		}
		t.params[i] = pt
		kinds[i] = pt.FFIKind()
	}
	if ft.NumOut() == 1 {
		rt, err := types.FromReflectType(ft.Out(0))
		if err != nil {
			return nil, wrap(op, ErrUnsupported, fmt.Errorf("func %s result: %w", ft, err))
		}
		t.result = rt
	}

	cif, err := c.caller.Prepare(t.result.FFIKind(), kinds)
	if err != nil {
		return nil, wrap(op, ErrABI, err)
	}
	closure, err := c.caller.NewClosure(cif, t.invoke)
	if err != nil {
		return nil, wrap(op, ErrEnvironment, err)
	}
	t.closure = closure

	c.tmu.Lock()
	c.nextHandle++
	t.handle = c.nextHandle
	c.trampolines[t.handle] = t
	c.byEntry[closure.Entry] = t.handle
	c.tmu.Unlock()

	c.log.Debug("trampoline created",
		slog.Uint64("handle", uint64(t.handle)),
		slog.String("entry", fmt.Sprintf("%#x", closure.Entry)),
		slog.String("func", ft.String()))
	return t, nil
}

// invoke runs on the native caller's thread. Nothing can be returned to
// native code but a word, so failures are logged and yield zero.
func (t *Trampoline) invoke(args []uint64) (ret uint64) {
	c := t.ctx
	attached, err := c.attacher.Attach()
	if err != nil {
		c.log.Error("trampoline attach failed", slog.Uint64("handle", uint64(t.handle)), slog.Any("error", err))
		return 0
	}
	if attached {
		defer func() {
			if err := c.attacher.Detach(); err != nil {
				c.log.Error("trampoline detach failed", slog.Uint64("handle", uint64(t.handle)), slog.Any("error", err))
			}
		}()
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("trampoline func panicked", slog.Uint64("handle", uint64(t.handle)), slog.Any("panic", r))
			ret = 0
		}
	}()

	w, err := t.call(args)
	if err != nil {
		c.log.Error("trampoline call failed", slog.Uint64("handle", uint64(t.handle)), slog.Any("error", err))
		return 0
	}
	return w
}

func (t *Trampoline) call(args []uint64) (uint64, error) {
	c := t.ctx
	ft := t.fn.Type()
	if len(args) != len(t.params) {
		return 0, errorf("callback", ErrABI, "called with %d arguments, want %d", len(args), len(t.params))
	}
	in := make([]reflect.Value, len(t.params))
	for i, pt := range t.params {
		v, err := c.ToManaged(args[i], pt)
		if err != nil {
			return 0, err
		}
		if in[i], err = c.assign(v, ft.In(i)); err != nil {
			return 0, wrap("callback", ErrUnsupported, fmt.Errorf("parameter %d: %w", i, err))
		}
	}
	out := t.fn.Call(in)
	if len(out) == 0 {
		return 0, nil
	}
	return c.ToNative(out[0].Interface())
}

// Trampolines returns the live trampolines ordered by handle.
func (c *Context) Trampolines() []*Trampoline {
	c.tmu.Lock()
	defer c.tmu.Unlock()
	list := make([]*Trampoline, 0, len(c.trampolines))
	for _, t := range c.trampolines {
		list = append(list, t)
	}
	slices.SortFunc(list, func(a, b *Trampoline) int { return cmp.Compare(a.handle, b.handle) })
	return list
}

// Lookup returns the live trampoline whose entry point is entry.
func (c *Context) Lookup(entry uintptr) (*Trampoline, bool) {
	c.tmu.Lock()
	defer c.tmu.Unlock()
	h, ok := c.byEntry[entry]
	if !ok {
		return nil, false
	}
	return c.trampolines[h], true
}

// Release frees the trampoline's native code and drops the func. Native code
// must not call the entry point afterwards.
func (c *Context) Release(h Handle) error {
	c.tmu.Lock()
	t, ok := c.trampolines[h]
	if ok {
		delete(c.trampolines, h)
		delete(c.byEntry, t.closure.Entry)
	}
	c.tmu.Unlock()
	if !ok {
		return errorf("release", ErrResolution, "no live trampoline with handle %d", h)
	}
	if err := c.caller.FreeClosure(t.closure); err != nil {
		return wrap("release", ErrEnvironment, err)
	}
	c.log.Debug("trampoline released", slog.Uint64("handle", uint64(h)))
	return nil
}
