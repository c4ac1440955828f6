package bridge

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native"
	"github.com/rubiojr/objcbridge/types"
)

// Invocation is a message send prepared for one receiver and selector.
type Invocation struct {
	Receiver native.ID
	Selector native.SEL
	Method   native.Method
	// CIF describes every slot; slots 0 and 1 are the receiver and selector.
	CIF *ffi.CIF
	// Entry is the dispatch entry point the call goes through.
	Entry uintptr
	// FPRet reports whether Entry is the floating-point return entry point.
	FPRet bool
	// Returns is the method's declared return encoding.
	Returns string

	caller ffi.Caller
	log    *slog.Logger
	name   string
}

// Prepare resolves the method recv responds to for sel and builds the call
// interface from the method's own argument encodings. nargs counts the
// explicit arguments only.
//
// Methods returning float or double go through the fpret entry point with a
// Float or Double return slot, not a pointer-sized one, so the result is read
// from the floating-point register it is returned in.
func (c *Context) Prepare(recv uintptr, sel string, nargs int) (*Invocation, error) {
	if err := c.live("prepare"); err != nil {
		return nil, err
	}
	return c.prepare(native.ID(recv), c.rt.RegisterSelector(sel), nargs)
}

func (c *Context) prepare(recv native.ID, sel native.SEL, nargs int) (*Invocation, error) {
	const op = "prepare"
	name := c.rt.SelectorName(sel)
	if recv == 0 {
		return nil, errorf(op, ErrResolution, "message %s sent to nil", name)
	}
	m := c.rt.ClassGetInstanceMethod(c.rt.ObjectGetClass(recv), sel)
	if m == 0 {
		return nil, errorf(op, ErrResolution, "%s does not respond to %s", c.rt.ObjectGetClassName(recv), name)
	}
	n := c.rt.MethodNumberOfArguments(m)
	if n < 2 {
		return nil, errorf(op, ErrABI, "%s: method reports %d arguments", name, n)
	}
	if n-2 != nargs {
		return nil, errorf(op, ErrABI, "%s takes %d arguments, got %d", name, n-2, nargs)
	}

	kinds := make([]ffi.Kind, n)
	kinds[0], kinds[1] = ffi.Pointer, ffi.Pointer
	for i := 2; i < n; i++ {
		kinds[i] = types.FFIKindFromEncoding(c.rt.MethodArgumentType(m, i))
	}

	inv := &Invocation{
		Receiver: recv,
		Selector: sel,
		Method:   m,
		Entry:    c.msgSend,
		Returns:  c.rt.MethodReturnType(m),
		caller:   c.caller,
		log:      c.log,
		name:     name,
	}
	ret := ffi.Pointer
	// Floating-point results come back through the fpret entry point and
	// are read from the floating-point return register.
	switch types.FromEncoding(inv.Returns).Kind {
	case types.Float:
		ret, inv.Entry, inv.FPRet = ffi.Float, c.msgSendFpret, true
	case types.Double:
		ret, inv.Entry, inv.FPRet = ffi.Double, c.msgSendFpret, true
	}

	cif, err := c.caller.Prepare(ret, kinds)
	if err != nil {
		return nil, wrap(op, ErrABI, fmt.Errorf("%s: %w", name, err))
	}
	inv.CIF = cif
	return inv, nil
}

// Invoke performs the call with the explicit argument words and returns the
// raw result word.
func (inv *Invocation) Invoke(args []uint64) (uint64, error) {
	if want := len(inv.CIF.Args) - 2; len(args) != want {
		return 0, errorf("invoke", ErrABI, "%s takes %d arguments, got %d", inv.name, want, len(args))
	}
	slots := make([]uint64, 0, len(args)+2)
	slots = append(slots, uint64(inv.Receiver), uint64(inv.Selector))
	slots = append(slots, args...)

	inv.log.Debug("send",
		slog.String("selector", inv.name),
		slog.Bool("fpret", inv.FPRet),
		slog.Int("args", len(args)))
	w, err := inv.caller.Call(inv.CIF, inv.Entry, slots)
	if err != nil {
		return 0, wrap("invoke", ErrABI, fmt.Errorf("%s: %w", inv.name, err))
	}
	return w, nil
}

// sendSEL sends an already registered selector with raw argument words.
func (c *Context) sendSEL(recv native.ID, sel native.SEL, args ...uint64) (uint64, error) {
	inv, err := c.prepare(recv, sel, len(args))
	if err != nil {
		return 0, err
	}
	return inv.Invoke(args)
}

// Send sends selector to receiver and converts the result to the Go type
// named by returns, a reflect.Type string such as "int32", "objcrt.ID",
// "*objc.NSNumber" or "void". Receiver and arguments are converted with
// ToNative; argument widths follow the method's native signature.
func (c *Context) Send(receiver any, selector string, returns string, args ...any) (any, error) {
	const op = "send"
	if err := c.live(op); err != nil {
		return nil, err
	}
	rt, err := types.FromReflectString(returns)
	if err != nil {
		return nil, wrap(op, ErrUnsupported, err)
	}
	recv, err := c.ToNative(receiver)
	if err != nil {
		return nil, wrap(op, ErrUnsupported, err)
	}
	inv, err := c.Prepare(uintptr(recv), selector, len(args))
	if err != nil {
		return nil, err
	}
	words := make([]uint64, len(args))
	for i, a := range args {
		if words[i], err = c.ToNative(a); err != nil {
			return nil, wrap(op, ErrUnsupported, fmt.Errorf("%s argument %d: %w", selector, i, err))
		}
	}
	w, err := inv.Invoke(words)
	if err != nil {
		return nil, err
	}
	return c.ToManaged(w, rt)
}

// Send sends selector to receiver and returns the result as a T. The
// native result is decoded by T's reflected name.
func Send[T any](c *Context, receiver any, selector string, args ...any) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	v, err := c.Send(receiver, selector, t.String(), args...)
	if err != nil {
		return zero, err
	}
	rv, err := c.assign(v, t)
	if err != nil {
		return zero, wrap("send", ErrUnsupported, fmt.Errorf("%s result: %w", selector, err))
	}
	out, _ := rv.Interface().(T)
	return out, nil
}

// SendVoid sends selector to receiver and discards the result.
func SendVoid(c *Context, receiver any, selector string, args ...any) error {
	_, err := c.Send(receiver, selector, "void", args...)
	return err
}
