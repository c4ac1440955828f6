//go:build darwin && cgo

package ffi

/*
#cgo LDFLAGS: -lffi
#include <ffi/ffi.h>
#include <stdint.h>
#include <stdlib.h>

static ffi_cif *ob_alloc_cif(void) {
	return (ffi_cif *)calloc(1, sizeof(ffi_cif));
}

static ffi_type **ob_alloc_types(unsigned n) {
	return (ffi_type **)calloc(n ? n : 1, sizeof(ffi_type *));
}

static void ob_set_type(ffi_type **types, unsigned i, ffi_type *t) {
	types[i] = t;
}

static ffi_type *ob_type(int kind) {
	switch (kind) {
	case 0: return &ffi_type_void;
	case 1: return &ffi_type_schar;
	case 2: return &ffi_type_sshort;
	case 3: return &ffi_type_sint;
	case 4: return &ffi_type_sint64;
	case 5: return &ffi_type_float;
	case 6: return &ffi_type_double;
	default: return &ffi_type_pointer;
	}
}

static int ob_prep_cif(ffi_cif *cif, unsigned nargs, ffi_type *rtype, ffi_type **atypes) {
	return ffi_prep_cif(cif, FFI_DEFAULT_ABI, nargs, rtype, atypes);
}

static void ob_call(ffi_cif *cif, uintptr_t fn, void *rvalue, void **avalue) {
	ffi_call(cif, (void (*)(void))fn, rvalue, avalue);
}

extern void obClosureInvoke(ffi_cif *, void *, void **, uintptr_t);

static void ob_thunk(ffi_cif *cif, void *ret, void **args, void *user) {
	obClosureInvoke(cif, ret, args, (uintptr_t)user);
}

static void *ob_closure_alloc(void **code) {
	return ffi_closure_alloc(sizeof(ffi_closure), code);
}

static int ob_prep_closure(void *closure, ffi_cif *cif, uintptr_t user, void *code) {
	return ffi_prep_closure_loc((ffi_closure *)closure, cif, ob_thunk, (void *)user, code);
}

static void ob_closure_free(void *closure) {
	ffi_closure_free(closure);
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"runtime/cgo"
	"unsafe"
)

// LibFFI is the Caller backed by the system libffi.
type LibFFI struct{}

// NewLibFFI returns the libffi Caller.
func NewLibFFI() *LibFFI {
	return &LibFFI{}
}

// libffiCIF holds the C allocations behind a prepared CIF.
type libffiCIF struct {
	cif   *C.ffi_cif
	types **C.ffi_type
}

// libffiClosure is the user data of a libffi closure, reached from C
// through a cgo.Handle.
type libffiClosure struct {
	cif    *CIF
	fn     Func
	handle cgo.Handle
	raw    unsafe.Pointer
}

func (l *LibFFI) Prepare(ret Kind, args []Kind) (*CIF, error) {
	if err := validate(ret, args); err != nil {
		return nil, err
	}
	n := C.uint(len(args))
	cif := C.ob_alloc_cif()
	types := C.ob_alloc_types(n)
	if cif == nil || types == nil {
		C.free(unsafe.Pointer(cif))
		C.free(unsafe.Pointer(types))
		return nil, fmt.Errorf("%w: out of memory", ErrPrepare)
	}
	for i, k := range args {
		C.ob_set_type(types, C.uint(i), C.ob_type(C.int(k)))
	}
	if st := C.ob_prep_cif(cif, n, C.ob_type(C.int(ret)), types); st != C.FFI_OK {
		C.free(unsafe.Pointer(cif))
		C.free(unsafe.Pointer(types))
		return nil, fmt.Errorf("%w: ffi_prep_cif failed: %d", ErrPrepare, int(st))
	}
	out := &CIF{Return: ret, Args: append([]Kind(nil), args...), impl: &libffiCIF{cif: cif, types: types}}
	runtime.AddCleanup(out, func(p libffiCIF) {
		C.free(unsafe.Pointer(p.cif))
		C.free(unsafe.Pointer(p.types))
	}, libffiCIF{cif: cif, types: types})
	return out, nil
}

func (l *LibFFI) Call(cif *CIF, fn uintptr, args []uint64) (uint64, error) {
	impl, ok := cif.impl.(*libffiCIF)
	if !ok {
		return 0, fmt.Errorf("%w: call interface was not prepared by libffi", ErrPrepare)
	}
	if len(args) != len(cif.Args) {
		return 0, fmt.Errorf("%w: call interface has %d arguments, got %d", ErrPrepare, len(cif.Args), len(args))
	}
	if fn == 0 {
		return 0, fmt.Errorf("%w %#x", ErrNoCode, fn)
	}

	// Argument storage and the pointer vector live in C memory so no Go
	// pointer is stored where C can see it.
	word := C.size_t(unsafe.Sizeof(uint64(0)))
	n := C.size_t(len(args))
	values := C.calloc(n+1, word)
	vector := C.calloc(n+1, C.size_t(unsafe.Sizeof(uintptr(0))))
	rvalue := C.calloc(2, word)
	defer C.free(values)
	defer C.free(vector)
	defer C.free(rvalue)

	slots := unsafe.Slice((*uint64)(values), len(args)+1)
	ptrs := unsafe.Slice((*unsafe.Pointer)(vector), len(args)+1)
	for i, a := range args {
		writeSlot(cif.Args[i], unsafe.Pointer(&slots[i]), a)
		ptrs[i] = unsafe.Pointer(&slots[i])
	}

	C.ob_call(impl.cif, C.uintptr_t(fn), rvalue, (*unsafe.Pointer)(vector))
	return readReturn(cif.Return, rvalue), nil
}

func (l *LibFFI) NewClosure(cif *CIF, fn Func) (*Closure, error) {
	impl, ok := cif.impl.(*libffiCIF)
	if !ok {
		return nil, fmt.Errorf("%w: call interface was not prepared by libffi", ErrPrepare)
	}
	var code unsafe.Pointer
	raw := C.ob_closure_alloc(&code)
	if raw == nil {
		return nil, fmt.Errorf("%w: ffi_closure_alloc failed", ErrPrepare)
	}
	data := &libffiClosure{cif: cif, fn: fn, raw: raw}
	data.handle = cgo.NewHandle(data)
	if st := C.ob_prep_closure(raw, impl.cif, C.uintptr_t(data.handle), code); st != C.FFI_OK {
		C.ob_closure_free(raw)
		data.handle.Delete()
		return nil, fmt.Errorf("%w: ffi_prep_closure_loc failed: %d", ErrPrepare, int(st))
	}
	return &Closure{Entry: uintptr(code), CIF: cif, impl: data}, nil
}

func (l *LibFFI) FreeClosure(c *Closure) error {
	data, ok := c.impl.(*libffiClosure)
	if !ok || data.raw == nil {
		return fmt.Errorf("%w %#x: closure already freed", ErrNoCode, c.Entry)
	}
	C.ob_closure_free(data.raw)
	data.raw = nil
	data.handle.Delete()
	return nil
}

//export obClosureInvoke
func obClosureInvoke(_ *C.ffi_cif, ret unsafe.Pointer, args *unsafe.Pointer, user C.uintptr_t) {
	data, ok := cgo.Handle(user).Value().(*libffiClosure)
	if !ok {
		return
	}
	n := len(data.cif.Args)
	words := make([]uint64, n)
	if n > 0 {
		argv := unsafe.Slice(args, n)
		for i, k := range data.cif.Args {
			words[i] = readSlot(k, argv[i])
		}
	}
	writeReturn(data.cif.Return, ret, data.fn(words))
}

func writeSlot(k Kind, p unsafe.Pointer, w uint64) {
	switch k {
	case SInt8:
		*(*int8)(p) = int8(w)
	case SInt16:
		*(*int16)(p) = int16(w)
	case SInt32:
		*(*int32)(p) = int32(w)
	case Float:
		*(*uint32)(p) = uint32(w)
	default:
		*(*uint64)(p) = w
	}
}

func readSlot(k Kind, p unsafe.Pointer) uint64 {
	switch k {
	case SInt8:
		return uint64(int64(*(*int8)(p)))
	case SInt16:
		return uint64(int64(*(*int16)(p)))
	case SInt32:
		return uint64(int64(*(*int32)(p)))
	case Float:
		return uint64(*(*uint32)(p))
	default:
		return *(*uint64)(p)
	}
}

// readReturn reads a call result. libffi widens integral results narrower
// than a register to a full ffi_arg.
func readReturn(k Kind, p unsafe.Pointer) uint64 {
	switch k {
	case Void:
		return 0
	case SInt8, SInt16, SInt32:
		return Narrow(k, uint64(*(*C.ffi_sarg)(p)))
	case Float:
		return uint64(*(*uint32)(p))
	default:
		return *(*uint64)(p)
	}
}

func writeReturn(k Kind, p unsafe.Pointer, w uint64) {
	switch k {
	case Void:
	case SInt8, SInt16, SInt32:
		*(*C.ffi_sarg)(p) = C.ffi_sarg(int64(Narrow(k, w)))
	case Float:
		*(*uint32)(p) = uint32(w)
	default:
		*(*uint64)(p) = w
	}
}
