//go:build darwin && cgo

// Package darwin implements the native interfaces on top of the system
// Objective-C runtime (libobjc) and the dynamic loader.
package darwin

/*
#cgo LDFLAGS: -lobjc -framework Foundation
#include <objc/runtime.h>
#include <objc/message.h>
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

static uintptr_t ob_msgsend(void) { return (uintptr_t)objc_msgSend; }

static uintptr_t ob_msgsend_fpret(void) {
#if defined(__x86_64__) || defined(__i386__)
	return (uintptr_t)objc_msgSend_fpret;
#else
	return (uintptr_t)objc_msgSend;
#endif
}

static uintptr_t ob_get_class(const char *name) { return (uintptr_t)objc_getClass(name); }
static uintptr_t ob_object_get_class(uintptr_t obj) { return (uintptr_t)object_getClass((id)obj); }
static const char *ob_object_get_class_name(uintptr_t obj) { return object_getClassName((id)obj); }
static const char *ob_class_get_name(uintptr_t cls) { return class_getName((Class)cls); }
static uintptr_t ob_class_get_superclass(uintptr_t cls) { return (uintptr_t)class_getSuperclass((Class)cls); }

static uintptr_t ob_class_get_instance_method(uintptr_t cls, uintptr_t sel) {
	return (uintptr_t)class_getInstanceMethod((Class)cls, (SEL)sel);
}

static unsigned int ob_method_nargs(uintptr_t m) { return method_getNumberOfArguments((Method)m); }
static char *ob_method_arg_type(uintptr_t m, unsigned int i) { return method_copyArgumentType((Method)m, i); }
static char *ob_method_return_type(uintptr_t m) { return method_copyReturnType((Method)m); }
static uintptr_t ob_sel_register(const char *name) { return (uintptr_t)sel_registerName(name); }
static const char *ob_sel_name(uintptr_t sel) { return sel_getName((SEL)sel); }

static uint64_t ob_read_word(uintptr_t p) { return *(uint64_t *)p; }
static void ob_write_word(uintptr_t p, uint64_t v) { *(uint64_t *)p = v; }
static void ob_free(uintptr_t p) { free((void *)p); }
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/rubiojr/objcbridge/native"
)

// Runtime is the process's Objective-C runtime. It implements
// native.Runtime, native.Memory and native.Loader.
type Runtime struct{}

var (
	_ native.Runtime = Runtime{}
	_ native.Memory  = Runtime{}
	_ native.Loader  = Runtime{}
)

// New returns the system runtime.
func New() Runtime { return Runtime{} }

func (Runtime) GetClass(name string) native.Class {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return native.Class(C.ob_get_class(cs))
}

func (Runtime) ObjectGetClass(obj native.ID) native.Class {
	return native.Class(C.ob_object_get_class(C.uintptr_t(obj)))
}

func (Runtime) ObjectGetClassName(obj native.ID) string {
	return C.GoString(C.ob_object_get_class_name(C.uintptr_t(obj)))
}

func (Runtime) ClassGetName(cls native.Class) string {
	return C.GoString(C.ob_class_get_name(C.uintptr_t(cls)))
}

func (Runtime) ClassGetSuperclass(cls native.Class) native.Class {
	return native.Class(C.ob_class_get_superclass(C.uintptr_t(cls)))
}

func (Runtime) ClassGetInstanceMethod(cls native.Class, sel native.SEL) native.Method {
	return native.Method(C.ob_class_get_instance_method(C.uintptr_t(cls), C.uintptr_t(sel)))
}

func (Runtime) MethodNumberOfArguments(m native.Method) int {
	return int(C.ob_method_nargs(C.uintptr_t(m)))
}

func (Runtime) MethodArgumentType(m native.Method, index int) string {
	return copied(C.ob_method_arg_type(C.uintptr_t(m), C.uint(index)))
}

func (Runtime) MethodReturnType(m native.Method) string {
	return copied(C.ob_method_return_type(C.uintptr_t(m)))
}

func (Runtime) RegisterSelector(name string) native.SEL {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return native.SEL(C.ob_sel_register(cs))
}

func (Runtime) SelectorName(sel native.SEL) string {
	return C.GoString(C.ob_sel_name(C.uintptr_t(sel)))
}

func (Runtime) MsgSend() uintptr      { return uintptr(C.ob_msgsend()) }
func (Runtime) MsgSendFpret() uintptr { return uintptr(C.ob_msgsend_fpret()) }

func (Runtime) Malloc(n int) uintptr {
	return uintptr(C.malloc(C.size_t(n)))
}

func (Runtime) Free(p uintptr) {
	C.ob_free(C.uintptr_t(p))
}

func (Runtime) ReadWord(p uintptr) uint64 {
	return uint64(C.ob_read_word(C.uintptr_t(p)))
}

func (Runtime) WriteWord(p uintptr, v uint64) {
	C.ob_write_word(C.uintptr_t(p), C.uint64_t(v))
}

// Open loads the library at path into the process with global symbol
// visibility, so the classes it defines become visible to GetClass.
func (Runtime) Open(path string) error {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	if h := C.dlopen(cs, C.RTLD_NOW|C.RTLD_GLOBAL); h == nil {
		if msg := C.dlerror(); msg != nil {
			return errors.New(C.GoString(msg))
		}
		return fmt.Errorf("dlopen(%s) failed", path)
	}
	return nil
}

// copied converts a string allocated by the runtime and frees it.
func copied(s *C.char) string {
	if s == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(s))
	return C.GoString(s)
}
