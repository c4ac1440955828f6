// Package doc describes registered mirror classes for terminal display.
//
// Mirrors carry no source comments at run time, so descriptions are built by
// reflection: the superclass comes from the embedded mirror struct and the
// methods from the class singleton and instance method sets, minus whatever
// the embedded type already provides.
package doc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/objcrt"
	"github.com/rubiojr/objcbridge/types"
)

// MirrorDoc holds the description of one mirror class.
type MirrorDoc struct {
	Name         string // registry name, e.g. "objc/NSNumber"
	Native       string // native class name, e.g. "NSNumber"
	Super        string // registry name of the superclass mirror, "" for a root
	Doc          string
	ClassMethods []FuncDoc
	Methods      []FuncDoc
}

// FuncDoc describes a mirror method. The bridge context parameter and the
// error result every mirror method has are left out.
type FuncDoc struct {
	Name    string
	Params  []string
	Results []string
}

var (
	contextType = reflect.TypeFor[*bridge.Context]()
	errorType   = reflect.TypeFor[error]()
)

// Extract describes m.
func Extract(m *objcrt.Mirror) *MirrorDoc {
	d := &MirrorDoc{Name: m.Name, Native: m.NativeName(), Doc: m.Doc}

	cls := reflect.TypeOf(m.Class)
	d.ClassMethods = methods(cls, embedded(cls))

	inst := reflect.TypeOf(m.New(0))
	super := embedded(inst)
	if super != nil {
		if t, err := types.FromReflectType(super); err == nil && t.Kind == types.Object {
			d.Super = t.Name
		}
	}
	d.Methods = methods(inst, super)
	return d
}

// Lookup describes the mirror registered in reg under name, which may be a
// registry name or a native class name.
func Lookup(reg *objcrt.Registry, name string) (*MirrorDoc, error) {
	m, ok := reg.Lookup(name)
	if !ok {
		m, ok = reg.Lookup(objcrt.MirrorName(name))
	}
	if !ok {
		return nil, fmt.Errorf("no mirror class %s", name)
	}
	return Extract(m), nil
}

// embedded returns the pointer type of the first embedded field of the
// struct t points to, or nil.
func embedded(t reflect.Type) reflect.Type {
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil
	}
	s := t.Elem()
	if s.NumField() == 0 || !s.Field(0).Anonymous {
		return nil
	}
	f := s.Field(0).Type
	if f.Kind() != reflect.Pointer {
		f = reflect.PointerTo(f)
	}
	return f
}

func methods(t, super reflect.Type) []FuncDoc {
	var out []FuncDoc
	for i := range t.NumMethod() {
		m := t.Method(i)
		if super != nil {
			if _, ok := super.MethodByName(m.Name); ok {
				continue
			}
		}
		out = append(out, funcDoc(m))
	}
	return out
}

func funcDoc(m reflect.Method) FuncDoc {
	f := FuncDoc{Name: m.Name}
	// In(0) is the receiver.
	for i := 1; i < m.Type.NumIn(); i++ {
		if in := m.Type.In(i); in != contextType {
			f.Params = append(f.Params, typeName(in))
		}
	}
	for i := range m.Type.NumOut() {
		if out := m.Type.Out(i); out != errorType {
			f.Results = append(f.Results, typeName(out))
		}
	}
	return f
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return "any"
	}
	return strings.TrimPrefix(t.String(), "*")
}
