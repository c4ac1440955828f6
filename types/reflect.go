package types

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rubiojr/objcbridge/objcrt"
)

var (
	pointerName  = reflect.TypeFor[objcrt.Pointer]().String()
	selectorName = reflect.TypeFor[objcrt.Selector]().String()
	idName       = reflect.TypeFor[objcrt.ID]().String()
	className    = reflect.TypeFor[objcrt.Class]().String()
)

// primitiveNames maps reflected Go scalar names to their kinds.
var primitiveNames = map[string]Kind{
	"void":    Void,
	"int32":   Int,
	"int64":   Long,
	"int":     Long,
	"int16":   Short,
	"float32": Float,
	"float64": Double,
	"uint8":   Char,
	"bool":    Boolean,
}

// FromReflectString decodes a Go reflected type name, as produced by
// reflect.Type.String, into a Type. "void" stands for "no result".
//
// Mirror classes are recognized by their package name: "objc.NSString" and
// "*objc.NSString" both decode to the Object type "objc/NSString". Function
// types are rejected since the bridge cannot return closures from native
// code; any other name is unsupported.
func FromReflectString(name string) (Type, error) {
	if k, ok := primitiveNames[name]; ok {
		return Of(k), nil
	}
	switch strings.TrimPrefix(name, "*") {
	case pointerName:
		return Of(Pointer), nil
	case selectorName:
		return Of(Selector), nil
	}
	switch name {
	case className:
		return Of(Class), nil
	case idName:
		return Of(ID), nil
	}
	if strings.HasPrefix(name, "func(") {
		return Type{}, fmt.Errorf("%w: %s: returning functions from native code is not supported", ErrUnsupported, name)
	}
	bare := strings.TrimPrefix(name, "*")
	if strings.HasPrefix(bare, objcrt.MirrorPackage+".") && len(bare) > len(objcrt.MirrorPackage)+1 {
		return Named(strings.ReplaceAll(bare, ".", "/")), nil
	}
	return Type{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// FromReflectType decodes t via FromReflectString. A nil t is void.
func FromReflectType(t reflect.Type) (Type, error) {
	if t == nil {
		return Of(Void), nil
	}
	return FromReflectString(t.String())
}
