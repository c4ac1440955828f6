package types

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/objcrt"
)

func TestFromEncoding(t *testing.T) {
	tests := []struct {
		enc  string
		want Kind
	}{
		{"c", Char},
		{"C", Char},
		{"i", Int},
		{"I", Int},
		{"s", Short},
		{"S", Short},
		{"l", Long},
		{"L", Long},
		{"q", Long},
		{"Q", Long},
		{"f", Float},
		{"d", Double},
		{"B", Boolean},
		{"v", Void},
		{":", Selector},
		{"#", Class},
		{"@", ID},
		{`@"NSString"`, ID},
		{"{CGPoint=dd}", Pointer},
		{"[4i]", Pointer},
		{"(u=if)", Pointer},
		{"^v", Pointer},
		{"*", Pointer},
		{"?", Pointer},
		{"b4", Pointer},
		{"", Pointer},
	}
	for _, tt := range tests {
		if got := FromEncoding(tt.enc); got != Of(tt.want) {
			t.Errorf("FromEncoding(%q) = %v, want %v", tt.enc, got, tt.want)
		}
	}
}

func TestQualifiersNeverChangeClassification(t *testing.T) {
	for _, base := range []string{"c", "i", "s", "l", "q", "f", "d", "B", "v", ":", "#", "@", "{S=i}", "^i"} {
		want := FromEncoding(base)
		for _, q := range Qualifiers {
			enc := string(q) + base
			assert.Equal(t, want, FromEncoding(enc), "encoding %q", enc)
		}
		assert.Equal(t, want, FromEncoding("rnNoORV"+base))
	}
	assert.Equal(t, FromEncoding("l"), FromEncoding("rl"))
	assert.Equal(t, Of(Pointer), FromEncoding("rV"))
}

func TestFFIKindFromEncoding(t *testing.T) {
	tests := map[string]ffi.Kind{
		"c": ffi.SInt8, "B": ffi.SInt8, "i": ffi.SInt32, "s": ffi.SInt16,
		"l": ffi.SInt64, "Q": ffi.SInt64, "f": ffi.Float, "d": ffi.Double,
		"v": ffi.Void, "@": ffi.Pointer, ":": ffi.Pointer, "#": ffi.Pointer,
		"^{_NSZone=}": ffi.Pointer, "rd": ffi.Double,
	}
	for enc, want := range tests {
		assert.Equal(t, want, FFIKindFromEncoding(enc), "encoding %q", enc)
	}
}

func TestFromReflectString(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"void", Of(Void)},
		{"int32", Of(Int)},
		{"int64", Of(Long)},
		{"int", Of(Long)},
		{"int16", Of(Short)},
		{"float32", Of(Float)},
		{"float64", Of(Double)},
		{"uint8", Of(Char)},
		{"bool", Of(Boolean)},
		{"objcrt.Class", Of(Class)},
		{"objcrt.Pointer", Of(Pointer)},
		{"*objcrt.Pointer", Of(Pointer)},
		{"objcrt.Selector", Of(Selector)},
		{"objcrt.ID", Of(ID)},
		{"objc.NSObject", Named("objc/NSObject")},
		{"*objc.NSString", Named("objc/NSString")},
	}
	for _, tt := range tests {
		got, err := FromReflectString(tt.name)
		if err != nil {
			t.Errorf("FromReflectString(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FromReflectString(%q) = %v, want %v", tt.name, got, tt.want)
		}
		require.NoError(t, got.Validate())
	}
}

func TestFromReflectStringRejects(t *testing.T) {
	for _, name := range []string{"string", "strings.Builder", "*bytes.Buffer", "objc.", "uint64", "interface {}", "[]int32"} {
		_, err := FromReflectString(name)
		assert.ErrorIs(t, err, ErrUnsupported, "name %q", name)
	}

	_, err := FromReflectString("func(int32) int32")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "returning functions")
}

func TestFromReflectType(t *testing.T) {
	got, err := FromReflectType(nil)
	require.NoError(t, err)
	assert.Equal(t, Of(Void), got)

	got, err = FromReflectType(reflect.TypeFor[objcrt.Pointer]())
	require.NoError(t, err)
	assert.Equal(t, Of(Pointer), got)

	got, err = FromReflectType(reflect.TypeFor[objcrt.ID]())
	require.NoError(t, err)
	assert.Equal(t, Of(ID), got)

	got, err = FromReflectType(reflect.TypeFor[float64]())
	require.NoError(t, err)
	assert.Equal(t, Of(Double), got)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Named("objc/NSObject").Validate())
	assert.ErrorIs(t, Type{Kind: Object}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Type{Kind: Int, Name: "x"}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Type{Kind: Kind(77)}.Validate(), ErrInvalid)
}

func TestTypeFFIKind(t *testing.T) {
	assert.Equal(t, ffi.SInt8, Of(Boolean).FFIKind())
	assert.Equal(t, ffi.SInt8, Of(Char).FFIKind())
	assert.Equal(t, ffi.Pointer, Named("objc/NSObject").FFIKind())
	assert.Equal(t, ffi.Pointer, Of(Selector).FFIKind())
	assert.Equal(t, ffi.Void, Of(Void).FFIKind())
	assert.Equal(t, "object(objc/NSObject)", Named("objc/NSObject").String())
}

func TestSplitMethodEncoding(t *testing.T) {
	tests := []struct {
		enc  string
		want MethodSignature
	}{
		{"v16@0:8", MethodSignature{Return: "v", Args: []string{"@", ":"}}},
		{"v24@0:8i16", MethodSignature{Return: "v", Args: []string{"@", ":", "i"}}},
		{"d24@0:8q16", MethodSignature{Return: "d", Args: []string{"@", ":", "q"}}},
		{`@32@0:8@"NSString"16^{_NSZone=}24`, MethodSignature{Return: "@", Args: []string{"@", ":", `@"NSString"`, "^{_NSZone=}"}}},
		{"v32@0:8^?16^v24", MethodSignature{Return: "v", Args: []string{"@", ":", "^?", "^v"}}},
		{"Vv20@0:8r*16", MethodSignature{Return: "Vv", Args: []string{"@", ":", "r*"}}},
		{"{CGRect={CGPoint=dd}{CGSize=dd}}16@0:8", MethodSignature{Return: "{CGRect={CGPoint=dd}{CGSize=dd}}", Args: []string{"@", ":"}}},
		{"v24@0:8@?<v@?@>16", MethodSignature{Return: "v", Args: []string{"@", ":", "@?<v@?@>"}}},
		{"B20@0:8[4c]16b3", MethodSignature{Return: "B", Args: []string{"@", ":", "[4c]", "b3"}}},
		{"v@:", MethodSignature{Return: "v", Args: []string{"@", ":"}}},
	}
	for _, tt := range tests {
		got, err := SplitMethodEncoding(tt.enc)
		if err != nil {
			t.Errorf("SplitMethodEncoding(%q): %v", tt.enc, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("SplitMethodEncoding(%q) mismatch (-want +got):\n%s", tt.enc, diff)
		}
	}
}

func TestSplitMethodEncodingErrors(t *testing.T) {
	for _, enc := range []string{"", "{CGPoint=dd", `@"NSString`, "v16@0:8r", "b", "8v"} {
		_, err := SplitMethodEncoding(enc)
		assert.ErrorIs(t, err, ErrMalformed, "encoding %q", enc)
	}
}
