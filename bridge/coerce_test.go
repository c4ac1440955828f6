package bridge_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native"
	"github.com/rubiojr/objcbridge/objc"
	"github.com/rubiojr/objcbridge/objcrt"
	"github.com/rubiojr/objcbridge/types"
)

func TestPrimitiveWordsRoundTrip(t *testing.T) {
	ctx := newContext(t, newSim())
	tests := []struct {
		kind  types.Kind
		words []uint64
	}{
		{types.Int, []uint64{0, 1, uint64(math.MaxInt32), u64(-7), u64(math.MinInt32)}},
		{types.Long, []uint64{0, u64(-7), math.MaxUint64, 1 << 63, 0x0123456789abcdef}},
		{types.Short, []uint64{0, u64(-7), math.MaxInt16, u64(math.MinInt16)}},
		{types.Char, []uint64{0, 'a', u64(-1), u64(-128), 127}},
		{types.Boolean, []uint64{0, 1}},
		{types.Float, []uint64{0, uint64(math.Float32bits(-1.5)), uint64(math.Float32bits(float32(math.Inf(1)))), 0x7fc00001}},
		{types.Double, []uint64{0, math.Float64bits(math.Pi), math.Float64bits(math.Copysign(0, -1)), 0x7ff8000000000001}},
	}
	for _, tt := range tests {
		typ := types.Of(tt.kind)
		for _, w := range tt.words {
			// Words are compared as a slot of this kind carries them.
			w = ffi.Narrow(typ.FFIKind(), w)
			v, err := ctx.ToManaged(w, typ)
			require.NoError(t, err)
			back, err := ctx.ToNative(v)
			require.NoError(t, err)
			assert.Equal(t, w, back, "%v word %#x via %T(%v)", typ, w, v, v)
		}
	}
}

func TestPrimitiveValuesRoundTrip(t *testing.T) {
	ctx := newContext(t, newSim())
	tests := []struct {
		v    any
		kind types.Kind
	}{
		{int32(-7), types.Int},
		{int32(math.MaxInt32), types.Int},
		{int64(math.MinInt64), types.Long},
		{int16(-300), types.Short},
		{uint8(200), types.Char},
		{true, types.Boolean},
		{false, types.Boolean},
		{float32(3.25), types.Float},
		{math.SmallestNonzeroFloat64, types.Double},
	}
	for _, tt := range tests {
		w, err := ctx.ToNative(tt.v)
		require.NoError(t, err)
		got, err := ctx.ToManaged(w, types.Of(tt.kind))
		require.NoError(t, err)
		assert.Equal(t, tt.v, got)
	}

	w, err := ctx.ToNative(-7)
	require.NoError(t, err)
	assert.Equal(t, u64(-7), w)
	assert.Equal(t, u64(-7), mustNative(t, ctx, int32(-7)))
	assert.Equal(t, u64(-56), mustNative(t, ctx, uint8(200)))
}

func TestToNativeWrappers(t *testing.T) {
	rt := newSim()
	ctx := newContext(t, rt)

	assert.Zero(t, mustNative(t, ctx, nil))
	assert.Zero(t, mustNative(t, ctx, objcrt.Nil))
	assert.Zero(t, mustNative(t, ctx, (*objc.NSNumber)(nil)))
	assert.Zero(t, mustNative(t, ctx, (func())(nil)))
	assert.Equal(t, uint64(0x1000), mustNative(t, ctx, objcrt.Pointer{Peer: 0x1000}))
	assert.Equal(t, uint64(0x2000), mustNative(t, ctx, &objcrt.Pointer{Peer: 0x2000}))
	assert.Equal(t, uint64(0x3000), mustNative(t, ctx, objcrt.Selector{Peer: 0x3000}))
	assert.Equal(t, uint64(0x4000), mustNative(t, ctx, objcrt.MakeObject(0x4000)))
	assert.Equal(t, uint64(0x5000), mustNative(t, ctx, &objc.NSArray{NSObject: objc.NSObject{Object: objcrt.MakeObject(0x5000)}}))
}

func TestToNativeBindsClassSingletons(t *testing.T) {
	rt := newSim()
	ctx := newContext(t, rt)

	cls := objcrt.NewClassObject("NSMutableArray")
	require.False(t, cls.Bound())
	assert.Equal(t, uint64(rt.GetClass("NSMutableArray")), mustNative(t, ctx, cls))
	assert.True(t, cls.Bound())

	_, err := ctx.ToNative(objcrt.NewClassObject("NSWindow"))
	assert.ErrorIs(t, err, bridge.ErrResolution)
}

func TestToNativeUnsupported(t *testing.T) {
	ctx := newContext(t, newSim())
	for _, v := range []any{"text", uint64(1), struct{}{}, []int32{1}, func(...int32) {}} {
		_, err := ctx.ToNative(v)
		assert.ErrorIs(t, err, bridge.ErrUnsupported, "%T", v)
		assert.ErrorContains(t, err, "unsupported Go value type")
	}
}

func TestToManagedNilHandling(t *testing.T) {
	ctx := newContext(t, newSim())

	v, err := ctx.ToManaged(0, types.Of(types.ID))
	require.NoError(t, err)
	assert.Equal(t, objcrt.Nil, v)

	v, err = ctx.ToManaged(0, types.Of(types.Class))
	require.NoError(t, err)
	assert.Equal(t, objcrt.Nil, v)

	v, err = ctx.ToManaged(0, types.Named("objc/NSNumber"))
	require.NoError(t, err)
	n, ok := v.(*objc.NSNumber)
	require.True(t, ok, "got %T", v)
	require.NotNil(t, n)
	assert.True(t, n.IsNil())
	assert.NotEqual(t, objcrt.Nil, v)

	_, err = ctx.ToManaged(0, types.Named("objc/NSWindow"))
	assert.ErrorIs(t, err, bridge.ErrResolution)

	v, err = ctx.ToManaged(0, types.Of(types.Void))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ctx.ToManaged(0xbeef, types.Of(types.Pointer))
	require.NoError(t, err)
	assert.Equal(t, objcrt.Pointer{Peer: 0xbeef}, v)

	v, err = ctx.ToManaged(0xcafe, types.Of(types.Selector))
	require.NoError(t, err)
	assert.Equal(t, objcrt.Selector{Peer: 0xcafe}, v)
}

func TestToManagedWalksAncestors(t *testing.T) {
	rt := newSim()
	// NSNumber is the grandparent of Leaf and has a mirror; NSArray is an
	// unrelated class that also has one.
	rt.MustDefineClass("Middle", "NSNumber")
	rt.MustDefineClass("Leaf", "Middle")
	rt.MustDefineClass("Orphan", "")
	ctx := newContext(t, rt)

	leaf := rt.Alloc(rt.GetClass("Leaf"))
	v, err := ctx.ToManaged(uint64(leaf), types.Of(types.ID))
	require.NoError(t, err)
	n, ok := v.(*objc.NSNumber)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, uintptr(leaf), n.Ptr())

	// The declared mirror does not narrow the search.
	v, err = ctx.ToManaged(uint64(leaf), types.Named("objc/NSObject"))
	require.NoError(t, err)
	assert.IsType(t, &objc.NSNumber{}, v)

	arr := native.ID(rt.Send(native.ID(rt.GetClass("NSMutableArray")), "array"))
	require.Equal(t, "__NSArrayM", rt.ObjectGetClassName(arr))
	v, err = ctx.ToManaged(uint64(arr), types.Of(types.ID))
	require.NoError(t, err)
	assert.IsType(t, &objc.NSMutableArray{}, v)

	_, err = ctx.ToManaged(uint64(rt.Alloc(rt.GetClass("Orphan"))), types.Of(types.ID))
	assert.ErrorIs(t, err, bridge.ErrResolution)
	assert.ErrorContains(t, err, "Orphan")
}

func TestToManagedClasses(t *testing.T) {
	rt := newSim()
	ctx := newContext(t, rt)

	v, err := ctx.ToManaged(uint64(rt.GetClass("NSNumber")), types.Of(types.Class))
	require.NoError(t, err)
	assert.Same(t, objc.NSNumberClass, v)
	assert.Equal(t, uintptr(rt.GetClass("NSNumber")), objc.NSNumberClass.Ptr())

	_, err = ctx.ToManaged(uint64(rt.GetClass("__NSCFNumber")), types.Of(types.Class))
	assert.ErrorIs(t, err, bridge.ErrResolution)
}

func mustNative(t *testing.T, ctx *bridge.Context, v any) uint64 {
	t.Helper()
	w, err := ctx.ToNative(v)
	require.NoError(t, err)
	return w
}

func u64(v int64) uint64 { return uint64(v) }
