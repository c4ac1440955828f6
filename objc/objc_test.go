package objc_test

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native/objcsim"
	"github.com/rubiojr/objcbridge/objc"
	"github.com/rubiojr/objcbridge/objcrt"
	"github.com/rubiojr/objcbridge/types"
)

func TestMirrorsRegister(t *testing.T) {
	want := []string{
		"objc/NSArray",
		"objc/NSAutoreleasePool",
		"objc/NSMutableArray",
		"objc/NSNumber",
		"objc/NSObject",
		"objc/NSValue",
	}
	if diff := cmp.Diff(want, objcrt.Default.Names()); diff != "" {
		t.Errorf("registered mirrors mismatch (-want +got):\n%s", diff)
	}

	for _, name := range want {
		m, ok := objcrt.Default.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, m.NativeName(), m.Class.ClassName())
		assert.NotEmpty(t, m.Doc, name)

		// Mirror instances decode back to their own registry name.
		obj := m.New(0)
		typ, err := types.FromReflectType(reflect.TypeOf(obj))
		require.NoError(t, err)
		assert.Equal(t, types.Named(name), typ)
	}
}

func TestPoolMirror(t *testing.T) {
	rt := objcsim.NewFoundation(ffi.NewCodeTable())
	ctx, err := bridge.New(bridge.WithRuntime(rt), bridge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer ctx.Close()

	pool, err := objc.NSAutoreleasePoolClass.Alloc(ctx)
	require.NoError(t, err)
	pool, err = pool.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rt.Stats.PoolsOpen.Load())
	require.NoError(t, pool.Drain(ctx))
	assert.Equal(t, int64(1), rt.Stats.PoolsOpen.Load())

	obj, err := objc.NSObjectClass.New(ctx)
	require.NoError(t, err)
	cls, err := obj.Class(ctx)
	require.NoError(t, err)
	assert.Same(t, objc.NSObjectClass, cls)

	same, err := obj.IsEqual(ctx, obj)
	require.NoError(t, err)
	assert.True(t, same)
	hash, err := obj.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(obj.Ptr()), hash)

	responds, err := obj.RespondsToSelector(ctx, objcrt.Selector{Peer: uintptr(rt.RegisterSelector("hash"))})
	require.NoError(t, err)
	assert.True(t, responds)

	v, err := objc.NSValueClass.ValueWithPointer(ctx, objcrt.Pointer{Peer: 0xfeed})
	require.NoError(t, err)
	p, err := v.PointerValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, objcrt.Pointer{Peer: 0xfeed}, p)
}

func TestArrayMirror(t *testing.T) {
	rt := objcsim.NewFoundation(ffi.NewCodeTable())
	ctx, err := bridge.New(bridge.WithRuntime(rt), bridge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer ctx.Close()

	arr, err := objc.NSMutableArrayClass.Array(ctx)
	require.NoError(t, err)
	one, err := objc.NSNumberClass.NumberWithInt(ctx, 1)
	require.NoError(t, err)
	two, err := objc.NSNumberClass.NumberWithInt(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, arr.AddObject(ctx, one))
	has, err := arr.ContainsObject(ctx, one)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = arr.ContainsObject(ctx, two)
	require.NoError(t, err)
	assert.False(t, has)

	first, err := arr.FirstObject(ctx)
	require.NoError(t, err)
	assert.Equal(t, one.Ptr(), first.Ptr())

	// Out of range raises on the native side.
	assert.Panics(t, func() { _, _ = arr.ObjectAtIndex(ctx, 5) })
}
