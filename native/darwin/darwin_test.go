//go:build darwin && cgo

package darwin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWords(t *testing.T) {
	rt := New()
	p := rt.Malloc(16)
	require.NotZero(t, p)
	defer rt.Free(p)

	rt.WriteWord(p, 0xdeadbeef)
	rt.WriteWord(p+8, ^uint64(0))
	assert.Equal(t, uint64(0xdeadbeef), rt.ReadWord(p))
	assert.Equal(t, ^uint64(0), rt.ReadWord(p+8))
}

func TestFoundationClasses(t *testing.T) {
	rt := New()
	cls := rt.GetClass("NSNumber")
	require.NotZero(t, cls)
	assert.Equal(t, "NSNumber", rt.ClassGetName(cls))
	assert.Equal(t, "NSValue", rt.ClassGetName(rt.ClassGetSuperclass(cls)))
	assert.NotZero(t, rt.MsgSend())
	assert.NotZero(t, rt.MsgSendFpret())
}
