package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native/objcsim"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := newCommand("test")
	var out bytes.Buffer
	c.Writer = &out
	c.ErrWriter = io.Discard
	err := c.Run(context.Background(), append([]string{"objcbridge"}, args...))
	return out.String(), err
}

func TestDecode(t *testing.T) {
	out, err := run(t, "decode", "i", "^v", "@\"NSString\"", "d")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"i", "int", "sint32"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"^v", "pointer", "pointer"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"@\"NSString\"", "id", "pointer"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"d", "double", "double"}, strings.Fields(lines[3]))
}

func TestDecodeMethod(t *testing.T) {
	out, err := run(t, "decode", "-m", "d24@0:8q16i20")
	require.NoError(t, err)
	assert.Contains(t, out, "d24@0:8q16i20\n")
	assert.Contains(t, out, "  return d")
	assert.Contains(t, out, "  arg 0 @")
	assert.Contains(t, out, "  arg 1 :")
	assert.Contains(t, out, "  arg 3 i")

	_, err = run(t, "decode", "--method", "{broken")
	assert.Error(t, err)

	_, err = run(t, "decode")
	assert.ErrorContains(t, err, "usage")
}

func TestReflect(t *testing.T) {
	out, err := run(t, "reflect", "int32", "*objc.NSNumber", "objcrt.Pointer")
	require.NoError(t, err)
	assert.Contains(t, out, "object(objc/NSNumber)")
	assert.Contains(t, out, "pointer")

	out, err = run(t, "reflect", "bool", "string")
	assert.ErrorContains(t, err, "1 of 2 names")
	assert.Contains(t, out, "error:")
}

func TestClasses(t *testing.T) {
	out, err := run(t, "classes")
	require.NoError(t, err)
	for _, name := range []string{"objc/NSObject", "objc/NSNumber", "objc/NSMutableArray"} {
		assert.Contains(t, out, name)
	}
}

func TestDoc(t *testing.T) {
	out, err := run(t, "doc", "NSNumber", "objc/NSArray")
	require.NoError(t, err)
	assert.Contains(t, out, "class NSNumber (objc/NSNumber) : objc/NSValue")
	assert.Contains(t, out, "+NumberWithDouble(float64) objc.NSNumber")
	assert.Contains(t, out, "-DoubleValue() float64")
	assert.Contains(t, out, "class NSArray (objc/NSArray) : objc/NSObject")

	_, err = run(t, "doc", "NSWindow")
	assert.ErrorContains(t, err, "no mirror class NSWindow")
}

func TestSelftest(t *testing.T) {
	out, err := run(t, "selftest", "-C", "-j", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "PASS autorelease pool")
	assert.Contains(t, out, "PASS closure callback")
	assert.Contains(t, out, "PASS concurrent sends (3 jobs)")
	assert.Contains(t, out, "6 checks, 6 passed, 0 failed")
	assert.NotContains(t, out, "\033[")
}

func TestSelftestNativeUnavailable(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("platform runtime is available")
	}
	_, err := run(t, "selftest", "--native")
	assert.ErrorIs(t, err, bridge.ErrEnvironment)
}

func TestRunChecksReportsFailures(t *testing.T) {
	b, err := bridge.New(bridge.WithRuntime(objcsim.NewFoundation(ffi.NewCodeTable())))
	require.NoError(t, err)
	defer b.Close()

	checks := []check{
		{"ok", func(context.Context, *bridge.Context) error { return nil }},
		{"broken", func(context.Context, *bridge.Context) error { return errors.New("boom") }},
	}
	var out bytes.Buffer
	failed := runChecks(context.Background(), b, &out, checks, true)
	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "\033[32mPASS\033[0m ok")
	assert.Contains(t, out.String(), "\033[31mFAIL\033[0m broken: boom")
	assert.Contains(t, out.String(), "2 checks, 1 passed, 1 failed")
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		want    string
	}{
		{"", false, "WARN"},
		{"debug", false, "DEBUG"},
		{"INFO", false, "INFO"},
		{"error", false, "ERROR"},
		{"error", true, "DEBUG"},
	}
	for _, tt := range tests {
		t.Setenv("OBJCBRIDGE_LOG", tt.env)
		assert.Equal(t, tt.want, logLevel(tt.verbose).String(), "env %q verbose %v", tt.env, tt.verbose)
	}
}

func TestUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.False(t, useColor(false, &bytes.Buffer{}))
	assert.False(t, useColor(true, &bytes.Buffer{}))
}
