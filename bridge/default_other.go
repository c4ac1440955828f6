//go:build !darwin || !cgo

package bridge

import "runtime"

// platformDefaults has nothing to offer off darwin: a runtime must be given.
func platformDefaults(c *Context) error {
	if c.rt == nil {
		return errorf("init", ErrEnvironment,
			"no native Objective-C runtime on %s/%s; configure one with WithRuntime", runtime.GOOS, runtime.GOARCH)
	}
	return nil
}
