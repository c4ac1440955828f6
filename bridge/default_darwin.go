//go:build darwin && cgo

package bridge

import (
	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native/darwin"
)

// platformDefaults fills in the system Objective-C runtime and libffi.
func platformDefaults(c *Context) error {
	if c.rt == nil {
		c.rt = darwin.New()
	}
	if c.caller == nil {
		c.caller = ffi.NewLibFFI()
	}
	return nil
}
