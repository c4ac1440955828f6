package ffi

import (
	"fmt"
	"sync"
)

// codeBase is the first synthetic entry address handed out by a CodeTable.
// It is far from zero so that a nil function pointer never resolves.
const codeBase = 0x10100000

// CodeTable is a Caller whose "machine code" is Go functions. Each
// registered function gets a synthetic entry address; Call dispatches on
// that address and applies the same narrowing a real ABI applies to
// argument and return slots.
type CodeTable struct {
	mu      sync.RWMutex
	entries map[uintptr]Func
	next    uintptr
}

// NewCodeTable returns an empty table.
func NewCodeTable() *CodeTable {
	return &CodeTable{
		entries: make(map[uintptr]Func),
		next:    codeBase,
	}
}

// Register installs fn and returns its entry address.
func (t *CodeTable) Register(fn Func) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.next
	t.next += 0x10
	t.entries[entry] = fn
	return entry
}

// Unregister removes the code at entry. It reports whether anything was there.
func (t *CodeTable) Unregister(entry uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[entry]; !ok {
		return false
	}
	delete(t.entries, entry)
	return true
}

// Has reports whether entry resolves to code.
func (t *CodeTable) Has(entry uintptr) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[entry]
	return ok
}

// Len returns the number of live entries.
func (t *CodeTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *CodeTable) Prepare(ret Kind, args []Kind) (*CIF, error) {
	if err := validate(ret, args); err != nil {
		return nil, err
	}
	return &CIF{Return: ret, Args: append([]Kind(nil), args...)}, nil
}

func (t *CodeTable) Call(cif *CIF, fn uintptr, args []uint64) (uint64, error) {
	if cif == nil {
		return 0, fmt.Errorf("%w: nil call interface", ErrPrepare)
	}
	if len(args) != len(cif.Args) {
		return 0, fmt.Errorf("%w: call interface has %d arguments, got %d", ErrPrepare, len(cif.Args), len(args))
	}
	t.mu.RLock()
	f, ok := t.entries[fn]
	t.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w %#x", ErrNoCode, fn)
	}
	slots := make([]uint64, len(args))
	for i, a := range args {
		slots[i] = Narrow(cif.Args[i], a)
	}
	return Narrow(cif.Return, f(slots)), nil
}

func (t *CodeTable) NewClosure(cif *CIF, fn Func) (*Closure, error) {
	if cif == nil {
		return nil, fmt.Errorf("%w: nil call interface", ErrPrepare)
	}
	entry := t.Register(func(args []uint64) uint64 {
		// The caller's view of the slots may be wider than ours.
		slots := make([]uint64, len(cif.Args))
		for i := range slots {
			if i < len(args) {
				slots[i] = Narrow(cif.Args[i], args[i])
			}
		}
		return Narrow(cif.Return, fn(slots))
	})
	return &Closure{Entry: entry, CIF: cif}, nil
}

func (t *CodeTable) FreeClosure(c *Closure) error {
	if c == nil || !t.Unregister(c.Entry) {
		return fmt.Errorf("%w %#x: closure already freed", ErrNoCode, entryOf(c))
	}
	return nil
}

func entryOf(c *Closure) uintptr {
	if c == nil {
		return 0
	}
	return c.Entry
}
