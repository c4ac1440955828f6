package objcrt

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Mirror describes one registered mirror class.
type Mirror struct {
	// Name is the registry name, e.g. "objc/NSNumber".
	Name string
	// Class is the class singleton returned when a native class pointer of
	// this class is decoded.
	Class Class
	// New wraps a native object pointer (possibly nil) in a mirror instance.
	New func(ptr uintptr) ID
	// Doc is a one-line description shown by `objcbridge classes`.
	Doc string
}

// NativeName returns the Objective-C class name the mirror stands for.
func (m *Mirror) NativeName() string {
	return strings.TrimPrefix(m.Name, MirrorPrefix)
}

// Registry holds the mirror classes the bridge can instantiate.
type Registry struct {
	mu      sync.RWMutex
	mirrors map[string]*Mirror
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mirrors: make(map[string]*Mirror)}
}

// Default is the process registry. Mirror packages register into it from init().
var Default = NewRegistry()

// Register adds a mirror class to the Default registry.
func Register(m *Mirror) {
	Default.Register(m)
}

// Register adds a mirror class. A malformed mirror is a programming error
// and panics.
func (r *Registry) Register(m *Mirror) {
	if m == nil || m.New == nil || m.Class == nil {
		panic("objcrt: incomplete mirror registration")
	}
	if !strings.HasPrefix(m.Name, MirrorPrefix) || len(m.Name) == len(MirrorPrefix) {
		panic(fmt.Sprintf("objcrt: mirror %q must be named %s<Class>", m.Name, MirrorPrefix))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirrors[m.Name] = m
}

// Lookup returns the mirror registered under name.
func (r *Registry) Lookup(name string) (*Mirror, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mirrors[name]
	return m, ok
}

// Names returns the sorted names of all registered mirrors.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.mirrors))
	for name := range r.mirrors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered mirrors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mirrors)
}
