package recording

import (
	"fmt"
	"sort"
	"sync"
)

// BackendFactory creates a new backend instance.
// Factories are registered via Register() and called by NewBackend().
type BackendFactory func() (Backend, error)

// Registry state - protected by mutex for thread-safe access.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
)

// Register registers a backend factory with the given name.
// This function is typically called from init() in backend packages,
// following the database/sql driver pattern:
//
//	func init() {
//	    recording.Register("software", func() (recording.Backend, error) {
//	        return software.New(), nil
//	    })
//	}
//
// Register panics if factory is nil or a backend with the same name is
// already registered.
func Register(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("recording: Register factory is nil")
	}
	if _, dup := backends[name]; dup {
		panic("recording: Register called twice for " + name)
	}
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// If the backend is not registered, this is a no-op.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// NewBackend creates a new backend instance by name.
//
//	import _ "github.com/gogpu/rtt/backend/wgpu"
//
//	b, err := recording.NewBackend("wgpu")
//
// Returns an error if the backend is not registered or its factory fails.
// The error message includes a hint about forgotten imports.
func NewBackend(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("recording: unknown backend %q (forgotten import?)", name)
	}
	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("recording: open backend %q: %w", name, err)
	}
	return b, nil
}

// Backends returns a sorted list of registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}
