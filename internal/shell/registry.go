// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"sort"
	"sync"
)

// Registry maps command names to their handlers. It is safe for concurrent
// use: the session loop reads it while contribution change callbacks,
// delivered on the watcher goroutine, mutate it.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Bind binds name to handler, replacing any prior binding. Last
// registration wins.
func (r *Registry) Bind(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Unbind removes the binding for name. Unbound names are no longer
// dispatchable; unbinding an unknown name is a no-op.
func (r *Registry) Unbind(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// Lookup retrieves the handler bound to name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns all bound command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
