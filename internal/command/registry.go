// Package command implements the name-keyed command dispatch table.
//
// Each command name maps to exactly one handler. The first registration for a
// name wins; later registrations are logged and dropped. Dispatching an unknown
// name reports failure without invoking anything.
package command

import (
	"log"
	"sort"
	"sync"
)

// Handler executes a command against its payload and reports success.
type Handler func(p *Payload) bool

// Registry maps command names to handlers.
// It is safe for concurrent use; handlers are invoked outside the lock.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds handler to name if name is not yet bound.
// Conflicts are non-fatal: the existing handler stays in effect.
func (r *Registry) Register(name string, handler Handler) {
	if name == "" || handler == nil {
		log.Printf("[CommandRegistry] Ignoring invalid registration (name=%q, handler nil=%v)", name, handler == nil)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		log.Printf("[CommandRegistry] Command already registered: %s", name)
		return
	}
	r.handlers[name] = handler
	log.Printf("[CommandRegistry] Registered command: %s", name)
}

// Execute runs the handler bound to name and returns its result.
// Returns false without invoking anything when name is unknown.
func (r *Registry) Execute(name string, p *Payload) bool {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		log.Printf("[CommandRegistry] Unknown command: %s", name)
		return false
	}
	return handler(p)
}

// Has reports whether a handler is bound to name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered command names in sorted order.
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
