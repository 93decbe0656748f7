package module

import (
	"errors"
	"log"

	"github.com/dyluth/ember/internal/command"
)

// ErrAlreadyInitialized is returned when a module is registered after InitAll.
var ErrAlreadyInitialized = errors.New("modules already initialized")

// Manager owns the ordered module collection and is the single entry point
// the transport uses to route inbound commands.
//
// The collection only grows. Register, InitAll and UpdateAll are expected to
// be called from one goroutine; registration must finish before InitAll.
type Manager struct {
	rt          *Runtime
	modules     []Module
	initialized bool
}

// NewManager creates a Manager dispatching through rt's command registry.
func NewManager(rt *Runtime) *Manager {
	return &Manager{rt: rt}
}

// Register appends m to the collection.
func (m *Manager) Register(mod Module) error {
	if mod == nil {
		return errors.New("cannot register nil module")
	}
	if m.initialized {
		return ErrAlreadyInitialized
	}
	m.modules = append(m.modules, mod)
	return nil
}

// InitAll calls Begin then SetupEventSubscriptions on each module, one module
// at a time, in registration order. Only the first call has any effect.
func (m *Manager) InitAll() {
	if m.initialized {
		log.Printf("[ModuleManager] InitAll called again, ignoring")
		return
	}
	m.initialized = true

	for _, mod := range m.modules {
		log.Printf("[ModuleManager] Initializing module: %s", mod.Name())
		mod.Begin()
		mod.SetupEventSubscriptions()
	}
}

// UpdateAll calls Update on every module in registration order.
func (m *Manager) UpdateAll() {
	for _, mod := range m.modules {
		mod.Update()
	}
}

// HandleCommand routes an inbound command into the registry.
// Fails without touching the registry when there are no modules, the name is
// empty, or the payload is nil.
func (m *Manager) HandleCommand(name string, p *command.Payload) bool {
	if len(m.modules) == 0 || name == "" || p == nil {
		return false
	}

	if m.rt.Commands.Execute(name, p) {
		log.Printf("[ModuleManager] Command executed: %s", name)
		return true
	}
	log.Printf("[ModuleManager] Command execution failed: %s", name)
	return false
}

// Count returns the number of registered modules.
func (m *Manager) Count() int {
	return len(m.modules)
}

// Names returns module names in registration order.
func (m *Manager) Names() []string {
	names := make([]string, len(m.modules))
	for i, mod := range m.modules {
		names[i] = mod.Name()
	}
	return names
}

// Initialized reports whether InitAll has run.
func (m *Manager) Initialized() bool {
	return m.initialized
}
