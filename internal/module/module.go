// Package module defines the lifecycle contract every behavioral unit
// implements and the Manager that drives a set of them through one
// cooperative loop.
//
// Modules are constructed first, against a shared Runtime, and then handed to
// the Manager in a deliberate order. That order is the init order, the update
// order, and (through SetupEventSubscriptions) the event delivery order.
package module

import (
	"github.com/dyluth/ember/internal/clock"
	"github.com/dyluth/ember/internal/command"
	"github.com/dyluth/ember/internal/eventbus"
)

// Module is the capability set the Manager drives. All methods are called from
// the single control goroutine and must never block.
type Module interface {
	// Name is a stable identifier used in diagnostics.
	Name() string

	// Begin runs once, typically registering command handlers.
	Begin()

	// SetupEventSubscriptions runs once, immediately after Begin.
	SetupEventSubscriptions()

	// Update advances the module's state machines by one tick.
	Update()

	// HandleCommand is a module-local dispatch path, separate from the
	// command registry.
	HandleCommand(name string, p *command.Payload) bool
}

// Runtime is the context shared by the Manager and every module.
type Runtime struct {
	Commands *command.Registry
	Events   *eventbus.Bus
	Clock    clock.Clock
}

// NewRuntime creates a Runtime with an empty registry and bus.
func NewRuntime(c clock.Clock) *Runtime {
	return &Runtime{
		Commands: command.NewRegistry(),
		Events:   eventbus.New(),
		Clock:    c,
	}
}
