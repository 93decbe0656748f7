// Package basic is the reference module: LED control (including a breathing
// effect) and deferred reboot, both advanced once per tick.
package basic

import (
	"github.com/dyluth/ember/internal/command"
	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/internal/hal"
	"github.com/dyluth/ember/internal/module"
)

// Name is the module's diagnostic name.
const Name = "BasicCommandsModule"

// Command names registered by this module.
const (
	CmdSetLED     = "set_led"
	CmdSafeReboot = "safe_reboot"
	CmdReboot     = "reboot"
)

// LED modes reported in responses and LEDStateChanged events.
const (
	ModeOn        = "on"
	ModeOff       = "off"
	ModeBreathing = "breathing"
)

// Default timings in ticks (milliseconds).
const (
	DefaultBreathInterval = 30
	DefaultRebootDelay    = 1000
)

// Options tunes the module's timers. Zero values select the defaults.
type Options struct {
	BreathInterval uint64
	RebootDelay    uint64
}

// Module implements module.Module.
type Module struct {
	module.Base

	rt        *module.Runtime
	led       hal.LED
	restarter hal.Restarter

	mode        string
	breath      breather
	reboot      rebootTimer
	rebootDelay uint64
}

// ledArgs is the data object of set_led: {"arguments": ["on"]}.
type ledArgs struct {
	Arguments command.Arguments `json:"arguments"`
}

// New constructs the module. It does nothing until the manager calls Begin.
func New(rt *module.Runtime, led hal.LED, restarter hal.Restarter, opts Options) *Module {
	if opts.BreathInterval == 0 {
		opts.BreathInterval = DefaultBreathInterval
	}
	if opts.RebootDelay == 0 {
		opts.RebootDelay = DefaultRebootDelay
	}
	return &Module{
		Base:        module.NewBase(Name),
		rt:          rt,
		led:         led,
		restarter:   restarter,
		mode:        ModeOff,
		breath:      newBreather(opts.BreathInterval),
		rebootDelay: opts.RebootDelay,
	}
}

// Begin registers the module's commands.
func (m *Module) Begin() {
	m.rt.Commands.Register(CmdSetLED, m.handleSetLED)
	m.rt.Commands.Register(CmdSafeReboot, m.handleSafeReboot)
	m.rt.Commands.Register(CmdReboot, m.handleReboot)
	m.Logf("Initialized.")
}

// SetupEventSubscriptions is a no-op; this module only publishes.
func (m *Module) SetupEventSubscriptions() {}

// Update advances the breathing effect and the reboot timer.
func (m *Module) Update() {
	now := m.rt.Clock.Millis()

	if m.breath.advance(now) {
		m.led.SetBrightness(m.breath.brightness)
	}

	if m.reboot.due(now) {
		m.Logf("Rebooting now...")
		m.restarter.Restart()
	}
}

// HandleCommand dispatches directly to this module's handlers, bypassing the
// registry.
func (m *Module) HandleCommand(name string, p *command.Payload) bool {
	switch name {
	case CmdSetLED:
		return m.handleSetLED(p)
	case CmdSafeReboot:
		return m.handleSafeReboot(p)
	case CmdReboot:
		return m.handleReboot(p)
	default:
		return false
	}
}

func (m *Module) handleSetLED(p *command.Payload) bool {
	var args ledArgs
	resp, ok := m.DecodeData(p, &args)
	if !ok {
		m.Logf("Failed to decode data.")
		return false
	}
	state := args.Arguments.First()
	if state == "" {
		m.Logf("Invalid LED state data.")
		return false
	}

	var message string
	level := 0
	switch state {
	case "on":
		m.breath.stop()
		m.led.Set(true)
		m.mode = ModeOn
		level = hal.MaxBrightness
		message = "LED turned on"
	case "off":
		m.breath.stop()
		m.led.Set(false)
		m.mode = ModeOff
		message = "LED turned off"
	case "breath_on":
		m.breath.start(m.rt.Clock.Millis())
		m.led.SetBrightness(0)
		m.mode = ModeBreathing
		message = "Breathing LED enabled"
	case "breath_off":
		m.breath.stop()
		m.led.Set(false)
		m.mode = ModeOff
		message = "Breathing LED disabled"
	default:
		m.BuildResponse(resp, command.StatusError, "Unknown LED state", map[string]any{"state": state})
		m.Logf("Unknown LED state: %s", state)
		return false
	}

	m.BuildResponse(resp, command.StatusOK, message, map[string]any{"mode": m.mode})
	m.Logf("LED state changed to: %s", state)
	m.rt.Events.Publish(eventbus.NewLEDStateChanged(m.mode, level))
	return true
}

func (m *Module) handleSafeReboot(p *command.Payload) bool {
	resp, ok := m.DecodeData(p, nil)
	if !ok {
		m.Logf("Failed to decode event data.")
		return false
	}
	return m.scheduleReboot(resp, "Safe reboot initiated")
}

// handleReboot takes no arguments, so an absent data object is fine.
func (m *Module) handleReboot(p *command.Payload) bool {
	resp, ok := m.ResponseFor(p)
	if !ok {
		return false
	}
	return m.scheduleReboot(resp, "Reboot scheduled")
}

func (m *Module) scheduleReboot(resp *command.Response, message string) bool {
	if !m.reboot.arm(m.rt.Clock.Millis(), m.rebootDelay) {
		message = "Reboot already scheduled"
	}
	m.BuildResponse(resp, command.StatusOK, message, map[string]any{"delay_ms": m.rebootDelay})
	m.Logf("%s.", message)
	return true
}

// Snapshot is a read-only view of the module's state machines.
type Snapshot struct {
	Mode           string
	Breath         BreathState
	BreathLevel    int
	RebootArmed    bool
	RebootDeadline uint64
}

// Snapshot returns the current state.
func (m *Module) Snapshot() Snapshot {
	return Snapshot{
		Mode:           m.mode,
		Breath:         m.breath.state(),
		BreathLevel:    m.breath.brightness,
		RebootArmed:    m.reboot.armed,
		RebootDeadline: m.reboot.deadline,
	}
}
