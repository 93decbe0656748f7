// Package system answers device introspection commands: runtime info and a
// simulated sensor reading.
package system

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/dyluth/ember/internal/command"
	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/internal/module"
)

// Name is the module's diagnostic name.
const Name = "SystemModule"

// Command names registered by this module.
const (
	CmdInfo       = "info"
	CmdMockSensor = "get mock_sensor"
)

// Options configures the module.
type Options struct {
	// DeviceID is reported by info. Defaults to the hostname.
	DeviceID string
	// Rand drives the mock sensor. Defaults to a time-seeded PCG.
	Rand *rand.Rand
}

// Module implements module.Module.
type Module struct {
	module.Base

	rt       *module.Runtime
	deviceID string
	rng      *rand.Rand

	connectedURL string
	handled      int
	failed       int
}

// New constructs the module.
func New(rt *module.Runtime, opts Options) *Module {
	if opts.DeviceID == "" {
		opts.DeviceID, _ = os.Hostname()
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Module{
		Base:     module.NewBase(Name),
		rt:       rt,
		deviceID: opts.DeviceID,
		rng:      opts.Rand,
	}
}

// Begin registers info and get mock_sensor.
func (m *Module) Begin() {
	m.rt.Commands.Register(CmdInfo, m.handleInfo)
	m.rt.Commands.Register(CmdMockSensor, m.handleMockSensor)
	m.Logf("Initialized.")
}

// SetupEventSubscriptions tracks the link URL and counts processed commands.
func (m *Module) SetupEventSubscriptions() {
	m.rt.Events.Subscribe(eventbus.NetworkConnected, func(ev eventbus.Event) bool {
		if p, ok := ev.Payload.(eventbus.NetworkConnectedPayload); ok {
			m.connectedURL = p.URL
		}
		return true
	})
	m.rt.Events.Subscribe(eventbus.NetworkDisconnected, func(eventbus.Event) bool {
		m.connectedURL = ""
		return true
	})
	m.rt.Events.Subscribe(eventbus.CommandProcessed, func(ev eventbus.Event) bool {
		p, ok := ev.Payload.(eventbus.CommandProcessedPayload)
		if !ok {
			return true
		}
		if p.OK {
			m.handled++
		} else {
			m.failed++
		}
		return true
	})
}

// Update does nothing; all work happens in handlers.
func (m *Module) Update() {}

// HandleCommand dispatches directly to this module's handlers.
func (m *Module) HandleCommand(name string, p *command.Payload) bool {
	switch name {
	case CmdInfo:
		return m.handleInfo(p)
	case CmdMockSensor:
		return m.handleMockSensor(p)
	default:
		return false
	}
}

// Info is the data.info object of an info reply.
type Info struct {
	DeviceID       string `json:"device_id"`
	Hostname       string `json:"hostname"`
	GoVersion      string `json:"go_version"`
	OS             string `json:"os"`
	Arch           string `json:"arch"`
	CPUs           int    `json:"cpus"`
	Goroutines     int    `json:"goroutines"`
	HeapAlloc      uint64 `json:"heap_alloc"`
	HeapSys        uint64 `json:"heap_sys"`
	Uptime         string `json:"uptime"`
	ServerURL      string `json:"server_url"`
	CommandsOK     int    `json:"commands_ok"`
	CommandsFailed int    `json:"commands_failed"`
}

// Collect gathers the current device info.
func (m *Module) Collect() Info {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	hostname, _ := os.Hostname()

	return Info{
		DeviceID:       m.deviceID,
		Hostname:       hostname,
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		CPUs:           runtime.NumCPU(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAlloc:      mem.HeapAlloc,
		HeapSys:        mem.HeapSys,
		Uptime:         FormatUptime(m.rt.Clock.Millis()),
		ServerURL:      m.connectedURL,
		CommandsOK:     m.handled,
		CommandsFailed: m.failed,
	}
}

// info takes no arguments.
func (m *Module) handleInfo(p *command.Payload) bool {
	resp, ok := m.ResponseFor(p)
	if !ok {
		return false
	}
	m.BuildResponse(resp, command.StatusOK, "Device information retrieved", map[string]any{"info": m.Collect()})
	m.Logf("Info sent.")
	return true
}

func (m *Module) handleMockSensor(p *command.Payload) bool {
	resp, ok := m.ResponseFor(p)
	if !ok {
		return false
	}
	temperature, humidity := m.sample()
	m.BuildResponse(resp, command.StatusOK, "Mock sensor data retrieved", map[string]any{
		"temperature": temperature,
		"humidity":    humidity,
	})
	m.Logf("Mock sensor data sent.")
	return true
}

// sample returns temperature in [20, 30) and humidity in [30, 70), rounded
// to two decimals.
func (m *Module) sample() (temperature, humidity float64) {
	temperature = 25.0 + float64(m.rng.IntN(1000)-500)/100.0
	humidity = 50.0 + float64(m.rng.IntN(4000)-2000)/100.0
	return round2(temperature), round2(humidity)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatUptime renders milliseconds as "Xd Xh Xm Xs".
func FormatUptime(ms uint64) string {
	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours%24, minutes%60, seconds%60)
}
