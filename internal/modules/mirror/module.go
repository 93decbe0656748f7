// Package mirror copies every bus event onto the blackboard so operators can
// watch a device without talking to it. Redis I/O never runs on the control
// goroutine: subscribers only enqueue, and Run drains the queue.
package mirror

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/dyluth/ember/internal/command"
	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/internal/module"
	"github.com/dyluth/ember/pkg/blackboard"
)

// Name is the module's diagnostic name.
const Name = "BlackboardMirror"

// DefaultQueueSize bounds the events waiting to be written.
const DefaultQueueSize = 256

// Recorder is the subset of the blackboard client the mirror writes to.
type Recorder interface {
	RecordEvent(ctx context.Context, ev *blackboard.DeviceEvent) error
	UpdateStatus(ctx context.Context, s *blackboard.DeviceStatus) error
}

type entry struct {
	event  eventbus.Event
	record *blackboard.DeviceEvent
}

// Module implements module.Module.
type Module struct {
	module.Base

	rt       *module.Runtime
	device   string
	recorder Recorder
	queue    chan entry

	dropped  atomic.Int64
	reported int64
	written  atomic.Int64
}

// New constructs the mirror. queueSize <= 0 selects DefaultQueueSize.
func New(rt *module.Runtime, device string, recorder Recorder, queueSize int) *Module {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Module{
		Base:     module.NewBase(Name),
		rt:       rt,
		device:   device,
		recorder: recorder,
		queue:    make(chan entry, queueSize),
	}
}

// Begin registers no commands.
func (m *Module) Begin() {
	m.Logf("Initialized for device %s.", m.device)
}

// SetupEventSubscriptions subscribes to every event kind. The mirror never
// vetoes.
func (m *Module) SetupEventSubscriptions() {
	for _, kind := range eventbus.Kinds() {
		m.rt.Events.Subscribe(kind, m.enqueue)
	}
}

// Update reports events dropped since the last tick.
func (m *Module) Update() {
	dropped := m.dropped.Load()
	if dropped > m.reported {
		m.Logf("Dropped %d events (queue full).", dropped-m.reported)
		m.reported = dropped
	}
}

// HandleCommand handles nothing.
func (m *Module) HandleCommand(string, *command.Payload) bool {
	return false
}

func (m *Module) enqueue(ev eventbus.Event) bool {
	var payload json.RawMessage
	if ev.Payload != nil {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			m.Logf("Failed to encode %s payload: %v", ev.Kind, err)
			return true
		}
		payload = raw
	}

	rec := blackboard.NewDeviceEvent(m.device, ev.Kind.String(), payload, m.rt.Clock.Millis())
	select {
	case m.queue <- entry{event: ev, record: rec}:
	default:
		m.dropped.Add(1)
	}
	return true
}

// Dropped returns the number of events discarded because the queue was full.
func (m *Module) Dropped() int64 {
	return m.dropped.Load()
}

// Written returns the number of events recorded on the blackboard.
func (m *Module) Written() int64 {
	return m.written.Load()
}

// Run writes queued events and the folded device status to the blackboard
// until ctx is cancelled. Write failures are logged and skipped.
func (m *Module) Run(ctx context.Context) {
	status := &blackboard.DeviceStatus{Device: m.device}

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-m.queue:
			if err := m.recorder.RecordEvent(ctx, e.record); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[%s] Failed to record %s: %v", Name, e.record.Kind, err)
				continue
			}
			m.written.Add(1)

			Fold(status, e.event, e.record.Tick)
			if err := m.recorder.UpdateStatus(ctx, status); err != nil && ctx.Err() == nil {
				log.Printf("[%s] Failed to update status: %v", Name, err)
			}
		}
	}
}

// Fold applies ev to status.
func Fold(status *blackboard.DeviceStatus, ev eventbus.Event, tick uint64) {
	status.LastEventKind = ev.Kind.String()
	status.Tick = tick
	status.UpdatedAtMs = time.Now().UnixMilli()

	switch p := ev.Payload.(type) {
	case eventbus.NetworkConnectedPayload:
		status.Connected = true
		status.ServerURL = p.URL
	case eventbus.NetworkDisconnectedPayload:
		status.Connected = false
	case eventbus.CommandReceivedPayload:
		status.LastCommand = p.Name
	case eventbus.CommandProcessedPayload:
		status.LastCommand = p.Name
		if p.OK {
			status.CommandsOK++
		} else {
			status.CommandsFailed++
		}
	case eventbus.LEDStateChangedPayload:
		status.LEDMode = p.Mode
		status.LEDBrightness = p.Brightness
	}
}
