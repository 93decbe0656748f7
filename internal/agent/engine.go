// Package agent runs the device's cooperative control loop: one goroutine
// that ticks every module, routes console frames to the module manager and
// turns link state changes into bus events.
package agent

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/internal/module"
	"github.com/dyluth/ember/internal/transport"
)

// DefaultTickInterval is the control loop period.
const DefaultTickInterval = 10 * time.Millisecond

// ErrRestartRequested is returned by Run after a module asked for a restart.
var ErrRestartRequested = errors.New("restart requested")

// Link is the console connection as the control loop sees it.
type Link interface {
	Inbound() <-chan []byte
	Status() <-chan transport.Status
	Send(frame []byte) bool
}

// Engine owns the control goroutine. Module code only ever runs inside Run.
type Engine struct {
	rt   *module.Runtime
	mgr  *module.Manager
	link Link
	tick time.Duration

	restart chan struct{}

	// connectedAt is the device tick at which the current session opened.
	connectedAt uint64

	ticks     atomic.Uint64
	connected atomic.Bool
	handled   atomic.Uint64
}

// New creates an engine. tick <= 0 selects DefaultTickInterval.
func New(rt *module.Runtime, mgr *module.Manager, link Link, tick time.Duration) *Engine {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Engine{
		rt:      rt,
		mgr:     mgr,
		link:    link,
		tick:    tick,
		restart: make(chan struct{}, 1),
	}
}

// Restart asks Run to return ErrRestartRequested. It never blocks and may be
// called from module code on the control goroutine.
func (e *Engine) Restart() {
	select {
	case e.restart <- struct{}{}:
	default:
	}
}

// Run initializes every module once and then serves the loop until ctx is
// cancelled (returns nil) or a restart is requested.
func (e *Engine) Run(ctx context.Context) error {
	log.Printf("[INFO] Modules registered: %d", e.mgr.Count())
	e.mgr.InitAll()

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] Shutdown signal received, control loop exiting")
			return nil

		case <-e.restart:
			log.Printf("[INFO] Restart requested, control loop exiting")
			return ErrRestartRequested

		case <-ticker.C:
			e.mgr.UpdateAll()
			e.ticks.Add(1)

		case frame := <-e.link.Inbound():
			e.handleFrame(frame)

		case st := <-e.link.Status():
			e.handleStatus(st)
		}
	}
}

func (e *Engine) handleStatus(st transport.Status) {
	if st.Connected {
		e.connectedAt = e.rt.Clock.Millis()
		e.connected.Store(true)
		log.Printf("[WSc] Connected to url: %s", st.URL)
		e.rt.Events.Publish(eventbus.NewNetworkConnected(st.URL))
		return
	}
	e.connected.Store(false)
	log.Printf("[WSc] Disconnected! (%s)", st.Reason)
	e.rt.Events.Publish(eventbus.NewNetworkDisconnected(st.Reason))
}

// elapsed is the device timestamp: seconds since the session opened.
func (e *Engine) elapsed() float64 {
	return float64(e.rt.Clock.Millis()-e.connectedAt) / 1000.0
}

// Stats is a point-in-time view for health reporting.
type Stats struct {
	Ticks     uint64
	Connected bool
	Handled   uint64
	Modules   []string
}

// Stats may be called from any goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:     e.ticks.Load(),
		Connected: e.connected.Load(),
		Handled:   e.handled.Load(),
		Modules:   e.mgr.Names(),
	}
}
