package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dyluth/ember/internal/clock"
	"github.com/dyluth/ember/internal/command"
	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/internal/hal"
	"github.com/dyluth/ember/internal/module"
	"github.com/dyluth/ember/internal/modules/basic"
	"github.com/dyluth/ember/internal/modules/system"
	"github.com/dyluth/ember/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct {
	inbound chan []byte
	status  chan transport.Status
	sent    chan []byte
	down    atomic.Bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		inbound: make(chan []byte, 16),
		status:  make(chan transport.Status, 4),
		sent:    make(chan []byte, 16),
	}
}

func (f *fakeLink) Inbound() <-chan []byte          { return f.inbound }
func (f *fakeLink) Status() <-chan transport.Status { return f.status }
func (f *fakeLink) Send(frame []byte) bool {
	if f.down.Load() {
		return false
	}
	f.sent <- frame
	return true
}

func (f *fakeLink) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case frame := <-f.sent:
		var m map[string]any
		require.NoError(t, json.Unmarshal(frame, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no frame sent")
		return nil
	}
}

type harness struct {
	engine *Engine
	link   *fakeLink
	clock  *clock.Fake
	rt     *module.Runtime
	led    *hal.SimLED
	cancel context.CancelFunc
	done   chan error
}

func startEngine(t *testing.T) *harness {
	t.Helper()
	h := &harness{link: newFakeLink(), clock: clock.NewFake(0), led: hal.NewSimLED(false)}
	h.rt = module.NewRuntime(h.clock)
	mgr := module.NewManager(h.rt)
	h.engine = New(h.rt, mgr, h.link, time.Millisecond)

	require.NoError(t, mgr.Register(basic.New(h.rt, h.led, h.engine, basic.Options{RebootDelay: 100})))
	require.NoError(t, mgr.Register(system.New(h.rt, system.Options{DeviceID: "bench-1"})))

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) connect(t *testing.T, atMs uint64) {
	t.Helper()
	h.clock.Set(atMs)
	h.link.status <- transport.Status{Connected: true, URL: "ws://console:8765"}
	require.Eventually(t, func() bool { return h.engine.Stats().Connected }, time.Second, time.Millisecond)
}

func TestPingPong(t *testing.T) {
	h := startEngine(t)
	h.connect(t, 1000)
	h.clock.Set(3500)

	h.link.inbound <- []byte(`{"type":"ping","id":"p-1","ping_timestamp":1700000000.25,"data":{"message":"Ping request"}}`)
	pong := h.link.next(t)
	assert.Equal(t, "pong", pong["type"])
	assert.Equal(t, "p-1", pong["id"])
	assert.Equal(t, 1700000000.25, pong["ping_timestamp"])
	assert.Equal(t, 2.5, pong["client_timestamp"])
}

func TestTimeSync(t *testing.T) {
	h := startEngine(t)
	h.connect(t, 0)
	h.clock.Set(1250)

	h.link.inbound <- []byte(`{"type":"time_sync_request","id":"s-1","server_send_time":42.5}`)
	resp := h.link.next(t)
	assert.Equal(t, "time_sync_response", resp["type"])
	assert.Equal(t, "s-1", resp["id"])
	assert.Equal(t, 42.5, resp["server_send_time"])
	assert.Equal(t, 1.25, resp["client_receive_time"])
	assert.Equal(t, 1.25, resp["client_send_time"])
}

func TestCommandRouting(t *testing.T) {
	h := startEngine(t)
	h.connect(t, 0)

	tests := []struct {
		name        string
		frame       string
		wantType    string
		wantContent string
		wantStatus  string
	}{
		{"set_led on", `{"type":"command","content":"set_led","data":{"arguments":["on"]}}`, "set_led_response", "LED turned on", "ok"},
		{"set_led bad state", `{"type":"command","content":"set_led","data":{"arguments":["disco"]}}`, "set_led_response", "Unknown LED state", "error"},
		{"set_led no data", `{"type":"command","content":"set_led"}`, "command_response", "Command failed", "error"},
		{"unknown", `{"type":"command","content":"dance","data":{"arguments":""}}`, "command_response", "Unknown command", "error"},
		{"empty name", `{"type":"command","content":""}`, "command_response", "Unknown command", "error"},
		{"info", `{"type":"command","content":"info","data":{"arguments":""}}`, "info_response", "Device information retrieved", "ok"},
		{"mock sensor", `{"type":"command","content":"get mock_sensor","data":{"arguments":""}}`, "get mock_sensor_response", "Mock sensor data retrieved", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.link.inbound <- []byte(tt.frame)
			resp := h.link.next(t)
			assert.Equal(t, tt.wantType, resp["type"])
			assert.Equal(t, tt.wantContent, resp["content"])
			data, _ := resp["data"].(map[string]any)
			assert.Equal(t, tt.wantStatus, data["status"])
			assert.Contains(t, resp, "timestamp")
		})
	}

	require.Eventually(t, h.led.On, time.Second, time.Millisecond)
	assert.Equal(t, uint64(len(tests)), h.engine.Stats().Handled)
}

func TestCommandWithoutEnvelope(t *testing.T) {
	h := startEngine(t)
	h.connect(t, 0)
	h.rt.Commands.Register("noop", func(*command.Payload) bool { return true })
	h.rt.Commands.Register("silent_fail", func(*command.Payload) bool { return false })

	h.link.inbound <- []byte(`{"type":"command","content":"noop","data":{"arguments":""}}`)
	resp := h.link.next(t)
	assert.Equal(t, "command_response", resp["type"])
	assert.Equal(t, "Command executed", resp["content"])
	assert.Equal(t, map[string]any{"status": "ok"}, resp["data"])

	h.link.inbound <- []byte(`{"type":"command","content":"silent_fail","data":{"arguments":""}}`)
	resp = h.link.next(t)
	assert.Equal(t, "command_response", resp["type"])
	assert.Equal(t, "Command failed", resp["content"])
	assert.Equal(t, map[string]any{"status": "error"}, resp["data"])
}

func TestNotifySkipsUnobservedEvents(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	rt := module.NewRuntime(clock.NewFake(0))
	e := New(rt, module.NewManager(rt), newFakeLink(), 0)

	e.notify(eventbus.NewCommandReceived("set_led"))
	assert.NotContains(t, buf.String(), "No subscribers")

	var got []eventbus.Event
	rt.Events.Subscribe(eventbus.CommandReceived, func(ev eventbus.Event) bool {
		got = append(got, ev)
		return true
	})
	e.notify(eventbus.NewCommandReceived("set_led"))
	assert.Equal(t, []eventbus.Event{eventbus.NewCommandReceived("set_led")}, got)
}

func TestDropsMalformedFrames(t *testing.T) {
	h := startEngine(t)
	h.connect(t, 0)

	h.link.inbound <- []byte(`not json`)
	h.link.inbound <- []byte(`{"id":"no-type"}`)
	h.link.inbound <- []byte(`{"type":"telemetry"}`)
	h.link.inbound <- []byte(`{"type":"ping","id":"after"}`)

	pong := h.link.next(t)
	assert.Equal(t, "after", pong["id"], "only the valid ping is answered")
}

func TestLinkStatusPublishesEvents(t *testing.T) {
	link := newFakeLink()
	rt := module.NewRuntime(clock.NewFake(0))
	mgr := module.NewManager(rt)
	engine := New(rt, mgr, link, time.Millisecond)

	got := make(chan eventbus.Event, 4)
	rec := func(ev eventbus.Event) bool { got <- ev; return true }
	rt.Events.Subscribe(eventbus.NetworkConnected, rec)
	rt.Events.Subscribe(eventbus.NetworkDisconnected, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	link.status <- transport.Status{Connected: true, URL: "ws://a"}
	link.status <- transport.Status{Connected: false, Reason: "eof"}

	ev := <-got
	assert.Equal(t, eventbus.NewNetworkConnected("ws://a"), ev)
	ev = <-got
	assert.Equal(t, eventbus.NewNetworkDisconnected("eof"), ev)

	cancel()
	assert.NoError(t, <-done)
	assert.False(t, engine.Stats().Connected)
}

func TestRebootEndsRun(t *testing.T) {
	h := startEngine(t)
	h.connect(t, 0)

	h.link.inbound <- []byte(`{"type":"command","content":"reboot"}`)
	resp := h.link.next(t)
	assert.Equal(t, "reboot_response", resp["type"])
	assert.Equal(t, "Reboot scheduled", resp["content"])

	// Not yet due.
	select {
	case err := <-h.done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	h.clock.Advance(100)
	select {
	case err := <-h.done:
		assert.ErrorIs(t, err, ErrRestartRequested)
		h.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("restart never requested")
	}
}

func TestSendWhileLinkDown(t *testing.T) {
	h := startEngine(t)
	h.link.down.Store(true)
	h.link.inbound <- []byte(`{"type":"ping","id":"lost"}`)

	require.Eventually(t, func() bool { return len(h.link.inbound) == 0 }, time.Second, time.Millisecond)
	assert.Empty(t, h.link.sent)
}

func TestRestartIsNonBlocking(t *testing.T) {
	rt := module.NewRuntime(clock.NewFake(0))
	e := New(rt, module.NewManager(rt), newFakeLink(), 0)
	e.Restart()
	e.Restart()
	assert.Len(t, e.restart, 1)
	assert.Equal(t, DefaultTickInterval, e.tick)
}
