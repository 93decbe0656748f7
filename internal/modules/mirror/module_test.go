package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/ember/internal/clock"
	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/internal/module"
	"github.com/dyluth/ember/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, rec Recorder, queueSize int) (*Module, *module.Runtime) {
	t.Helper()
	rt := module.NewRuntime(clock.NewFake(77))
	m := New(rt, "bench-1", rec, queueSize)

	mgr := module.NewManager(rt)
	require.NoError(t, mgr.Register(m))
	mgr.InitAll()
	return m, rt
}

func TestSubscribesToEveryKind(t *testing.T) {
	_, rt := setup(t, &fakeRecorder{}, 0)
	for _, kind := range eventbus.Kinds() {
		assert.Equal(t, 1, rt.Events.SubscriberCount(kind), kind.String())
	}
	assert.True(t, rt.Events.Publish(eventbus.NewCommandReceived("info")), "mirror never vetoes")
}

func TestMirrorsEventsToBlackboard(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, "bench-1")
	require.NoError(t, err)
	defer client.Close()

	m, rt := setup(t, client, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	rt.Events.Publish(eventbus.NewNetworkConnected("ws://console:8765"))
	rt.Events.Publish(eventbus.NewCommandReceived("set_led"))
	rt.Events.Publish(eventbus.NewLEDStateChanged("on", 255))
	rt.Events.Publish(eventbus.NewCommandProcessed("set_led", true))

	require.Eventually(t, func() bool { return m.Written() == 4 }, 2*time.Second, 10*time.Millisecond)

	events, err := client.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 4)
	kinds := make(map[string]bool)
	for _, ev := range events {
		kinds[ev.Kind] = true
		assert.Equal(t, uint64(77), ev.Tick)
		assert.Equal(t, "bench-1", ev.Device)
	}
	assert.True(t, kinds["led_state_changed"])
	assert.True(t, kinds["network_connected"])

	status, err := client.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "ws://console:8765", status.ServerURL)
	assert.Equal(t, "on", status.LEDMode)
	assert.Equal(t, 255, status.LEDBrightness)
	assert.Equal(t, int64(1), status.CommandsOK)
	assert.Equal(t, "command_processed", status.LastEventKind)
}

func TestDropsWhenQueueFull(t *testing.T) {
	m, rt := setup(t, &fakeRecorder{}, 2)

	for i := 0; i < 5; i++ {
		assert.True(t, rt.Events.Publish(eventbus.NewCommandReceived("info")))
	}
	assert.Equal(t, int64(3), m.Dropped())

	m.Update()
	assert.Equal(t, int64(3), m.reported)
}

func TestRunSkipsFailedWrites(t *testing.T) {
	rec := &fakeRecorder{failFirst: true}
	m, rt := setup(t, rec, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	rt.Events.Publish(eventbus.NewCommandReceived("a"))
	rt.Events.Publish(eventbus.NewCommandReceived("b"))

	require.Eventually(t, func() bool { return m.Written() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.statuses, 1)
	assert.Equal(t, "b", rec.statuses[0].LastCommand)
}

func TestEventPayloadEncoding(t *testing.T) {
	rec := &fakeRecorder{}
	m, rt := setup(t, rec, 0)
	rt.Events.Publish(eventbus.NewCommandProcessed("set_led", false))

	e := <-m.queue
	assert.Equal(t, "command_processed", e.record.Kind)
	assert.JSONEq(t, `{"name":"set_led","ok":false}`, string(e.record.Payload))

	rt.Events.Publish(eventbus.Event{Kind: eventbus.NetworkDisconnected})
	e = <-m.queue
	assert.Nil(t, e.record.Payload)
	assert.NoError(t, e.record.Validate())
}

func TestFold(t *testing.T) {
	s := &blackboard.DeviceStatus{Device: "d"}
	Fold(s, eventbus.NewNetworkConnected("ws://x"), 1)
	Fold(s, eventbus.NewCommandProcessed("bogus", false), 2)
	Fold(s, eventbus.NewLEDStateChanged("breathing", 0), 3)
	Fold(s, eventbus.NewNetworkDisconnected("eof"), 4)

	assert.False(t, s.Connected)
	assert.Equal(t, "ws://x", s.ServerURL)
	assert.Equal(t, int64(1), s.CommandsFailed)
	assert.Equal(t, "breathing", s.LEDMode)
	assert.Equal(t, uint64(4), s.Tick)
	assert.Equal(t, "network_disconnected", s.LastEventKind)
}

type fakeRecorder struct {
	mu        sync.Mutex
	failFirst bool
	events    []*blackboard.DeviceEvent
	statuses  []blackboard.DeviceStatus
}

func (f *fakeRecorder) RecordEvent(_ context.Context, ev *blackboard.DeviceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst {
		f.failFirst = false
		return errors.New("redis down")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRecorder) UpdateStatus(_ context.Context, s *blackboard.DeviceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, *s)
	return nil
}
