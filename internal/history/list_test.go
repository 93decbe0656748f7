package history

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/ember/pkg/blackboard"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) *blackboard.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, "lamp")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

// seed records events one second apart, oldest first, ending at base.
func seed(t *testing.T, client *blackboard.Client, base int64, kinds ...string) []*blackboard.DeviceEvent {
	t.Helper()
	var out []*blackboard.DeviceEvent
	for i, kind := range kinds {
		ev := blackboard.NewDeviceEvent("lamp", kind, json.RawMessage(`{}`), uint64(i))
		ev.TimestampMs = base - int64(len(kinds)-1-i)*1000
		require.NoError(t, client.RecordEvent(context.Background(), ev))
		out = append(out, ev)
	}
	return out
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	base := time.Now().UnixMilli()
	events := seed(t, client, base,
		"network_connected", "command_received", "command_processed", "led_state_changed", "command_processed")

	t.Run("no filters returns everything oldest first", func(t *testing.T) {
		got, err := Query(ctx, client, nil)
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, events[0].ID, got[0].ID)
		assert.Equal(t, events[4].ID, got[4].ID)
	})

	t.Run("kind glob", func(t *testing.T) {
		got, err := Query(ctx, client, &FilterCriteria{KindGlob: "command_*"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		for _, ev := range got {
			assert.True(t, strings.HasPrefix(ev.Kind, "command_"))
		}
	})

	t.Run("time range", func(t *testing.T) {
		got, err := Query(ctx, client, &FilterCriteria{
			SinceTimestampMs: events[1].TimestampMs,
			UntilTimestampMs: events[3].TimestampMs,
		})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, events[1].ID, got[0].ID)
		assert.Equal(t, events[3].ID, got[2].ID)
	})

	t.Run("limit keeps newest", func(t *testing.T) {
		got, err := Query(ctx, client, &FilterCriteria{Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, events[3].ID, got[0].ID)
		assert.Equal(t, events[4].ID, got[1].ID)
	})

	t.Run("bad glob", func(t *testing.T) {
		_, err := Query(ctx, client, &FilterCriteria{KindGlob: "["})
		assert.ErrorContains(t, err, "invalid --kind pattern")
	})
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("empty log, default format", func(t *testing.T) {
		client := setupClient(t)
		var buf bytes.Buffer
		require.NoError(t, ListEvents(ctx, client, OutputFormatDefault, nil, &buf))
		assert.Contains(t, buf.String(), "No events found for device 'lamp'")
	})

	t.Run("jsonl", func(t *testing.T) {
		client := setupClient(t)
		seed(t, client, time.Now().UnixMilli(), "a", "b")
		var buf bytes.Buffer
		require.NoError(t, ListEvents(ctx, client, OutputFormatJSONL, nil, &buf))
		assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 2)
	})

	t.Run("unknown format", func(t *testing.T) {
		client := setupClient(t)
		var buf bytes.Buffer
		assert.ErrorContains(t, ListEvents(ctx, client, "xml", nil, &buf), "unknown output format")
	})
}

func TestGetEvent(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	events := seed(t, client, time.Now().UnixMilli(), "network_connected", "command_received")

	var buf bytes.Buffer
	require.NoError(t, GetEvent(ctx, client, events[1].ID, &buf))
	var got blackboard.DeviceEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "command_received", got.Kind)

	err := GetEvent(ctx, client, uuid.New().String(), &buf)
	assert.True(t, IsNotFound(err))

	buf.Reset()
	require.NoError(t, GetEvent(ctx, client, events[0].ID[:8], &buf))
	assert.Contains(t, buf.String(), "network_connected")

	err = GetEvent(ctx, client, "nope", &buf)
	assert.ErrorContains(t, err, "at least 6 characters")
	assert.False(t, IsNotFound(err))
}
