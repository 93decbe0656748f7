package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dyluth/ember/pkg/blackboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	events []*blackboard.DeviceEvent
	err    error
}

func (f fakeSource) ListEvents(context.Context, int64, int64) ([]*blackboard.DeviceEvent, error) {
	return f.events, f.err
}

func ev(id string) *blackboard.DeviceEvent {
	return &blackboard.DeviceEvent{ID: id, Kind: "command_received"}
}

func TestResolveEvent(t *testing.T) {
	src := fakeSource{events: []*blackboard.DeviceEvent{
		ev("a3f5b8c9-1d2e-4f7a-9b1c-3d5e6f8a9b0c"),
		ev("a3f5b8ff-1d2e-4f7a-9b1c-3d5e6f8a9b0c"),
		ev("0badcafe-1d2e-4f7a-9b1c-3d5e6f8a9b0c"),
	}}
	ctx := context.Background()

	tests := []struct {
		name    string
		shortID string
		wantID  string
		check   func(error) bool
	}{
		{"full id", "0badcafe-1d2e-4f7a-9b1c-3d5e6f8a9b0c", "0badcafe-1d2e-4f7a-9b1c-3d5e6f8a9b0c", nil},
		{"unique prefix", "0badca", "0badcafe-1d2e-4f7a-9b1c-3d5e6f8a9b0c", nil},
		{"longer prefix disambiguates", "a3f5b8c9", "a3f5b8c9-1d2e-4f7a-9b1c-3d5e6f8a9b0c", nil},
		{"ambiguous", "a3f5b8", "", IsAmbiguousError},
		{"no match", "ffffff", "", IsNotFoundError},
		{"unknown full id", "ffffffff-1d2e-4f7a-9b1c-3d5e6f8a9b0c", "", IsNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEvent(ctx, src, tt.shortID)
			if tt.check != nil {
				assert.True(t, tt.check(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestResolveEventRejectsShortPrefix(t *testing.T) {
	_, err := ResolveEvent(context.Background(), fakeSource{}, "a3f")
	assert.ErrorContains(t, err, "at least 6 characters")
}

func TestResolveEventSourceError(t *testing.T) {
	_, err := ResolveEvent(context.Background(), fakeSource{err: errors.New("boom")}, "a3f5b8")
	assert.ErrorContains(t, err, "boom")
}

func TestFormatAmbiguousError(t *testing.T) {
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = strings.Repeat("a", 8) + "-" + string(rune('a'+i))
	}
	msg := FormatAmbiguousError(&AmbiguousError{ShortID: "aaaaaa", Matches: ids})
	assert.Contains(t, msg, "matches 12 events")
	assert.Contains(t, msg, ids[9])
	assert.NotContains(t, msg, ids[10])
	assert.Contains(t, msg, "...and 2 more")
}
