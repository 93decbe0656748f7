package blackboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashToStatus_MissingFields(t *testing.T) {
	s, err := HashToStatus(map[string]string{"device": "bench-1"})
	require.NoError(t, err)
	assert.Equal(t, &DeviceStatus{Device: "bench-1"}, s)
}

func TestHashToStatus_Malformed(t *testing.T) {
	for _, field := range []string{"connected", "led_brightness", "commands_ok", "commands_failed", "tick", "updated_at_ms"} {
		t.Run(field, func(t *testing.T) {
			_, err := HashToStatus(map[string]string{"device": "d", field: "nope"})
			assert.ErrorContains(t, err, field)
		})
	}
}
