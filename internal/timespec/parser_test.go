package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)

func TestParseAt(t *testing.T) {
	tests := []struct {
		spec    string
		want    int64
		wantErr bool
	}{
		{"now", now.UnixMilli(), false},
		{"15m", now.Add(-15 * time.Minute).UnixMilli(), false},
		{"1h30m", now.Add(-90 * time.Minute).UnixMilli(), false},
		{"2025-10-29T12:00:00Z", now.Add(-time.Hour).UnixMilli(), false},
		{"1761742800000", 1761742800000, false},
		{"", 0, true},
		{"-5m", 0, true},
		{"yesterday", 0, true},
		{"0", 0, true},
		{"000", 0, true},
		{"30", 30, false},
		{"99999999999999999999", 0, true},
		{"0s", now.UnixMilli(), false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseAt(tt.spec, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeAt(t *testing.T) {
	since, until, err := ParseRangeAt("1h", "10m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-time.Hour).UnixMilli(), since)
	assert.Equal(t, now.Add(-10*time.Minute).UnixMilli(), until)

	since, until, err = ParseRangeAt("", "", now)
	require.NoError(t, err)
	assert.Zero(t, since)
	assert.Zero(t, until)

	_, _, err = ParseRangeAt("10m", "1h", now)
	assert.ErrorContains(t, err, "--since must be before --until")

	_, _, err = ParseRangeAt("0", "", now)
	assert.ErrorContains(t, err, "invalid --since")

	_, _, err = ParseRangeAt("bogus", "", now)
	assert.ErrorContains(t, err, "invalid --since")

	_, _, err = ParseRangeAt("", "bogus", now)
	assert.ErrorContains(t, err, "invalid --until")
}
