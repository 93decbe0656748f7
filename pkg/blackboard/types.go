package blackboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeviceEvent is one bus event as recorded on the blackboard.
type DeviceEvent struct {
	ID          string          `json:"id"`                // UUID
	Device      string          `json:"device"`            // Device name from spark.yml
	Kind        string          `json:"kind"`              // Bus event kind, e.g. "command_processed"
	Payload     json.RawMessage `json:"payload,omitempty"` // Kind-specific JSON object
	Tick        uint64          `json:"tick"`              // Device clock (ms since boot) at publish
	TimestampMs int64           `json:"timestamp_ms"`      // Wall clock, Unix milliseconds
}

// NewDeviceEvent stamps a new event with a fresh ID and the current time.
func NewDeviceEvent(device, kind string, payload json.RawMessage, tick uint64) *DeviceEvent {
	return &DeviceEvent{
		ID:          uuid.New().String(),
		Device:      device,
		Kind:        kind,
		Payload:     payload,
		Tick:        tick,
		TimestampMs: time.Now().UnixMilli(),
	}
}

// Validate checks if the DeviceEvent has valid field values.
func (e *DeviceEvent) Validate() error {
	if !isValidUUID(e.ID) {
		return fmt.Errorf("invalid event ID: not a valid UUID")
	}
	if e.Device == "" {
		return fmt.Errorf("device cannot be empty")
	}
	if e.Kind == "" {
		return fmt.Errorf("event kind cannot be empty")
	}
	if e.TimestampMs <= 0 {
		return fmt.Errorf("invalid timestamp: must be > 0, got %d", e.TimestampMs)
	}
	if len(e.Payload) > 0 && !json.Valid(e.Payload) {
		return fmt.Errorf("payload is not valid JSON")
	}
	return nil
}

// Time returns the event's wall-clock time.
func (e *DeviceEvent) Time() time.Time {
	return time.UnixMilli(e.TimestampMs)
}

// DeviceStatus is the latest known state of a device, folded from its events.
type DeviceStatus struct {
	Device         string `json:"device"`
	Connected      bool   `json:"connected"`
	ServerURL      string `json:"server_url"`
	LEDMode        string `json:"led_mode"`
	LEDBrightness  int    `json:"led_brightness"`
	LastCommand    string `json:"last_command"`
	CommandsOK     int64  `json:"commands_ok"`
	CommandsFailed int64  `json:"commands_failed"`
	LastEventKind  string `json:"last_event_kind"`
	Tick           uint64 `json:"tick"`
	UpdatedAtMs    int64  `json:"updated_at_ms"`
}

// Validate checks if the DeviceStatus has valid field values.
func (s *DeviceStatus) Validate() error {
	if s.Device == "" {
		return fmt.Errorf("device cannot be empty")
	}
	if s.LEDBrightness < 0 || s.LEDBrightness > 255 {
		return fmt.Errorf("invalid LED brightness: %d", s.LEDBrightness)
	}
	if s.CommandsOK < 0 || s.CommandsFailed < 0 {
		return fmt.Errorf("command counters cannot be negative")
	}
	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
