package blackboard

import (
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes.
// Redis hashes are string-to-string maps; numeric and boolean fields are
// formatted with strconv and parsed back strictly.

// StatusToHash converts a DeviceStatus to a Redis hash.
func StatusToHash(s *DeviceStatus) map[string]interface{} {
	return map[string]interface{}{
		"device":          s.Device,
		"connected":       strconv.FormatBool(s.Connected),
		"server_url":      s.ServerURL,
		"led_mode":        s.LEDMode,
		"led_brightness":  s.LEDBrightness,
		"last_command":    s.LastCommand,
		"commands_ok":     s.CommandsOK,
		"commands_failed": s.CommandsFailed,
		"last_event_kind": s.LastEventKind,
		"tick":            strconv.FormatUint(s.Tick, 10),
		"updated_at_ms":   s.UpdatedAtMs,
	}
}

// HashToStatus converts a Redis hash back to a DeviceStatus.
func HashToStatus(hash map[string]string) (*DeviceStatus, error) {
	s := &DeviceStatus{
		Device:        hash["device"],
		ServerURL:     hash["server_url"],
		LEDMode:       hash["led_mode"],
		LastCommand:   hash["last_command"],
		LastEventKind: hash["last_event_kind"],
	}

	var err error
	if s.Connected, err = parseBool(hash, "connected"); err != nil {
		return nil, err
	}
	if s.LEDBrightness, err = parseInt(hash, "led_brightness"); err != nil {
		return nil, err
	}
	if s.CommandsOK, err = parseInt64(hash, "commands_ok"); err != nil {
		return nil, err
	}
	if s.CommandsFailed, err = parseInt64(hash, "commands_failed"); err != nil {
		return nil, err
	}
	if s.UpdatedAtMs, err = parseInt64(hash, "updated_at_ms"); err != nil {
		return nil, err
	}
	if v := hash["tick"]; v != "" {
		if s.Tick, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid tick field: %w", err)
		}
	}

	return s, nil
}

// Missing fields parse as zero values so older hashes stay readable.

func parseBool(hash map[string]string, field string) (bool, error) {
	v := hash[field]
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s field: %w", field, err)
	}
	return b, nil
}

func parseInt(hash map[string]string, field string) (int, error) {
	v := hash[field]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s field: %w", field, err)
	}
	return n, nil
}

func parseInt64(hash map[string]string, field string) (int64, error) {
	v := hash[field]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s field: %w", field, err)
	}
	return n, nil
}
