package blackboard

import "fmt"

// Redis key pattern helpers
//
// Key pattern: ember:{device}:{entity}
// Channel pattern: ember:{device}:device_events

// MaxEvents is the number of events the log keeps per device.
const MaxEvents = 1000

// EventsKey returns the Redis key for a device's event log ZSET.
// Pattern: ember:{device}:events
func EventsKey(device string) string {
	return fmt.Sprintf("ember:%s:events", device)
}

// StatusKey returns the Redis key for a device's status hash.
// Pattern: ember:{device}:status
func StatusKey(device string) string {
	return fmt.Sprintf("ember:%s:status", device)
}

// DeviceEventsChannel returns the Pub/Sub channel for a device's events.
// Pattern: ember:{device}:device_events
func DeviceEventsChannel(device string) string {
	return fmt.Sprintf("ember:%s:device_events", device)
}
