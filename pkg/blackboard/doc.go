// Package blackboard is the Redis-backed record of what a device has been
// doing: an append-only event log, a status hash and a live event channel.
//
// # Overview
//
// The device daemon mirrors every event published on its in-process bus onto
// the blackboard. Operator tooling (ember watch, ember events, ember status)
// reads it back without ever talking to the device directly.
//
// # Redis Schema
//
// All keys and channels are namespaced by device name so several devices can
// share one Redis server:
//
//	ember:{device}:events         ZSET of event JSON, scored by timestamp_ms
//	ember:{device}:status         HASH of the latest device status
//	ember:{device}:device_events  Pub/Sub channel carrying event JSON
//
// The event log is trimmed to the newest MaxEvents entries on every write.
//
// # Usage Example
//
//	client, err := blackboard.NewClient(&redis.Options{Addr: "localhost:6379"}, "bench-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	ev := blackboard.NewDeviceEvent("bench-1", "led_state_changed", payload, tick)
//	if err := client.RecordEvent(ctx, ev); err != nil {
//		log.Printf("[Mirror] %v", err)
//	}
package blackboard
