package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client provides device-scoped Redis operations for the blackboard.
// All keys and channels are automatically namespaced with the device name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb    *redis.Client
	device string
}

// NewClient creates a new blackboard client for the specified device.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - device: device name (must not be empty)
//
// Returns an error if device is empty.
func NewClient(redisOpts *redis.Options, device string) (*Client, error) {
	if device == "" {
		return nil, fmt.Errorf("device name cannot be empty")
	}

	return &Client{
		rdb:    redis.NewClient(redisOpts),
		device: device,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client for device.
func NewClientFromURL(url, device string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewClient(opts, device)
}

// Device returns the device name this client is scoped to.
func (c *Client) Device() string {
	return c.device
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// RecordEvent appends an event to the device log and publishes it.
// The log is trimmed to the newest MaxEvents entries in the same pipeline.
// Publishes full event JSON to ember:{device}:device_events.
func (c *Client) RecordEvent(ctx context.Context, ev *DeviceEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	eventJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := EventsKey(c.device)
	_, err = c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(ev.TimestampMs), Member: string(eventJSON)})
		pipe.ZRemRangeByRank(ctx, key, 0, -(MaxEvents + 1))
		pipe.Publish(ctx, DeviceEventsChannel(c.device), eventJSON)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

// ListEvents returns logged events with sinceMs <= timestamp_ms <= untilMs,
// oldest first. A zero bound is open.
func (c *Client) ListEvents(ctx context.Context, sinceMs, untilMs int64) ([]*DeviceEvent, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if sinceMs > 0 {
		rng.Min = strconv.FormatInt(sinceMs, 10)
	}
	if untilMs > 0 {
		rng.Max = strconv.FormatInt(untilMs, 10)
	}

	members, err := c.rdb.ZRangeByScore(ctx, EventsKey(c.device), rng).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	events := make([]*DeviceEvent, 0, len(members))
	for _, m := range members {
		var ev DeviceEvent
		if err := json.Unmarshal([]byte(m), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logged event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, nil
}

// CountEvents returns the number of events in the log.
func (c *Client) CountEvents(ctx context.Context) (int64, error) {
	n, err := c.rdb.ZCard(ctx, EventsKey(c.device)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// UpdateStatus replaces the device status hash (full HSET replacement).
func (c *Client) UpdateStatus(ctx context.Context, s *DeviceStatus) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}
	if err := c.rdb.HSet(ctx, StatusKey(c.device), StatusToHash(s)).Err(); err != nil {
		return fmt.Errorf("failed to write status to Redis: %w", err)
	}
	return nil
}

// GetStatus retrieves the device status.
// Returns (nil, redis.Nil) if no status has been written yet.
// Use IsNotFound() to check for not-found errors.
func (c *Client) GetStatus(ctx context.Context) (*DeviceStatus, error) {
	hashData, err := c.rdb.HGetAll(ctx, StatusKey(c.device)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read status from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	s, err := HashToStatus(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize status: %w", err)
	}
	return s, nil
}

// Subscription represents an active Pub/Sub subscription to device events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *DeviceEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of device events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *DeviceEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to the device's live event channel.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once; a slow subscriber misses events.
func (c *Client) SubscribeEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, DeviceEventsChannel(c.device))

	// Wait for the subscription confirmation so no event published after
	// this call returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to device events: %w", err)
	}

	eventsChan := make(chan *DeviceEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev DeviceEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal device event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
