// Package watch streams a device's live events and waits on its status.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/pkg/blackboard"
)

// OutputFormat selects how streamed events are written.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSONL   OutputFormat = "jsonl"
)

// Subscriber is the live side of the blackboard client.
type Subscriber interface {
	SubscribeEvents(ctx context.Context) (*blackboard.Subscription, error)
}

// StatusReader is the status side of the blackboard client.
type StatusReader interface {
	GetStatus(ctx context.Context) (*blackboard.DeviceStatus, error)
}

// Options controls Stream.
type Options struct {
	Format   OutputFormat
	KindGlob string // empty = all kinds
	Count    int    // stop after this many matching events, 0 = until cancelled
}

// Stream writes events as they arrive until ctx is cancelled or Count events
// have been written. Malformed messages are reported on errOut and skipped.
func Stream(ctx context.Context, sub Subscriber, opts Options, w, errOut io.Writer) error {
	if opts.KindGlob != "" {
		if _, err := filepath.Match(opts.KindGlob, ""); err != nil {
			return fmt.Errorf("invalid --kind pattern %q: %w", opts.KindGlob, err)
		}
	}
	switch opts.Format {
	case "", OutputFormatDefault, OutputFormatJSONL:
	default:
		return fmt.Errorf("unknown output format: %s", opts.Format)
	}

	s, err := sub.SubscribeEvents(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	errs := s.Errors()
	written := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(errOut, "⚠️  %v\n", err)

		case ev, ok := <-s.Events():
			if !ok {
				return nil
			}
			if opts.KindGlob != "" {
				if matched, _ := filepath.Match(opts.KindGlob, ev.Kind); !matched {
					continue
				}
			}
			if err := writeEvent(w, ev, opts.Format); err != nil {
				return err
			}
			written++
			if opts.Count > 0 && written >= opts.Count {
				return nil
			}
		}
	}
}

func writeEvent(w io.Writer, ev *blackboard.DeviceEvent, format OutputFormat) error {
	if format == OutputFormatJSONL {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	_, err := fmt.Fprintf(w, "[%s] %s\n", ev.Time().Format("15:04:05.000"), FormatEvent(ev))
	return err
}

// FormatEvent renders one event as a human-readable line.
func FormatEvent(ev *blackboard.DeviceEvent) string {
	switch ev.Kind {
	case eventbus.NetworkConnected.String():
		var p eventbus.NetworkConnectedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			return fmt.Sprintf("🔌 Connected: %s", p.URL)
		}
	case eventbus.NetworkDisconnected.String():
		var p eventbus.NetworkDisconnectedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			if p.Reason == "" {
				return "⛔ Disconnected"
			}
			return fmt.Sprintf("⛔ Disconnected: %s", p.Reason)
		}
	case eventbus.CommandReceived.String():
		var p eventbus.CommandReceivedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			return fmt.Sprintf("📥 Command received: %s", p.Name)
		}
	case eventbus.CommandProcessed.String():
		var p eventbus.CommandProcessedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			if p.OK {
				return fmt.Sprintf("✅ Command processed: %s", p.Name)
			}
			return fmt.Sprintf("❌ Command failed: %s", p.Name)
		}
	case eventbus.LEDStateChanged.String():
		var p eventbus.LEDStateChangedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			return fmt.Sprintf("💡 LED %s (brightness %d)", p.Mode, p.Brightness)
		}
	}

	if len(ev.Payload) == 0 {
		return ev.Kind
	}
	return fmt.Sprintf("%s %s", ev.Kind, ev.Payload)
}

// WaitForStatus polls until the device has written a status, or timeout.
// Polls every 200ms.
func WaitForStatus(ctx context.Context, client StatusReader, timeout time.Duration) (*blackboard.DeviceStatus, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		s, err := client.GetStatus(ctx)
		if err == nil {
			return s, nil
		}
		if !blackboard.IsNotFound(err) {
			return nil, fmt.Errorf("failed to read device status: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for device status after %v", timeout)
		case <-ticker.C:
		}
	}
}
