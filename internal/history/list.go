// Package history queries and renders a device's recorded events.
package history

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dyluth/ember/internal/resolver"
	"github.com/dyluth/ember/pkg/blackboard"
)

// OutputFormat specifies how to format the event list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated payloads
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete events as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Source is the read side of the blackboard client.
type Source interface {
	Device() string
	ListEvents(ctx context.Context, sinceMs, untilMs int64) ([]*blackboard.DeviceEvent, error)
}

// FilterCriteria narrows an event listing. All filters are ANDed together.
type FilterCriteria struct {
	SinceTimestampMs int64  // Unix milliseconds, 0 = no bound
	UntilTimestampMs int64  // Unix milliseconds, 0 = no bound
	KindGlob         string // Glob on event kind, empty = no filter
	Limit            int    // Keep only the newest N, 0 = all
}

// Validate rejects malformed glob patterns up front.
func (fc *FilterCriteria) Validate() error {
	if fc.KindGlob != "" {
		if _, err := filepath.Match(fc.KindGlob, ""); err != nil {
			return fmt.Errorf("invalid --kind pattern %q: %w", fc.KindGlob, err)
		}
	}
	if fc.Limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	return nil
}

func (fc *FilterCriteria) matches(ev *blackboard.DeviceEvent) bool {
	if fc.KindGlob == "" {
		return true
	}
	matched, err := filepath.Match(fc.KindGlob, ev.Kind)
	return err == nil && matched
}

// Query fetches events in the time range and applies the remaining filters.
// Results are oldest first.
func Query(ctx context.Context, src Source, filters *FilterCriteria) ([]*blackboard.DeviceEvent, error) {
	if filters == nil {
		filters = &FilterCriteria{}
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	all, err := src.ListEvents(ctx, filters.SinceTimestampMs, filters.UntilTimestampMs)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*blackboard.DeviceEvent, 0, len(all))
	for _, ev := range all {
		if filters.matches(ev) {
			events = append(events, ev)
		}
	}

	if filters.Limit > 0 && len(events) > filters.Limit {
		events = events[len(events)-filters.Limit:]
	}
	return events, nil
}

// ListEvents queries the device's events and writes them in the given format.
func ListEvents(ctx context.Context, src Source, format OutputFormat, filters *FilterCriteria, w io.Writer) error {
	events, err := Query(ctx, src, filters)
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatDefault, "":
		FormatTable(w, events, src.Device(), time.Now())
	case OutputFormatJSONL:
		if err := FormatJSONL(w, events); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}

// GetEvent finds one event by full ID or unique prefix and writes it as
// pretty-printed JSON.
func GetEvent(ctx context.Context, src Source, eventID string, w io.Writer) error {
	ev, err := resolver.ResolveEvent(ctx, src, eventID)
	if err != nil {
		if resolver.IsNotFoundError(err) {
			return &EventNotFoundError{EventID: eventID}
		}
		return err
	}
	return FormatSingleJSON(w, ev)
}

// EventNotFoundError reports an ID absent from the retained log.
type EventNotFoundError struct {
	EventID string
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("event with ID '%s' not found", e.EventID)
}

// IsNotFound returns true if the error is an EventNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*EventNotFoundError)
	return ok
}
