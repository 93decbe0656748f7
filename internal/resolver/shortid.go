// Package resolver turns the short event IDs shown in tables back into full
// UUIDs.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/ember/pkg/blackboard"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// Source lists a device's retained events.
type Source interface {
	ListEvents(ctx context.Context, sinceMs, untilMs int64) ([]*blackboard.DeviceEvent, error)
}

// ResolveEvent finds the single retained event whose ID is shortID or starts
// with it. Returns NotFoundError or AmbiguousError otherwise.
func ResolveEvent(ctx context.Context, src Source, shortID string) (*blackboard.DeviceEvent, error) {
	full := len(shortID) == 36 && strings.Count(shortID, "-") == 4
	if !full && len(shortID) < MinShortIDLength {
		return nil, fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	events, err := src.ListEvents(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to search for event: %w", err)
	}

	var matches []*blackboard.DeviceEvent
	for _, ev := range events {
		if ev.ID == shortID {
			return ev, nil
		}
		if !full && strings.HasPrefix(ev.ID, shortID) {
			matches = append(matches, ev)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return nil, &AmbiguousError{ShortID: shortID, Matches: ids}
	}
}

// NotFoundError indicates no events matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no events found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple events matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d events", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous short IDs.
// Lists all matching UUIDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d events:\n", err.ShortID, len(err.Matches))

	shown := min(len(err.Matches), 10)
	for _, id := range err.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > shown {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-shown)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the event.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
