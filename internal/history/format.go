package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/ember/pkg/blackboard"
)

// FormatTable writes events as a formatted table to the provided writer.
// Columns: ID, KIND, TICK, AGE, PAYLOAD (truncated). Ages are relative to now.
// Returns the number of events formatted.
func FormatTable(w io.Writer, events []*blackboard.DeviceEvent, device string, now time.Time) int {
	if len(events) == 0 {
		fmt.Fprintf(w, "No events found for device '%s'\n", device)
		return 0
	}

	fmt.Fprintf(w, "Events for device '%s':\n\n", device)

	fmt.Fprintf(w, "%-10s %-22s %-10s %-8s %s\n",
		"ID", "KIND", "TICK", "AGE", "PAYLOAD")
	fmt.Fprintf(w, "%-10s %-22s %-10s %-8s %s\n",
		"----------", "----------------------", "----------", "--------", "----------------------------------------")

	for _, ev := range events {
		fmt.Fprintf(w, "%-10s %-22s %-10d %-8s %s\n",
			formatID(ev.ID),
			ev.Kind,
			ev.Tick,
			formatAge(ev.TimestampMs, now),
			formatPayload(ev.Payload),
		)
	}

	noun := "event"
	if len(events) != 1 {
		noun = "events"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(events), noun)

	return len(events)
}

// FormatJSONL writes events as line-delimited JSON, one object per line.
func FormatJSONL(w io.Writer, events []*blackboard.DeviceEvent) error {
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one value as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// FormatStatus writes a device status as aligned key/value lines.
func FormatStatus(w io.Writer, s *blackboard.DeviceStatus, now time.Time) {
	link := "disconnected"
	if s.Connected {
		link = "connected"
	}
	rows := [][2]string{
		{"Device", s.Device},
		{"Link", link},
		{"Server", orDash(s.ServerURL)},
		{"LED", fmt.Sprintf("%s (brightness %d)", orDash(s.LEDMode), s.LEDBrightness)},
		{"Last command", orDash(s.LastCommand)},
		{"Commands", fmt.Sprintf("%d ok, %d failed", s.CommandsOK, s.CommandsFailed)},
		{"Last event", orDash(s.LastEventKind)},
		{"Tick", fmt.Sprintf("%d", s.Tick)},
		{"Updated", formatAge(s.UpdatedAtMs, now)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-14s %s\n", r[0]+":", r[1])
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatID truncates an event ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatPayload renders the payload compactly on one line, max 40 characters.
func formatPayload(payload json.RawMessage) string {
	s := strings.TrimSpace(string(payload))
	if s == "" || s == "null" || s == "{}" {
		return "-"
	}
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}

// formatAge renders a Unix-ms timestamp as "2m ago", "1h ago", etc.
func formatAge(timestampMs int64, now time.Time) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := now.Sub(time.UnixMilli(timestampMs))
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
