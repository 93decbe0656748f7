package timespec

import (
	"fmt"
	"strconv"
	"time"
)

// Parse parses a time specification into a Unix timestamp (milliseconds),
// relative to the current time. See ParseAt.
func Parse(spec string) (int64, error) {
	return ParseAt(spec, time.Now())
}

// ParseAt parses a time specification relative to now.
// Supports:
//   - "now"
//   - Go duration format: "1h", "30m", "90s" (that long before now)
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z"
//   - Unix milliseconds: "1761742800000"
func ParseAt(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}
	if spec == "now" {
		return now.UnixMilli(), nil
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}

	// All-digit specs are Unix milliseconds; ParseDuration would accept "0".
	if isDigits(spec) {
		ms, err := strconv.ParseInt(spec, 10, 64)
		if err != nil || ms <= 0 {
			return 0, fmt.Errorf("invalid unix milliseconds: %s", spec)
		}
		return ms, nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration: %s", spec)
		}
		return now.Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use duration like '15m', RFC3339 like '2025-10-29T13:00:00Z', or unix milliseconds)", spec)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseRange parses both --since and --until flags into a time range.
// Zero values indicate "no bound" for that end of the range.
func ParseRange(since, until string) (int64, int64, error) {
	return ParseRangeAt(since, until, time.Now())
}

// ParseRangeAt is ParseRange relative to now. Validates since < until when
// both are given.
func ParseRangeAt(since, until string, now time.Time) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		if sinceMS, err = ParseAt(since, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		if untilMS, err = ParseAt(until, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMS, untilMS, nil
}
