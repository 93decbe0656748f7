package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/ember/internal/history"
	"github.com/dyluth/ember/internal/printer"
	"github.com/dyluth/ember/internal/resolver"
	"github.com/dyluth/ember/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	eventsOutputFormat string
	eventsSince        string
	eventsUntil        string
	eventsKind         string
	eventsLimit        int
)

var eventsCmd = &cobra.Command{
	Use:   "events [EVENT_ID]",
	Short: "Inspect a device's recorded events",
	Long: `Inspect the events a device mirrored to its blackboard.

List Mode (no EVENT_ID):
  Displays events matching filters as a table or JSONL stream, oldest first.

Get Mode (with EVENT_ID):
  Displays a single event as pretty-printed JSON. Accepts the short IDs
  shown in the table (at least 6 characters).

Filters (list mode only):
  --since  - Show events after this time (duration, RFC3339 or unix ms)
  --until  - Show events before this time
  --kind   - Filter by event kind (glob pattern: "command_*")
  --limit  - Keep only the newest N events

Examples:
  # Commands handled in the last 15 minutes
  ember events --kind='command_*' --since=15m

  # Everything, as JSONL for jq
  ember events -o jsonl | jq 'select(.kind=="led_state_changed") | .payload'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Show events after time (duration, RFC3339 or unix ms)")
	eventsCmd.Flags().StringVar(&eventsUntil, "until", "", "Show events before time (duration, RFC3339 or unix ms)")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "Filter by event kind (glob pattern)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "Show only the newest N events")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var format history.OutputFormat
	switch eventsOutputFormat {
	case "default":
		format = history.OutputFormatDefault
	case "jsonl":
		format = history.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", eventsOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	client, err := connectBlackboard(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if len(args) > 0 {
		err := history.GetEvent(ctx, client, args[0], cmd.OutOrStdout())
		if history.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("event with ID '%s' not found", args[0]),
				"The event is not in the retained log (it may have been trimmed).",
				[]string{"List recent events:\n  ember events --limit 20"},
			)
		}
		if resolver.IsAmbiguousError(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), resolver.FormatAmbiguousError(err.(*resolver.AmbiguousError)))
			return fmt.Errorf("ambiguous short ID")
		}
		return err
	}

	sinceMS, untilMS, err := timespec.ParseRange(eventsSince, eventsUntil)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use duration format like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	filters := &history.FilterCriteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		KindGlob:         eventsKind,
		Limit:            eventsLimit,
	}
	if err := history.ListEvents(ctx, client, format, filters, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	return nil
}
