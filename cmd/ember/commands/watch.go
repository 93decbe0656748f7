package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/ember/internal/printer"
	"github.com/dyluth/ember/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchKind         string
	watchCount        int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream a device's events as they happen",
	Long: `Stream live events from a device's blackboard.

Output Formats:
  default - Human-readable lines with timestamps and emojis
  jsonl   - Line-delimited JSON for programmatic processing

Examples:
  # Watch everything
  ember watch

  # Only LED changes, stop after 10
  ember watch --kind=led_state_changed --count=10`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	watchCmd.Flags().StringVar(&watchKind, "kind", "", "Filter by event kind (glob pattern)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after N events (0 = run until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var format watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		format = watch.OutputFormatDefault
	case "jsonl":
		format = watch.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connectBlackboard(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if format == watch.OutputFormatDefault {
		printer.Info("Watching device '%s' (Ctrl+C to stop)\n", client.Device())
	}

	opts := watch.Options{Format: format, KindGlob: watchKind, Count: watchCount}
	return watch.Stream(ctx, client, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
