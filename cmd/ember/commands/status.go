package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/ember/internal/history"
	"github.com/dyluth/ember/internal/printer"
	"github.com/dyluth/ember/internal/watch"
	"github.com/dyluth/ember/pkg/blackboard"
	"github.com/spf13/cobra"
)

var (
	statusOutputFormat string
	statusWait         time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a device's last known state",
	Long: `Show the state a device last mirrored to its blackboard: link, LED,
command counters and the latest event.

Use --wait to block until a freshly started device writes its first status.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutputFormat, "output", "o", "default", "Output format: default or json")
	statusCmd.Flags().DurationVar(&statusWait, "wait", 0, "Wait up to this long for a first status")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusOutputFormat != "default" && statusOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", statusOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx := context.Background()
	client, err := connectBlackboard(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	var status *blackboard.DeviceStatus
	if statusWait > 0 {
		status, err = watch.WaitForStatus(ctx, client, statusWait)
	} else {
		status, err = client.GetStatus(ctx)
	}
	if err != nil {
		if blackboard.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("no status for device '%s'", client.Device()),
				"The device has not mirrored any events yet.",
				[]string{"Start the device with blackboard.redis_url set", "Or wait for it:\n  ember status --wait 30s"},
			)
		}
		return err
	}

	if statusOutputFormat == "json" {
		return history.FormatSingleJSON(cmd.OutOrStdout(), status)
	}
	history.FormatStatus(cmd.OutOrStdout(), status, time.Now())
	return nil
}
