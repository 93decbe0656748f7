package commands

import (
	"fmt"

	"github.com/dyluth/ember/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit  bool
	initDevice string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a spark.yml device configuration",
	Long: `Create spark.yml in the current directory with default settings.

The device name namespaces everything the device mirrors to its blackboard,
so give each device its own.

Use --force to overwrite an existing spark.yml.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing spark.yml")
	initCmd.Flags().StringVar(&initDevice, "name", scaffold.DefaultDevice, "Device name")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := scaffold.Initialize(initDevice, forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(initDevice)
	return nil
}
