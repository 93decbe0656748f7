package commands

import (
	"fmt"

	"github.com/dyluth/ember/internal/config"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags selecting the device and its blackboard.
var (
	configPath  string
	redisURLArg string
	deviceArg   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Ember - operator console for spark devices",
	Long: `Ember is the operator side of a spark device.

It serves the WebSocket console a device connects to, scaffolds device
configuration, and inspects the events a device mirrors to its Redis
blackboard.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "Device config used to find the blackboard")
	rootCmd.PersistentFlags().StringVar(&redisURLArg, "redis-url", "", "Blackboard Redis URL (overrides the config)")
	rootCmd.PersistentFlags().StringVarP(&deviceArg, "device", "d", "", "Device name (overrides the config)")
}
