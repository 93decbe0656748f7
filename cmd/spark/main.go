// Command spark is the device daemon: it runs the module loop and keeps a
// WebSocket link to the operator console.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/ember/internal/agent"
	"github.com/dyluth/ember/internal/config"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitRestart = 3 // restart requested but re-exec failed; a supervisor should start us again
)

var configPath string

func main() {
	os.Exit(run(os.Args[1:]))
}

// run contains the main logic and returns an exit code.
// This separation makes the logic testable and ensures deferred functions run.
func run(args []string) int {
	code := exitOK
	root := &cobra.Command{
		Use:           "spark",
		Short:         "Spark device daemon",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code = serve(cmd.Context())
			return nil
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", config.FileName, "Path to spark.yml")
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "spark: %v\n", err)
		return exitError
	}
	return code
}

func serve(ctx context.Context) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("[ERROR] Configuration error: %v", err)
		return exitError
	}
	log.Printf("[INFO] Spark starting for device='%s' server='%s'", cfg.Device.Name, cfg.Server.URL)

	d, err := newDevice(ctx, cfg)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return exitError
	}

	err = d.run(ctx)
	switch {
	case err == nil:
		log.Printf("[INFO] Spark shutdown complete")
		return exitOK
	case errors.Is(err, agent.ErrRestartRequested):
		return restart()
	default:
		log.Printf("[ERROR] Engine error: %v", err)
		return exitError
	}
}

// restart replaces the process with a fresh copy of itself.
func restart() int {
	exe, err := os.Executable()
	if err == nil {
		log.Printf("[INFO] Restarting...")
		err = syscall.Exec(exe, os.Args, os.Environ())
	}
	log.Printf("[ERROR] Restart failed: %v", err)
	return exitRestart
}
