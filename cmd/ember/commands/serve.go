package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/ember/internal/console"
	"github.com/dyluth/ember/internal/printer"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operator console a device connects to",
	Long: `Listen for a spark device on ws://<addr>/ws and open an interactive
console to it.

On connect the console measures the device's clock offset, then reads
commands from stdin:

` + console.HelpText,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := printer.Default()
	srv := console.NewServer(out)
	if err := srv.Start(serveAddr); err != nil {
		return printer.Error(
			"failed to start console",
			err.Error(),
			[]string{"Pick another address:\n  ember serve --addr :8081"},
		)
	}
	out.Success("WebSocket server started on ws://%s%s\n", srv.Addr(), console.Path)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	return console.NewREPL(srv, out).Run(ctx, cmd.InOrStdin())
}
