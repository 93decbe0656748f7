package commands

import (
	"bytes"
	"testing"

	"github.com/dyluth/ember/internal/config"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

// run executes the root command with args and returns its stdout. Flag
// variables are package globals, so they are reset first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configPath = config.FileName
	redisURLArg, deviceArg = "", ""
	eventsOutputFormat, eventsSince, eventsUntil, eventsKind, eventsLimit = "default", "", "", "", 0
	watchOutputFormat, watchKind, watchCount = "default", "", 0
	statusOutputFormat, statusWait = "default", 0
	forceInit, initDevice = false, "spark-01"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := Execute()
	return buf.String(), err
}
