package console

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/dyluth/ember/internal/printer"
)

// HelpText lists the console's commands.
const HelpText = `Available commands:
  ping                 - Send a ping to the device
  exit, quit           - Exit the console
  cls                  - Clear the console
  help                 - Show this help message
  info                 - Show device info
  reboot               - Reboot the device after a short delay
  safe_reboot          - Same as reboot
  set_led -<state>     - Set LED state: on, off, breath_on, breath_off
  get mock_sensor      - Get mock sensor data
`

// Input is one parsed operator line.
type Input struct {
	Command string
	Args    []string
}

// ParseLine splits "name -a -b" into the command name and its arguments.
// Everything before the first " -" is the name, so names may contain spaces.
func ParseLine(line string) Input {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, " -")
	in := Input{Command: strings.TrimSpace(parts[0])}
	for _, a := range parts[1:] {
		if a = strings.TrimSpace(a); a != "" {
			in.Args = append(in.Args, a)
		}
	}
	return in
}

// REPL reads operator lines and acts on the server's current session.
type REPL struct {
	srv *Server
	out *printer.Printer
}

// NewREPL returns a REPL for srv.
func NewREPL(srv *Server, out *printer.Printer) *REPL {
	return &REPL{srv: srv, out: out}
}

// Run reads lines from in until exit/quit, EOF, or ctx is cancelled.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()

	r.out.Faint("[>] ")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			if r.Execute(line) {
				r.out.Info("Exiting...\n")
				return nil
			}
			r.out.Faint("[>] ")
		}
	}
}

// Execute runs one line and reports whether the operator asked to quit.
func (r *REPL) Execute(line string) bool {
	in := ParseLine(line)
	if in.Command == "" {
		return false
	}

	switch strings.ToLower(in.Command) {
	case "exit", "quit":
		return true
	case "cls":
		r.out.Printf("\033c")
		return false
	case "help":
		r.out.Info("%s", HelpText)
		return false
	}

	sess := r.srv.Session()
	if sess == nil {
		r.out.Warning("No device connected\n")
		return false
	}

	if strings.ToLower(in.Command) == "ping" {
		if _, err := sess.Ping(); err != nil {
			r.out.Tagged("ERROR", "ping failed: %v", err)
		}
		return false
	}

	if err := sess.SendCommand(in.Command, in.Args); err != nil {
		r.out.Tagged("ERROR", "send %s failed: %v", in.Command, err)
	}
	return false
}
