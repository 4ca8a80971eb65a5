// Package console is an interactive line prompt that drives playback.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/satindergrewal/nadabramha/internal/manjira"
)

// Controller is the playback state the console drives.
type Controller interface {
	Start() error
	Stop()
	ToggleErr() (manjira.State, error)
	Status() manjira.Status
}

var commands = []string{"toggle", "start", "stop", "status", "help", "quit"}

// Console maps typed commands onto a Controller.
type Console struct {
	ctl Controller
	out io.Writer
}

// New creates a console writing replies to out.
func New(ctl Controller, out io.Writer) *Console {
	return &Console{ctl: ctl, out: out}
}

// Completer completes command names.
func Completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, c := range commands {
		items[i] = readline.PcItem(c)
	}
	return readline.NewPrefixCompleter(items...)
}

// Exec runs one command line. It returns false when the console should exit.
func (c *Console) Exec(line string) bool {
	switch cmd := strings.ToLower(strings.TrimSpace(line)); cmd {
	case "":
	case "toggle", "t":
		st, err := c.ctl.ToggleErr()
		c.report(st, err)
	case "start":
		err := c.ctl.Start()
		c.report(c.ctl.Status().State, err)
	case "stop":
		c.ctl.Stop()
		c.report(c.ctl.Status().State, nil)
	case "status":
		st := c.ctl.Status()
		fmt.Fprintf(c.out, "%s  clock %.2fs  next %.2fs  strikes %d  skipped %d\n",
			st.State, st.ClockTime, st.NextEventTime, st.Submitted, st.Skipped)
	case "help", "?":
		fmt.Fprintf(c.out, "commands: %s\n", strings.Join(commands, ", "))
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(c.out, "unknown command %q (try help)\n", cmd)
	}
	return true
}

func (c *Console) report(st manjira.State, err error) {
	if err != nil {
		fmt.Fprintf(c.out, "%s: %v\n", st, err)
		return
	}
	fmt.Fprintln(c.out, st)
}

// Run reads commands from rl until quit, EOF or interrupt.
func (c *Console) Run(rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}
		if !c.Exec(line) {
			return nil
		}
	}
}
