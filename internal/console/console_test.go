package console

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/satindergrewal/nadabramha/internal/manjira"
)

type fakeController struct {
	state    manjira.State
	startErr error
}

func (f *fakeController) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.state = manjira.Playing
	return nil
}

func (f *fakeController) Stop() { f.state = manjira.Stopped }

func (f *fakeController) ToggleErr() (manjira.State, error) {
	if f.state == manjira.Playing {
		f.Stop()
		return f.state, nil
	}
	err := f.Start()
	return f.state, err
}

func (f *fakeController) Status() manjira.Status {
	return manjira.Status{State: f.state, ClockTime: 2, NextEventTime: 3.5, Submitted: 1}
}

func TestExec(t *testing.T) {
	ctl := &fakeController{}
	var out bytes.Buffer
	c := New(ctl, &out)

	tests := []struct {
		line  string
		want  string
		state manjira.State
	}{
		{"toggle", "playing\n", manjira.Playing},
		{"  TOGGLE ", "stopped\n", manjira.Stopped},
		{"start", "playing\n", manjira.Playing},
		{"status", "playing  clock 2.00s  next 3.50s  strikes 1  skipped 0\n", manjira.Playing},
		{"stop", "stopped\n", manjira.Stopped},
		{"", "", manjira.Stopped},
		{"bang", "unknown command \"bang\" (try help)\n", manjira.Stopped},
	}
	for _, tt := range tests {
		out.Reset()
		if !c.Exec(tt.line) {
			t.Errorf("Exec(%q) asked to quit", tt.line)
		}
		if out.String() != tt.want {
			t.Errorf("Exec(%q) printed %q, want %q", tt.line, out.String(), tt.want)
		}
		if ctl.state != tt.state {
			t.Errorf("after %q state = %v, want %v", tt.line, ctl.state, tt.state)
		}
	}
}

func TestExecQuit(t *testing.T) {
	c := New(&fakeController{}, &bytes.Buffer{})
	for _, line := range []string{"quit", "exit", "q"} {
		if c.Exec(line) {
			t.Errorf("Exec(%q) = true, want false", line)
		}
	}
}

func TestExecStartFailure(t *testing.T) {
	ctl := &fakeController{startErr: fmt.Errorf("%w: no device", manjira.ErrCapabilityUnavailable)}
	var out bytes.Buffer
	c := New(ctl, &out)

	c.Exec("toggle")
	if !strings.HasPrefix(out.String(), "stopped: ") || !strings.Contains(out.String(), "no device") {
		t.Errorf("output = %q", out.String())
	}
	if ctl.state != manjira.Stopped {
		t.Errorf("state = %v, want stopped", ctl.state)
	}
}

func TestCompleter(t *testing.T) {
	got, length := Completer().Do([]rune("sta"), 3)
	if length != 3 {
		t.Errorf("completion offset = %d, want 3", length)
	}
	var words []string
	for _, g := range got {
		words = append(words, strings.TrimSpace(string(g)))
	}
	if strings.Join(words, ",") != "rt,tus" {
		t.Errorf("completions for sta = %v, want [rt tus]", words)
	}
}
