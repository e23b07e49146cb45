// Package teatest drives bubbletea models synchronously in tests.
//
// A Driver calls Update directly and runs the returned Cmds inline. Cmds
// that block (timer ticks, channel waits) are abandoned after a short
// timeout, so a model's background plumbing never stalls a test.
package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDrainDepth bounds Cmd chains so a self-rescheduling Cmd cannot loop
// forever.
const MaxDrainDepth = 100

// CmdTimeout is how long a Cmd may run before it is treated as blocking.
const CmdTimeout = 10 * time.Millisecond

// Driver is a synchronous harness for a tea.Model.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once a tea.QuitMsg comes out of a Cmd.
	Quitting bool

	skip func(tea.Msg) bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithSize sends a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.Model, _ = d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// WithSkip drops messages for which skip returns true instead of feeding
// them to the model.
func WithSkip(skip func(tea.Msg) bool) Option {
	return func(d *Driver) { d.skip = skip }
}

func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init runs the model's Init Cmd.
func (d *Driver) Init() {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
}

// Send dispatches msg and drains the resulting Cmds.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.drain(cmd, 0)
}

// Press sends one key: a single rune, or a named key such as "enter",
// "esc" or "ctrl+c".
func (d *Driver) Press(k string) {
	d.T.Helper()
	switch k {
	case "enter":
		d.Send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		d.Send(tea.KeyMsg{Type: tea.KeyEsc})
	case "ctrl+c":
		d.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	default:
		d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest: drain depth limit (%d) reached", MaxDrainDepth)
		return
	}

	msg := runWithTimeout(cmd)
	if msg == nil || (d.skip != nil && d.skip(msg)) {
		return
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
	case tea.QuitMsg:
		d.Quitting = true
		d.Model, _ = d.Model.Update(msg)
	default:
		var next tea.Cmd
		d.Model, next = d.Model.Update(msg)
		d.drain(next, depth+1)
	}
}

// runWithTimeout returns the Cmd's message, or nil if it blocks past
// CmdTimeout.
func runWithTimeout(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(CmdTimeout):
		return nil
	}
}
