package sensor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandSource reads the idle time from an external program, such as
// xprintidle, that prints milliseconds since the last input event. The one
// reading serves both channels. WindowCommand, when set, prints the title of
// the focused window.
type CommandSource struct {
	IdleCommand   string
	WindowCommand string
	Timeout       time.Duration
}

// NewCommandSource creates a CommandSource with a 500ms per-command timeout.
func NewCommandSource(idleCommand, windowCommand string) *CommandSource {
	return &CommandSource{
		IdleCommand:   idleCommand,
		WindowCommand: windowCommand,
		Timeout:       500 * time.Millisecond,
	}
}

func (c *CommandSource) Sample(ctx context.Context, _ time.Time) (Sample, error) {
	out, err := c.run(ctx, c.IdleCommand)
	if err != nil {
		return Unavailable(err), nil
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil || ms < 0 {
		return Unavailable(fmt.Errorf("%w: idle command printed %q", ErrUnavailable, strings.TrimSpace(out))), nil
	}
	idle := time.Duration(ms) * time.Millisecond
	s := Sample{PointerIdle: idle, KeyboardIdle: idle}

	if c.WindowCommand != "" {
		// A failed window read leaves the window unknown; it does not make
		// the tick idle.
		if title, err := c.run(ctx, c.WindowCommand); err == nil {
			s.Window = strings.TrimSpace(title)
		}
	}
	return s, nil
}

func (c *CommandSource) run(ctx context.Context, command string) (string, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return "", fmt.Errorf("%w: no command configured", ErrUnavailable)
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, args[0], err)
	}
	return stdout.String(), nil
}
