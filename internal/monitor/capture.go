package monitor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/google/uuid"
)

// Capturer takes a screenshot and returns the file it wrote.
type Capturer interface {
	Capture(ctx context.Context, at time.Time) (string, error)
}

// CapturePolicy decides when a capture is warranted: while Working inside
// office hours, at most once per interval.
type CapturePolicy struct {
	last time.Time
}

// Due reports whether out warrants a capture under the given interval.
func (p *CapturePolicy) Due(out TickOutcome, interval time.Duration) bool {
	if !out.InOfficeHours || out.State != domain.StateWorking {
		return false
	}
	return p.last.IsZero() || out.At.Sub(p.last) >= interval
}

// Fired records a capture attempt at t.
func (p *CapturePolicy) Fired(t time.Time) {
	p.last = t
}

// CommandCapturer runs an external screenshot tool. The {path} placeholder
// in the command is replaced with the target file; without one the path is
// appended as the last argument.
type CommandCapturer struct {
	Command string
	Dir     string
	Timeout time.Duration
}

func NewCommandCapturer(command, dir string) *CommandCapturer {
	return &CommandCapturer{Command: command, Dir: dir, Timeout: 10 * time.Second}
}

func (c *CommandCapturer) Capture(ctx context.Context, at time.Time) (string, error) {
	args := strings.Fields(c.Command)
	if len(args) == 0 {
		return "", fmt.Errorf("no screenshot command configured")
	}
	dayDir := filepath.Join(c.Dir, at.Format("2006-01-02"))
	if err := os.MkdirAll(dayDir, 0o700); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}
	path := filepath.Join(dayDir, fmt.Sprintf("%s_%s.png", at.Format("150405"), uuid.NewString()[:8]))

	substituted := false
	for i, a := range args {
		if strings.Contains(a, "{path}") {
			args[i] = strings.ReplaceAll(a, "{path}", path)
			substituted = true
		}
	}
	if !substituted {
		args = append(args, path)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("running %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return path, nil
}
