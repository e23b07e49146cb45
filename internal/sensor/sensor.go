// Package sensor supplies the per-tick input readings the monitor
// classifies. Platform hooks live behind Source so the tick loop can be
// driven by a command, a recorded file or a test script.
package sensor

import (
	"context"
	"fmt"
	"time"
)

// PointerMove is one observed pointer position.
type PointerMove struct {
	At time.Time `json:"at"`
	X  float64   `json:"x"`
	Y  float64   `json:"y"`
}

// Sample is everything read from the input devices for one tick.
// Moves and Keystrokes cover the time since the previous sample.
type Sample struct {
	PointerIdle  time.Duration
	KeyboardIdle time.Duration
	PointerErr   error
	KeyboardErr  error

	Moves      []PointerMove
	Keystrokes int
	// Window identifies the foreground window. Empty means unknown.
	Window string
}

// Err returns the first channel error, if any.
func (s Sample) Err() error {
	if s.PointerErr != nil {
		return fmt.Errorf("pointer: %w", s.PointerErr)
	}
	if s.KeyboardErr != nil {
		return fmt.Errorf("keyboard: %w", s.KeyboardErr)
	}
	return nil
}

// Source produces one Sample per tick.
type Source interface {
	Sample(ctx context.Context, now time.Time) (Sample, error)
}

// Unavailable returns a sample with both channels failed by err.
func Unavailable(err error) Sample {
	return Sample{PointerErr: err, KeyboardErr: err}
}
