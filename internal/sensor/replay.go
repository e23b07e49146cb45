package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// Record is one line of a replay file.
type Record struct {
	At             time.Time     `json:"at"`
	PointerIdleMS  int64         `json:"pointer_idle_ms"`
	KeyboardIdleMS int64         `json:"keyboard_idle_ms"`
	PointerError   string        `json:"pointer_error,omitempty"`
	KeyboardError  string        `json:"keyboard_error,omitempty"`
	Moves          []PointerMove `json:"moves,omitempty"`
	Keystrokes     int           `json:"keystrokes,omitempty"`
	Window         string        `json:"window,omitempty"`
}

func (r Record) sample() Sample {
	s := Sample{
		PointerIdle:  time.Duration(r.PointerIdleMS) * time.Millisecond,
		KeyboardIdle: time.Duration(r.KeyboardIdleMS) * time.Millisecond,
		Moves:        r.Moves,
		Keystrokes:   r.Keystrokes,
		Window:       r.Window,
	}
	if r.PointerError != "" {
		s.PointerErr = fmt.Errorf("%w: %s", ErrUnavailable, r.PointerError)
	}
	if r.KeyboardError != "" {
		s.KeyboardErr = fmt.Errorf("%w: %s", ErrUnavailable, r.KeyboardError)
	}
	return s
}

// ReplaySource plays back recorded samples. It is both the Source and the
// clock of a replayed run: Ticks emits the recorded instants in order and
// Sample answers with the record for that instant.
type ReplaySource struct {
	records []Record
	byTick  map[int64]Record
	// Pace is the wall delay between ticks. Zero replays as fast as the
	// consumer reads.
	Pace time.Duration
}

// OpenReplay reads a JSONL replay file.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening replay: %w", err)
	}
	defer f.Close()
	return ReadReplay(f)
}

// ReadReplay parses JSONL records. Records must be in time order; blank
// lines are skipped.
func ReadReplay(r io.Reader) (*ReplaySource, error) {
	src := &ReplaySource{byTick: map[int64]Record{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", line, err)
		}
		if rec.At.IsZero() {
			return nil, fmt.Errorf("replay line %d: missing at", line)
		}
		if n := len(src.records); n > 0 && !rec.At.After(src.records[n-1].At) {
			return nil, fmt.Errorf("replay line %d: %s is not after the previous record", line, rec.At)
		}
		src.records = append(src.records, rec)
		src.byTick[rec.At.Unix()] = rec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading replay: %w", err)
	}
	if len(src.records) == 0 {
		return nil, errors.New("replay has no records")
	}
	return src, nil
}

// Len returns the number of recorded ticks.
func (s *ReplaySource) Len() int { return len(s.records) }

func (s *ReplaySource) Sample(_ context.Context, now time.Time) (Sample, error) {
	rec, ok := s.byTick[now.Unix()]
	if !ok {
		return Unavailable(fmt.Errorf("%w: no recorded sample at %s", ErrUnavailable, now.Format(time.RFC3339))), nil
	}
	return rec.sample(), nil
}

// Ticks emits every recorded instant once and closes the channel at the end
// of the recording or when ctx is done.
func (s *ReplaySource) Ticks(ctx context.Context) <-chan time.Time {
	ch := make(chan time.Time)
	go func() {
		defer close(ch)
		for _, rec := range s.records {
			if s.Pace > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.Pace):
				}
			}
			select {
			case <-ctx.Done():
				return
			case ch <- rec.At:
			}
		}
	}()
	return ch
}
