package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/vigil/internal/sensor"
)

// ScriptedSource answers Sample from a function of the tick time, and
// records every instant it was asked about.
type ScriptedSource struct {
	mu     sync.Mutex
	script func(now time.Time) sensor.Sample
	asked  []time.Time
}

func NewScriptedSource(script func(now time.Time) sensor.Sample) *ScriptedSource {
	return &ScriptedSource{script: script}
}

func (s *ScriptedSource) Sample(_ context.Context, now time.Time) (sensor.Sample, error) {
	s.mu.Lock()
	s.asked = append(s.asked, now)
	s.mu.Unlock()
	return s.script(now), nil
}

// Asked returns the instants sampled so far.
func (s *ScriptedSource) Asked() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.asked...)
}

// Active is a sample of a user who touched the input idle ago.
func Active(idle time.Duration) sensor.Sample {
	return sensor.Sample{PointerIdle: idle, KeyboardIdle: idle}
}

// Ticks returns every second in [from, to).
func Ticks(from, to time.Time) []time.Time {
	var out []time.Time
	for t := from; t.Before(to); t = t.Add(time.Second) {
		out = append(out, t)
	}
	return out
}
