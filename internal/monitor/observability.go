package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickEvent captures lightweight telemetry for one processed tick.
type TickEvent struct {
	Outcome   TickOutcome
	Duration  time.Duration
	Persisted bool
	Err       error
}

// TickObserver receives tick events.
type TickObserver interface {
	ObserveTick(ctx context.Context, event TickEvent)
}

// NoopTickObserver ignores all events.
type NoopTickObserver struct{}

func (NoopTickObserver) ObserveTick(context.Context, TickEvent) {}

type logTickObserver struct {
	logger zerolog.Logger
}

// NewLogTickObserver writes one debug event per tick to logger.
func NewLogTickObserver(logger zerolog.Logger) TickObserver {
	return &logTickObserver{logger: logger}
}

func (o *logTickObserver) ObserveTick(_ context.Context, event TickEvent) {
	out := event.Outcome
	ev := o.logger.Debug()
	if event.Err != nil {
		ev = o.logger.Error().Err(event.Err)
	}
	ev.Str("event", "tick").
		Time("at", out.At).
		Str("state", string(out.State)).
		Bool("suspicious", out.Verdict.Suspicious).
		Int64("idle_seconds", out.IdleSeconds).
		Bool("persisted", event.Persisted).
		Dur("duration", event.Duration).
		Send()
}

// multiObserver forwards to each observer in order.
type multiObserver []TickObserver

func (m multiObserver) ObserveTick(ctx context.Context, event TickEvent) {
	for _, o := range m {
		o.ObserveTick(ctx, event)
	}
}

func tickObserverOrNoop(observers []TickObserver) TickObserver {
	var live multiObserver
	for _, obs := range observers {
		if obs != nil {
			live = append(live, obs)
		}
	}
	switch len(live) {
	case 0:
		return NoopTickObserver{}
	case 1:
		return live[0]
	}
	return live
}
