package monitor

import (
	"time"

	"github.com/alexanderramin/vigil/internal/anticheat"
	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/sensor"
)

// TickOutcome describes what one tick did.
type TickOutcome struct {
	At            time.Time
	State         domain.ActivityState
	Previous      domain.ActivityState
	InOfficeHours bool
	// IdleSeconds is the effective idle time, -1 when the sensors failed.
	IdleSeconds int64
	// WarningDue is set while in-hours idle time has reached the warning
	// threshold. The monitor only reports it.
	WarningDue        bool
	SensorErr         error
	Verdict           anticheat.Verdict
	SuspiciousApplied int64
	// Mutated is set when the tick changed the daily log.
	Mutated bool
	// Skipped is set for a tick that repeats an already processed second.
	Skipped bool
}

// Classifier is the per-second state machine. Its state field is the only
// source of truth for Working/Idle/OffHours; the log's interval pointers
// follow it.
type Classifier struct {
	detector *anticheat.Detector
	state    domain.ActivityState
	lastTick time.Time
}

// NewClassifier starts in OffHours; the first in-hours tick opens an
// interval.
func NewClassifier(detector *anticheat.Detector) *Classifier {
	return &Classifier{detector: detector, state: domain.StateOffHours}
}

func (c *Classifier) State() domain.ActivityState { return c.state }

// Attach adopts a log loaded from storage. An interval left open by an
// earlier process resumes if that process ticked within gap of now;
// otherwise it is closed one second after its last observed tick.
func (c *Classifier) Attach(l *domain.DailyLog, now time.Time, gap time.Duration) {
	c.state = domain.StateOffHours
	c.lastTick = time.Time{}
	resume := l.ResumeState()
	if resume == domain.StateOffHours {
		return
	}
	if l.LastTickAt == nil {
		// No evidence of when the old process stopped. Closing at its
		// own start records a zero-length interval.
		closeOpen(l, openStart(l))
		return
	}
	last := *l.LastTickAt
	if now.Sub(last) > gap {
		closeOpen(l, last.Add(time.Second))
		return
	}
	c.state = resume
	c.lastTick = last
}

// Detach closes the log's open intervals at the end of the last applied
// tick, e.g. when the date rolls over.
func (c *Classifier) Detach(l *domain.DailyLog) {
	if c.state != domain.StateOffHours && !c.lastTick.IsZero() {
		end := c.lastTick.Add(time.Second)
		closeOpen(l, end)
		if ev := c.detector.Flush(end); ev != nil {
			l.SuspiciousEvents = append(l.SuspiciousEvents, *ev)
		}
	}
	c.state = domain.StateOffHours
	c.lastTick = time.Time{}
}

// FlushSpan records an open suspicious span as ending after the last tick.
// Used on shutdown; interval pointers are left untouched.
func (c *Classifier) FlushSpan(l *domain.DailyLog) bool {
	if c.lastTick.IsZero() {
		return false
	}
	if ev := c.detector.Flush(c.lastTick.Add(time.Second)); ev != nil {
		l.SuspiciousEvents = append(l.SuspiciousEvents, *ev)
		return true
	}
	return false
}

// Apply runs one tick against l.
func (c *Classifier) Apply(l *domain.DailyLog, cfg config.Config, now time.Time, s sensor.Sample) TickOutcome {
	out := TickOutcome{At: now, Previous: c.state, IdleSeconds: -1}
	c.detector.SetConfig(cfg.AntiCheat)

	idle, sensorErr := effectiveIdle(s)
	out.SensorErr = sensorErr
	working := sensorErr == nil && idle < cfg.IdleThreshold()
	if sensorErr == nil {
		out.IdleSeconds = int64(idle / time.Second)
	}

	if !cfg.OfficeHours.Contains(now) {
		if c.state != domain.StateOffHours {
			c.Detach(l)
			out.Mutated = true
		}
		c.state = domain.StateOffHours
		if cfg.TrackOvertime && working && cfg.OfficeHours.After(now) {
			l.OvertimeSeconds++
			out.Mutated = true
		}
		out.State = c.state
		return out
	}

	out.InOfficeHours = true
	if working {
		if c.state != domain.StateWorking {
			l.CloseIdle(now)
			l.OpenSession(now)
		}
		c.state = domain.StateWorking
		l.WorkSeconds++
	} else {
		if c.state != domain.StateIdle {
			l.CloseSession(now)
			l.OpenIdle(now)
		}
		c.state = domain.StateIdle
		l.IdleSeconds++
		out.WarningDue = sensorErr == nil && idle >= cfg.WarningThreshold()
	}

	v := c.detector.Observe(now, s, working)
	out.Verdict = v
	if v.Suspicious && working {
		out.SuspiciousApplied = l.AddSuspicious(1 + v.Backfill)
	}
	if v.Closed != nil {
		l.SuspiciousEvents = append(l.SuspiciousEvents, *v.Closed)
	}
	if v.WindowChanged {
		l.WindowChangeCount++
	}
	if s.Keystrokes > 0 {
		l.KeyboardActivityCount += int64(s.Keystrokes)
	}

	at := now
	l.LastTickAt = &at
	c.lastTick = now
	out.State = c.state
	out.Mutated = true
	return out
}

// effectiveIdle is the smaller of the two channel readings. Any unreadable
// channel makes the tick unreadable.
func effectiveIdle(s sensor.Sample) (time.Duration, error) {
	if err := s.Err(); err != nil {
		return 0, err
	}
	return min(s.PointerIdle, s.KeyboardIdle), nil
}

func closeOpen(l *domain.DailyLog, at time.Time) {
	l.CloseSession(at)
	l.CloseIdle(at)
}

func openStart(l *domain.DailyLog) time.Time {
	switch {
	case l.CurrentSessionStart != nil:
		return *l.CurrentSessionStart
	case l.CurrentIdleStart != nil:
		return *l.CurrentIdleStart
	}
	return time.Time{}
}
