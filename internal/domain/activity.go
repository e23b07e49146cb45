package domain

import (
	"slices"
	"time"
)

// Session is one contiguous Working interval. Sessions are appended to the
// owning DailyLog when they close.
type Session struct {
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end"`
	DurationSeconds int64      `json:"duration_seconds"`
}

// IdlePeriod is one contiguous Idle interval. The open period, if any, is the
// last element and has a nil Returned.
type IdlePeriod struct {
	Left            time.Time  `json:"left"`
	Returned        *time.Time `json:"returned"`
	DurationSeconds int64      `json:"duration_seconds"`
}

func (p IdlePeriod) IsOpen() bool {
	return p.Returned == nil
}

// SuspiciousEvent summarizes one closed span of suspected synthetic input.
type SuspiciousEvent struct {
	Time            time.Time       `json:"time"`
	DurationSeconds int64           `json:"duration_seconds"`
	Reason          SuspicionReason `json:"reason"`
}

type ScreenshotRecord struct {
	Time       time.Time `json:"time"`
	Path       string    `json:"path"`
	Suspicious bool      `json:"suspicious"`
}

// DailyLog is the accumulated activity record of one calendar date.
type DailyLog struct {
	Date Date `json:"date"`

	WorkSeconds       int64 `json:"work_seconds"`
	IdleSeconds       int64 `json:"idle_seconds"`
	OvertimeSeconds   int64 `json:"overtime_seconds"`
	SuspiciousSeconds int64 `json:"suspicious_seconds"`

	KeyboardActivityCount int64 `json:"keyboard_activity_count"`
	WindowChangeCount     int64 `json:"window_change_count"`

	Sessions         []Session          `json:"sessions"`
	IdlePeriods      []IdlePeriod       `json:"idle_periods"`
	SuspiciousEvents []SuspiciousEvent  `json:"suspicious_events"`
	Screenshots      []ScreenshotRecord `json:"screenshots"`

	CurrentSessionStart *time.Time `json:"current_session_start"`
	CurrentIdleStart    *time.Time `json:"current_idle_start"`

	// LastTickAt is the start of the most recent in-hours tick applied.
	LastTickAt *time.Time `json:"last_tick_at,omitempty"`
}

// NewDailyLog returns an empty log for date with non-nil sequences.
func NewDailyLog(date Date) *DailyLog {
	return &DailyLog{
		Date:             date,
		Sessions:         []Session{},
		IdlePeriods:      []IdlePeriod{},
		SuspiciousEvents: []SuspiciousEvent{},
		Screenshots:      []ScreenshotRecord{},
	}
}

// ResumeState is the state implied by the persisted interval pointers.
func (l *DailyLog) ResumeState() ActivityState {
	switch {
	case l.CurrentSessionStart != nil:
		return StateWorking
	case l.CurrentIdleStart != nil:
		return StateIdle
	default:
		return StateOffHours
	}
}

// OpenSession starts a Working interval at t.
func (l *DailyLog) OpenSession(t time.Time) {
	start := t
	l.CurrentSessionStart = &start
}

// CloseSession ends the open Working interval at t and appends it to
// Sessions. It is a no-op when no session is open.
func (l *DailyLog) CloseSession(t time.Time) {
	if l.CurrentSessionStart == nil {
		return
	}
	start := *l.CurrentSessionStart
	end := t
	l.Sessions = append(l.Sessions, Session{
		Start:           start,
		End:             &end,
		DurationSeconds: secondsBetween(start, end),
	})
	l.CurrentSessionStart = nil
}

// OpenIdle starts an Idle interval at t.
func (l *DailyLog) OpenIdle(t time.Time) {
	left := t
	l.CurrentIdleStart = &left
	l.IdlePeriods = append(l.IdlePeriods, IdlePeriod{Left: left})
}

// CloseIdle fills in the open IdlePeriod with t as the return time. It is a
// no-op when no idle period is open.
func (l *DailyLog) CloseIdle(t time.Time) {
	if l.CurrentIdleStart == nil {
		return
	}
	returned := t
	for i := len(l.IdlePeriods) - 1; i >= 0; i-- {
		p := &l.IdlePeriods[i]
		if p.IsOpen() {
			p.Returned = &returned
			p.DurationSeconds = secondsBetween(p.Left, returned)
			break
		}
	}
	l.CurrentIdleStart = nil
}

// AddSuspicious adds up to n suspicious seconds without letting
// SuspiciousSeconds exceed WorkSeconds. It returns the seconds applied.
func (l *DailyLog) AddSuspicious(n int64) int64 {
	room := l.WorkSeconds - l.SuspiciousSeconds
	if n > room {
		n = room
	}
	if n <= 0 {
		return 0
	}
	l.SuspiciousSeconds += n
	return n
}

func (l *DailyLog) RealWorkSeconds() int64 {
	if l.SuspiciousSeconds > l.WorkSeconds {
		return 0
	}
	return l.WorkSeconds - l.SuspiciousSeconds
}

// IdlePeriodSeconds sums the idle periods, using asOf as the provisional end
// of an open period.
func (l *DailyLog) IdlePeriodSeconds(asOf time.Time) int64 {
	var total int64
	for _, p := range l.IdlePeriods {
		if p.IsOpen() {
			total += secondsBetween(p.Left, asOf)
			continue
		}
		total += p.DurationSeconds
	}
	return total
}

// Clone returns a deep copy, so a snapshot can leave the tick loop.
func (l *DailyLog) Clone() *DailyLog {
	c := *l
	c.Sessions = slices.Clone(l.Sessions)
	c.IdlePeriods = slices.Clone(l.IdlePeriods)
	c.SuspiciousEvents = slices.Clone(l.SuspiciousEvents)
	c.Screenshots = slices.Clone(l.Screenshots)
	for i := range c.Sessions {
		c.Sessions[i].End = cloneTime(c.Sessions[i].End)
	}
	for i := range c.IdlePeriods {
		c.IdlePeriods[i].Returned = cloneTime(c.IdlePeriods[i].Returned)
	}
	c.CurrentSessionStart = cloneTime(l.CurrentSessionStart)
	c.CurrentIdleStart = cloneTime(l.CurrentIdleStart)
	c.LastTickAt = cloneTime(l.LastTickAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func secondsBetween(from, to time.Time) int64 {
	d := int64(to.Sub(from) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}
