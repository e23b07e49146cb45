// Package anticheat flags input that looks machine-generated.
//
// Three heuristics run on every tick: a jitter pattern (small, regular or
// oscillating pointer moves), keyboard silence while the pointer is busy,
// and a stale foreground window. Any one of them makes the tick suspicious.
// Consecutive suspicious ticks form a span that is reported as a single
// SuspiciousEvent when it ends.
package anticheat

import (
	"time"

	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/sensor"
)

// Verdict is the detector's answer for one tick.
type Verdict struct {
	Suspicious bool
	// Reasons lists the heuristics that hold on this tick.
	Reasons []domain.SuspicionReason
	// Backfill is the number of seconds before this tick that became
	// suspicious in hindsight, when a jitter run is confirmed.
	Backfill int64
	// WindowChanged reports a change of foreground window on this tick.
	WindowChanged bool
	// Closed is the event for a span that ended on this tick.
	Closed *domain.SuspiciousEvent
}

type trackedMove struct {
	sensor.PointerMove
	tick time.Time
}

// workRun counts consecutive working seconds since the run started. The
// tick that starts a run counts as zero.
type workRun struct {
	active  bool
	seconds int64
}

func (r *workRun) restart() { *r = workRun{active: true} }

func (r *workRun) extend() {
	if !r.active {
		r.restart()
		return
	}
	r.seconds++
}

func (r *workRun) stop() { *r = workRun{} }

func (r workRun) atLeast(limit int) bool {
	return r.active && r.seconds >= int64(limit)
}

type span struct {
	start   time.Time
	reasons map[domain.SuspicionReason]bool
}

// Detector holds the rolling evidence. It is owned by the tick loop and is
// not safe for concurrent use.
type Detector struct {
	cfg config.AntiCheat

	lastPointerMove time.Time
	window          string

	// Runs of working ticks: without a keystroke, with the pointer busy,
	// and in the same foreground window. A non-working tick ends all three.
	silentRun  workRun
	pointerRun workRun
	windowRun  workRun

	moves []trackedMove

	jitterRun       bool
	jitterRunStart  time.Time
	jitterConfirmed bool

	span *span
}

// New creates a Detector with the given thresholds.
func New(cfg config.AntiCheat) *Detector {
	return &Detector{cfg: cfg}
}

// SetConfig swaps the thresholds. Evidence already collected is kept.
func (d *Detector) SetConfig(cfg config.AntiCheat) {
	d.cfg = cfg
}

// Observe feeds one tick's sample. working is the classifier's decision for
// the same tick; the keyboard and window heuristics only apply to work and
// only count working seconds.
func (d *Detector) Observe(now time.Time, s sensor.Sample, working bool) Verdict {
	var v Verdict
	if s.Window != "" {
		v.WindowChanged = d.window != "" && s.Window != d.window
		d.window = s.Window
	}
	d.trackMoves(now, s.Moves)
	d.trackRuns(now, s, working, v.WindowChanged)

	if !d.cfg.Enabled {
		d.resetJitter()
		v.Closed = d.closeSpan(now)
		return v
	}

	jitter := d.observeJitter(now, len(s.Moves) > 0)
	if jitter {
		v.Reasons = append(v.Reasons, domain.ReasonJitterPattern)
	}
	if d.keyboardSilent() {
		v.Reasons = append(v.Reasons, domain.ReasonKeyboardSilence)
	}
	if d.windowStale() {
		v.Reasons = append(v.Reasons, domain.ReasonLowWindowDiversity)
	}

	if len(v.Reasons) == 0 {
		v.Closed = d.closeSpan(now)
		return v
	}

	v.Suspicious = true
	if d.span == nil {
		d.span = &span{start: now, reasons: map[domain.SuspicionReason]bool{}}
	}
	if jitter && !d.jitterConfirmed {
		d.jitterConfirmed = true
		// The run was jitter from its first tick. Pull the span back to
		// the run start and report the seconds not yet counted.
		if d.jitterRunStart.Before(d.span.start) {
			v.Backfill = int64(d.span.start.Sub(d.jitterRunStart) / time.Second)
			d.span.start = d.jitterRunStart
		}
	}
	for _, r := range v.Reasons {
		d.span.reasons[r] = true
	}
	return v
}

// Flush ends any open span at the given instant, typically when office
// hours end.
func (d *Detector) Flush(at time.Time) *domain.SuspiciousEvent {
	d.resetJitter()
	d.moves = d.moves[:0]
	d.stopRuns()
	return d.closeSpan(at)
}

// SpanStart reports the start of the open suspicious span.
func (d *Detector) SpanStart() (time.Time, bool) {
	if d.span == nil {
		return time.Time{}, false
	}
	return d.span.start, true
}

func (d *Detector) trackMoves(now time.Time, moves []sensor.PointerMove) {
	for _, m := range moves {
		d.moves = append(d.moves, trackedMove{PointerMove: m, tick: now})
	}
	if len(moves) > 0 {
		d.lastPointerMove = now
	}
	horizon := now.Add(-time.Duration(d.cfg.JitterWindowSeconds) * time.Second)
	keep := 0
	for keep < len(d.moves) && !d.moves[keep].tick.After(horizon) {
		keep++
	}
	if keep > 0 {
		d.moves = append(d.moves[:0], d.moves[keep:]...)
	}
}

// observeJitter updates the jitter run and reports whether it is confirmed
// on this tick.
func (d *Detector) observeJitter(now time.Time, movedNow bool) bool {
	if !movedNow || !d.jitterPattern() {
		d.resetJitter()
		return false
	}
	if !d.jitterRun {
		d.jitterRun = true
		d.jitterRunStart = d.moves[0].tick
	}
	return now.Sub(d.jitterRunStart) >= time.Duration(d.cfg.JitterMinDurationSeconds)*time.Second
}

func (d *Detector) jitterPattern() bool {
	if len(d.moves) < d.cfg.JitterMinSamples {
		return false
	}
	moves := make([]sensor.PointerMove, len(d.moves))
	for i, m := range d.moves {
		moves[i] = m.PointerMove
	}
	w, h := boundingBox(moves)
	if w > d.cfg.JitterMaxBoxPixels || h > d.cfg.JitterMaxBoxPixels {
		return false
	}
	return regularity(moves) > d.cfg.MaxRegularity || reversalRate(moves) > d.cfg.MinReversalRate
}

func (d *Detector) trackRuns(now time.Time, s sensor.Sample, working, windowChanged bool) {
	if !working {
		d.stopRuns()
		return
	}

	if s.Keystrokes > 0 {
		d.silentRun.restart()
	} else {
		d.silentRun.extend()
	}

	recent := time.Duration(d.cfg.JitterWindowSeconds) * time.Second
	if !d.lastPointerMove.IsZero() && now.Sub(d.lastPointerMove) < recent {
		d.pointerRun.extend()
	} else {
		d.pointerRun.stop()
	}

	switch {
	case d.window == "":
		d.windowRun.stop()
	case windowChanged:
		d.windowRun.restart()
	default:
		d.windowRun.extend()
	}
}

func (d *Detector) stopRuns() {
	d.silentRun.stop()
	d.pointerRun.stop()
	d.windowRun.stop()
}

// keyboardSilent holds when the pointer has been busy and the keyboard
// silent for the whole limit, counting working seconds only.
func (d *Detector) keyboardSilent() bool {
	limit := d.cfg.KeyboardSilenceSeconds
	if limit <= 0 {
		return false
	}
	return d.pointerRun.atLeast(limit) && d.silentRun.atLeast(limit)
}

func (d *Detector) windowStale() bool {
	if d.cfg.WindowStaleSeconds <= 0 {
		return false
	}
	return d.windowRun.atLeast(d.cfg.WindowStaleSeconds)
}

func (d *Detector) resetJitter() {
	d.jitterRun = false
	d.jitterConfirmed = false
	d.jitterRunStart = time.Time{}
}

func (d *Detector) closeSpan(at time.Time) *domain.SuspiciousEvent {
	if d.span == nil {
		return nil
	}
	sp := d.span
	d.span = nil

	reason := domain.ReasonComposite
	if len(sp.reasons) == 1 {
		for r := range sp.reasons {
			reason = r
		}
	}
	dur := int64(at.Sub(sp.start) / time.Second)
	if dur < 0 {
		dur = 0
	}
	return &domain.SuspiciousEvent{Time: sp.start, DurationSeconds: dur, Reason: reason}
}
