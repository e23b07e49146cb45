package config

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes after midnight.
// It marshals as "HH:MM"; "24:00" is accepted as the end of the day.
type TimeOfDay int

// Clock builds a TimeOfDay from an hour and minute.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On returns the instant of t on the calendar day of ref, in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, ref.Location())
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || len(s) != 5 {
		return 0, fmt.Errorf("%w: time of day %q must be HH:MM", ErrInvalid, s)
	}
	if h == 24 && m == 0 {
		return Clock(24, 0), nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: time of day %q out of range", ErrInvalid, s)
	}
	return Clock(h, m), nil
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// OfficeHours is the half-open daily window [Start, End) during which time
// is accounted.
type OfficeHours struct {
	Start TimeOfDay `yaml:"start" json:"start"`
	End   TimeOfDay `yaml:"end" json:"end"`
}

// Contains reports whether t falls inside the window on t's own day.
func (o OfficeHours) Contains(t time.Time) bool {
	return !t.Before(o.Start.On(t)) && t.Before(o.End.On(t))
}

// After reports whether t is at or past the end of the window on t's day.
func (o OfficeHours) After(t time.Time) bool {
	return !t.Before(o.End.On(t))
}
