package aggregate

import (
	"fmt"
	"time"

	"github.com/alexanderramin/vigil/internal/domain"
)

// Period names a calendar span.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Bounds returns the span of period p containing ref. Weeks start on
// Monday. A span that contains today ends at today rather than in the
// future.
func Bounds(p Period, ref, today domain.Date) (start, end domain.Date) {
	switch p {
	case PeriodWeek:
		offset := (int(ref.Weekday()) + 6) % 7
		start = ref.AddDays(-offset)
		end = start.AddDays(6)
	case PeriodMonth:
		start = domain.Date{Year: ref.Year, Month: ref.Month, Day: 1}
		end = domain.DateOf(time.Date(ref.Year, ref.Month+1, 0, 0, 0, 0, 0, time.UTC))
	case PeriodYear:
		start = domain.Date{Year: ref.Year, Month: time.January, Day: 1}
		end = domain.Date{Year: ref.Year, Month: time.December, Day: 31}
	default:
		start, end = ref, ref
	}
	if !today.Before(start) && today.Before(end) {
		end = today
	}
	return start, end
}
