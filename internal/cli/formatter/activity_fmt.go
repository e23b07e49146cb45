package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/vigil/internal/domain"
)

const progressBarWidth = 20

// FormatDay renders one DailyLog: totals, intervals and anomaly events.
func FormatDay(l *domain.DailyLog) string {
	var b strings.Builder

	state := domain.StateOffHours
	switch {
	case l.CurrentSessionStart != nil:
		state = domain.StateWorking
	case l.CurrentIdleStart != nil:
		state = domain.StateIdle
	}
	b.WriteString(fmt.Sprintf("%s  %s\n\n", Bold(l.Date.String()+" "+l.Date.Weekday().String()), StateIndicator(state)))

	b.WriteString(RenderTable(
		[]string{"METRIC", "VALUE"},
		[][]string{
			{"Work", FormatSeconds(l.WorkSeconds)},
			{"Real work", StyleGreen.Render(FormatSeconds(l.RealWorkSeconds()))},
			{"Suspicious", suspicious(l.SuspiciousSeconds)},
			{"Idle", FormatSeconds(l.IdleSeconds)},
			{"Overtime", FormatSeconds(l.OvertimeSeconds)},
			{"Keystrokes", strconv.FormatInt(l.KeyboardActivityCount, 10)},
			{"Window changes", strconv.FormatInt(l.WindowChangeCount, 10)},
			{"Screenshots", strconv.Itoa(len(l.Screenshots))},
		},
		1,
	))
	b.WriteString("\n" + Dim("real work ") + RenderProgress(Ratio(l.RealWorkSeconds(), l.WorkSeconds), progressBarWidth) + "\n")

	if len(l.Sessions) > 0 || l.CurrentSessionStart != nil {
		b.WriteString("\n" + Header("Sessions") + "\n")
		rows := make([][]string, 0, len(l.Sessions)+1)
		for _, s := range l.Sessions {
			start := s.Start
			rows = append(rows, []string{ClockTime(&start), ClockTime(s.End), FormatSeconds(s.DurationSeconds)})
		}
		if l.CurrentSessionStart != nil {
			rows = append(rows, []string{ClockTime(l.CurrentSessionStart), StyleGreen.Render("open"), ""})
		}
		b.WriteString(RenderTable([]string{"START", "END", "DURATION"}, rows, 2))
	}

	if len(l.IdlePeriods) > 0 {
		b.WriteString("\n" + Header("Idle periods") + "\n")
		rows := make([][]string, 0, len(l.IdlePeriods))
		for _, p := range l.IdlePeriods {
			left := p.Left
			returned, dur := ClockTime(p.Returned), FormatSeconds(p.DurationSeconds)
			if p.IsOpen() {
				returned, dur = StyleYellow.Render("open"), ""
			}
			rows = append(rows, []string{ClockTime(&left), returned, dur})
		}
		b.WriteString(RenderTable([]string{"LEFT", "RETURNED", "DURATION"}, rows, 2))
	}

	if len(l.SuspiciousEvents) > 0 {
		b.WriteString("\n" + Header("Suspicious activity") + "\n")
		rows := make([][]string, 0, len(l.SuspiciousEvents))
		for _, e := range l.SuspiciousEvents {
			at := e.Time
			rows = append(rows, []string{ClockTime(&at), ReasonLabel(e.Reason), FormatSeconds(e.DurationSeconds)})
		}
		b.WriteString(RenderTable([]string{"AT", "REASON", "DURATION"}, rows, 2))
	}

	return RenderBox("Activity", b.String())
}

// FormatSummary renders a DateRangeSummary with its per-day breakdown.
func FormatSummary(title string, s domain.DateRangeSummary) string {
	var b strings.Builder
	b.WriteString(Bold(fmt.Sprintf("%s … %s", s.Start, s.End)) +
		Dim(fmt.Sprintf("  %d days, %d worked", s.Days, s.DaysWorked)) + "\n\n")

	headers := []string{"DATE", "DAY", "WORK", "REAL", "SUSPICIOUS", "IDLE", "OVERTIME"}
	rows := make([][]string, 0, len(s.DailyBreakdown))
	for _, d := range s.DailyBreakdown {
		day := d.DayName
		if len(day) > 3 {
			day = day[:3]
		}
		work := FormatSeconds(d.WorkSeconds)
		if d.WorkSeconds == 0 {
			work = Dim(work)
		}
		rows = append(rows, []string{
			d.Date.String(),
			day,
			work,
			FormatSeconds(d.RealWorkSeconds),
			suspicious(d.SuspiciousSeconds),
			FormatSeconds(d.IdleSeconds),
			FormatSeconds(d.OvertimeSeconds),
		})
	}
	b.WriteString(RenderTable(headers, rows, 2, 3, 4, 5, 6))

	b.WriteString("\n" + Header("Totals") + "\n")
	b.WriteString(RenderTable(
		[]string{"", "TOTAL", "PER DAY"},
		[][]string{
			{"Work", FormatSeconds(s.TotalWorkSeconds), FormatAverage(s.AverageWorkPerDay)},
			{"Real work", StyleGreen.Render(FormatSeconds(s.TotalRealWorkSeconds)), FormatAverage(s.AverageRealWorkPerDay)},
			{"Suspicious", suspicious(s.TotalSuspiciousSeconds), FormatAverage(s.AverageSuspiciousPerDay)},
			{"Idle", FormatSeconds(s.TotalIdleSeconds), FormatAverage(s.AverageIdlePerDay)},
			{"Overtime", FormatSeconds(s.TotalOvertimeSeconds), ""},
		},
		1, 2,
	))
	b.WriteString(Dim(fmt.Sprintf("\n%d screenshots, %d suspicious events, %d keystrokes, %d window changes\n",
		s.TotalScreenshots, s.TotalSuspiciousEvents, s.TotalKeyboardActivityCount, s.TotalWindowChangeCount)))

	return RenderBox(title, b.String())
}

func suspicious(sec int64) string {
	if sec == 0 {
		return FormatSeconds(0)
	}
	return StyleRed.Render(FormatSeconds(sec))
}
