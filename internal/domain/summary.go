package domain

// DaySummary is the per-day roll-up used in a DateRangeSummary breakdown.
type DaySummary struct {
	Date                  Date   `json:"date"`
	DayName               string `json:"day_name"`
	WorkSeconds           int64  `json:"work_seconds"`
	IdleSeconds           int64  `json:"idle_seconds"`
	OvertimeSeconds       int64  `json:"overtime_seconds"`
	SuspiciousSeconds     int64  `json:"suspicious_seconds"`
	RealWorkSeconds       int64  `json:"real_work_seconds"`
	ScreenshotCount       int64  `json:"screenshot_count"`
	SuspiciousEventCount  int64  `json:"suspicious_event_count"`
	KeyboardActivityCount int64  `json:"keyboard_activity_count"`
	WindowChangeCount     int64  `json:"window_change_count"`
}

// SummarizeDay rolls a DailyLog up into a DaySummary.
func SummarizeDay(l *DailyLog) DaySummary {
	return DaySummary{
		Date:                  l.Date,
		DayName:               l.Date.Weekday().String(),
		WorkSeconds:           l.WorkSeconds,
		IdleSeconds:           l.IdleSeconds,
		OvertimeSeconds:       l.OvertimeSeconds,
		SuspiciousSeconds:     l.SuspiciousSeconds,
		RealWorkSeconds:       l.RealWorkSeconds(),
		ScreenshotCount:       int64(len(l.Screenshots)),
		SuspiciousEventCount:  int64(len(l.SuspiciousEvents)),
		KeyboardActivityCount: l.KeyboardActivityCount,
		WindowChangeCount:     l.WindowChangeCount,
	}
}

// RangeTotals holds the summable fields of a DateRangeSummary.
type RangeTotals struct {
	Days                       int64 `json:"days"`
	DaysWorked                 int64 `json:"days_worked"`
	TotalWorkSeconds           int64 `json:"total_work_seconds"`
	TotalIdleSeconds           int64 `json:"total_idle_seconds"`
	TotalOvertimeSeconds       int64 `json:"total_overtime_seconds"`
	TotalSuspiciousSeconds     int64 `json:"total_suspicious_seconds"`
	TotalRealWorkSeconds       int64 `json:"total_real_work_seconds"`
	TotalScreenshots           int64 `json:"total_screenshots"`
	TotalSuspiciousEvents      int64 `json:"total_suspicious_events"`
	TotalKeyboardActivityCount int64 `json:"total_keyboard_activity_count"`
	TotalWindowChangeCount     int64 `json:"total_window_change_count"`
}

// AddDay folds one day into the totals.
func (t *RangeTotals) AddDay(d DaySummary) {
	t.Days++
	if d.WorkSeconds > 0 {
		t.DaysWorked++
	}
	t.TotalWorkSeconds += d.WorkSeconds
	t.TotalIdleSeconds += d.IdleSeconds
	t.TotalOvertimeSeconds += d.OvertimeSeconds
	t.TotalSuspiciousSeconds += d.SuspiciousSeconds
	t.TotalRealWorkSeconds += d.RealWorkSeconds
	t.TotalScreenshots += d.ScreenshotCount
	t.TotalSuspiciousEvents += d.SuspiciousEventCount
	t.TotalKeyboardActivityCount += d.KeyboardActivityCount
	t.TotalWindowChangeCount += d.WindowChangeCount
}

// Add returns the field-wise sum of t and o.
func (t RangeTotals) Add(o RangeTotals) RangeTotals {
	return RangeTotals{
		Days:                       t.Days + o.Days,
		DaysWorked:                 t.DaysWorked + o.DaysWorked,
		TotalWorkSeconds:           t.TotalWorkSeconds + o.TotalWorkSeconds,
		TotalIdleSeconds:           t.TotalIdleSeconds + o.TotalIdleSeconds,
		TotalOvertimeSeconds:       t.TotalOvertimeSeconds + o.TotalOvertimeSeconds,
		TotalSuspiciousSeconds:     t.TotalSuspiciousSeconds + o.TotalSuspiciousSeconds,
		TotalRealWorkSeconds:       t.TotalRealWorkSeconds + o.TotalRealWorkSeconds,
		TotalScreenshots:           t.TotalScreenshots + o.TotalScreenshots,
		TotalSuspiciousEvents:      t.TotalSuspiciousEvents + o.TotalSuspiciousEvents,
		TotalKeyboardActivityCount: t.TotalKeyboardActivityCount + o.TotalKeyboardActivityCount,
		TotalWindowChangeCount:     t.TotalWindowChangeCount + o.TotalWindowChangeCount,
	}
}

// DateRangeSummary is derived on demand from stored DailyLogs; it is never
// persisted.
type DateRangeSummary struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
	RangeTotals

	AverageWorkPerDay       float64 `json:"average_work_per_day"`
	AverageIdlePerDay       float64 `json:"average_idle_per_day"`
	AverageRealWorkPerDay   float64 `json:"average_real_work_per_day"`
	AverageSuspiciousPerDay float64 `json:"average_suspicious_per_day"`

	DailyBreakdown []DaySummary `json:"daily_breakdown"`
}
