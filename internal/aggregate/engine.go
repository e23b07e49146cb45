// Package aggregate computes date-range summaries from stored daily logs.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/repository"
)

// MaxRangeDays bounds one summary. Every day in a range is a store read
// and a breakdown row.
const MaxRangeDays = 5 * 366

// ErrRangeTooLong is returned for ranges longer than MaxRangeDays. It also
// matches domain.ErrInvalidDate.
var ErrRangeTooLong = errors.New("date range too long")

// Engine is stateless; every call reads the store afresh and writes nothing.
type Engine struct {
	repo repository.DailyLogRepo
}

func NewEngine(repo repository.DailyLogRepo) *Engine {
	return &Engine{repo: repo}
}

// Summarize rolls up every calendar day in [start, end]. Days without a
// stored log contribute zeros, and averages divide by the full calendar
// span.
func (e *Engine) Summarize(ctx context.Context, start, end domain.Date) (domain.DateRangeSummary, error) {
	if start.IsZero() || end.IsZero() {
		return domain.DateRangeSummary{}, fmt.Errorf("%w: range bounds are required", domain.ErrInvalidDate)
	}
	if end.Before(start) {
		return domain.DateRangeSummary{}, fmt.Errorf("%w: range end %s is before start %s", domain.ErrInvalidDate, end, start)
	}
	if end.After(start.AddDays(MaxRangeDays - 1)) {
		return domain.DateRangeSummary{}, fmt.Errorf("%w: %w: %s to %s exceeds %d days",
			domain.ErrInvalidDate, ErrRangeTooLong, start, end, MaxRangeDays)
	}

	days := domain.DaysInclusive(start, end)
	sum := domain.DateRangeSummary{
		Start:          start,
		End:            end,
		DailyBreakdown: make([]domain.DaySummary, 0, days),
	}
	for d := start; !d.After(end); d = d.AddDays(1) {
		l, err := e.repo.Load(ctx, d)
		if err != nil {
			return domain.DateRangeSummary{}, fmt.Errorf("loading %s: %w", d, err)
		}
		day := domain.SummarizeDay(l)
		sum.AddDay(day)
		sum.DailyBreakdown = append(sum.DailyBreakdown, day)
	}

	n := float64(sum.Days)
	sum.AverageWorkPerDay = float64(sum.TotalWorkSeconds) / n
	sum.AverageIdlePerDay = float64(sum.TotalIdleSeconds) / n
	sum.AverageRealWorkPerDay = float64(sum.TotalRealWorkSeconds) / n
	sum.AverageSuspiciousPerDay = float64(sum.TotalSuspiciousSeconds) / n
	return sum, nil
}
