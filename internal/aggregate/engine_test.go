package aggregate

import (
	"context"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) domain.Date { return testutil.Day(2026, time.January, d) }

func TestSummarize_FiveFullDays(t *testing.T) {
	repo := testutil.NewFileRepo(t)
	for d := 5; d <= 9; d++ {
		testutil.SeedDay(t, repo, day(d), testutil.WithWork(28800, 0))
	}

	sum, err := NewEngine(repo).Summarize(context.Background(), day(5), day(9))
	require.NoError(t, err)
	assert.Equal(t, int64(144000), sum.TotalWorkSeconds)
	assert.Equal(t, 28800.0, sum.AverageWorkPerDay)
	assert.Len(t, sum.DailyBreakdown, 5)
	assert.Equal(t, int64(5), sum.DaysWorked)
	assert.Equal(t, int64(144000), sum.TotalRealWorkSeconds)
}

func TestSummarize_MissingDaysDiluteAverages(t *testing.T) {
	repo := testutil.NewFileRepo(t)
	testutil.SeedDay(t, repo, day(12), testutil.WithWork(7000, 1000), testutil.WithIdle(700))
	testutil.SeedDay(t, repo, day(14), testutil.WithWork(7000, 0))

	sum, err := NewEngine(repo).Summarize(context.Background(), day(12), day(18))
	require.NoError(t, err)

	assert.Equal(t, int64(7), sum.Days)
	assert.Equal(t, int64(2), sum.DaysWorked)
	assert.Equal(t, int64(14000), sum.TotalWorkSeconds)
	assert.Equal(t, int64(13000), sum.TotalRealWorkSeconds)
	assert.Equal(t, 2000.0, sum.AverageWorkPerDay)
	assert.Equal(t, 100.0, sum.AverageIdlePerDay)

	require.Len(t, sum.DailyBreakdown, 7)
	for i, ds := range sum.DailyBreakdown {
		assert.Equal(t, day(12+i), ds.Date)
	}
	assert.Equal(t, "Monday", sum.DailyBreakdown[0].DayName)
	assert.Equal(t, int64(6000), sum.DailyBreakdown[0].RealWorkSeconds)
	assert.Equal(t, int64(0), sum.DailyBreakdown[1].WorkSeconds)
}

func TestSummarize_CorruptDayCountsAsZero(t *testing.T) {
	testutil.CaptureLog(t)
	repo := testutil.NewFileRepo(t)
	testutil.SeedDay(t, repo, day(9), testutil.WithWork(100, 0))
	require.NoError(t, os.WriteFile(repo.Path(day(10)), []byte("garbage"), 0o600))

	sum, err := NewEngine(repo).Summarize(context.Background(), day(9), day(10))
	require.NoError(t, err)
	assert.Equal(t, int64(100), sum.TotalWorkSeconds)
	assert.Len(t, sum.DailyBreakdown, 2)
}

func TestSummarize_RejectsReversedRange(t *testing.T) {
	_, err := NewEngine(testutil.NewFileRepo(t)).Summarize(context.Background(), day(9), day(8))
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = NewEngine(testutil.NewFileRepo(t)).Summarize(context.Background(), domain.Date{}, day(8))
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestSummarize_RejectsOverlongRange(t *testing.T) {
	engine := NewEngine(testutil.NewFileRepo(t))
	ctx := context.Background()

	_, err := engine.Summarize(ctx, domain.Date{Year: 1, Month: time.January, Day: 1}, domain.Date{Year: 9999, Month: time.December, Day: 31})
	assert.ErrorIs(t, err, ErrRangeTooLong)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	start := day(1)
	_, err = engine.Summarize(ctx, start, start.AddDays(MaxRangeDays))
	assert.ErrorIs(t, err, ErrRangeTooLong)

	sum, err := engine.Summarize(ctx, start, start.AddDays(MaxRangeDays-1))
	require.NoError(t, err)
	assert.Len(t, sum.DailyBreakdown, MaxRangeDays)
}

func seedRandomMonth(t *testing.T, rng *rand.Rand) *Engine {
	repo := testutil.NewFileRepo(t)
	for d := 1; d <= 31; d++ {
		if rng.Intn(4) == 0 {
			continue
		}
		work := int64(rng.Intn(28800))
		testutil.SeedDay(t, repo, day(d),
			testutil.WithWork(work, int64(rng.Intn(int(work)+1))),
			testutil.WithIdle(int64(rng.Intn(3600))),
			testutil.WithCounts(int64(rng.Intn(5000)), int64(rng.Intn(200))),
		)
	}
	return NewEngine(repo)
}

// Summaries of adjacent ranges add up to the summary of their union.
func TestSummarize_Additive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	engine := seedRandomMonth(t, rng)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		start := 1 + rng.Intn(30)
		end := start + 1 + rng.Intn(31-start)
		split := start + rng.Intn(end-start)

		a, err := engine.Summarize(ctx, day(start), day(split))
		require.NoError(t, err)
		b, err := engine.Summarize(ctx, day(split+1), day(end))
		require.NoError(t, err)
		whole, err := engine.Summarize(ctx, day(start), day(end))
		require.NoError(t, err)

		assert.Equal(t, whole.RangeTotals, a.RangeTotals.Add(b.RangeTotals), "range %d..%d split at %d", start, end, split)
		assert.Equal(t, whole.DailyBreakdown, append(a.DailyBreakdown, b.DailyBreakdown...))
		assert.Equal(t, whole.TotalWorkSeconds-whole.TotalSuspiciousSeconds, whole.TotalRealWorkSeconds)
	}
}

func TestSummarize_Idempotent(t *testing.T) {
	engine := seedRandomMonth(t, rand.New(rand.NewSource(7)))
	ctx := context.Background()

	first, err := engine.Summarize(ctx, day(1), day(31))
	require.NoError(t, err)
	second, err := engine.Summarize(ctx, day(1), day(31))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBounds(t *testing.T) {
	today := day(14) // Wednesday
	cases := []struct {
		name       string
		period     Period
		ref        domain.Date
		start, end domain.Date
	}{
		{"current week stops today", PeriodWeek, today, day(12), day(14)},
		{"past week is whole", PeriodWeek, day(7), day(5), day(11)},
		{"sunday belongs to the week before", PeriodWeek, day(11), day(5), day(11)},
		{"current month stops today", PeriodMonth, today, day(1), day(14)},
		{"february", PeriodMonth, testutil.Day(2026, time.February, 3),
			testutil.Day(2026, time.February, 1), testutil.Day(2026, time.February, 28)},
		{"current year stops today", PeriodYear, today, day(1), today},
		{"past year is whole", PeriodYear, testutil.Day(2025, time.June, 1),
			testutil.Day(2025, time.January, 1), testutil.Day(2025, time.December, 31)},
		{"day", PeriodDay, day(3), day(3), day(3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := Bounds(tc.period, tc.ref, today)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	_, err = ParsePeriod("fortnight")
	assert.Error(t, err)
}
