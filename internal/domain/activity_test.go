package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m, s int) time.Time {
	return time.Date(2026, 3, 2, h, m, s, 0, time.UTC)
}

func TestDailyLog_CloseSession_AppendsDuration(t *testing.T) {
	l := NewDailyLog(Date{2026, time.March, 2})
	l.OpenSession(at(9, 0, 0))
	assert.Equal(t, StateWorking, l.ResumeState())

	l.CloseSession(at(9, 59, 0))

	require.Len(t, l.Sessions, 1)
	assert.Equal(t, int64(3540), l.Sessions[0].DurationSeconds)
	assert.Equal(t, at(9, 59, 0), *l.Sessions[0].End)
	assert.Nil(t, l.CurrentSessionStart)
	assert.Equal(t, StateOffHours, l.ResumeState())
}

func TestDailyLog_CloseSession_NoopWhenClosed(t *testing.T) {
	l := NewDailyLog(Date{2026, time.March, 2})
	l.CloseSession(at(10, 0, 0))
	assert.Empty(t, l.Sessions)
}

func TestDailyLog_IdlePeriodClosure(t *testing.T) {
	l := NewDailyLog(Date{2026, time.March, 2})
	l.OpenIdle(at(9, 59, 0))
	require.Len(t, l.IdlePeriods, 1)
	assert.True(t, l.IdlePeriods[0].IsOpen())
	assert.Equal(t, StateIdle, l.ResumeState())

	l.CloseIdle(at(10, 4, 0))

	p := l.IdlePeriods[0]
	assert.False(t, p.IsOpen())
	assert.Equal(t, int64(300), p.DurationSeconds)
	assert.Equal(t, int64(p.Returned.Sub(p.Left)/time.Second), p.DurationSeconds)
	assert.Nil(t, l.CurrentIdleStart)
}

func TestDailyLog_IdlePeriodSeconds_IncludesOpenPeriod(t *testing.T) {
	l := NewDailyLog(Date{2026, time.March, 2})
	l.OpenIdle(at(9, 0, 0))
	l.CloseIdle(at(9, 1, 0))
	l.OpenIdle(at(9, 30, 0))

	assert.Equal(t, int64(60+90), l.IdlePeriodSeconds(at(9, 31, 30)))
}

func TestDailyLog_AddSuspicious_CappedByWork(t *testing.T) {
	l := NewDailyLog(Date{2026, time.March, 2})
	l.WorkSeconds = 10

	assert.Equal(t, int64(7), l.AddSuspicious(7))
	assert.Equal(t, int64(3), l.AddSuspicious(7))
	assert.Equal(t, int64(0), l.AddSuspicious(1))
	assert.Equal(t, int64(10), l.SuspiciousSeconds)
	assert.Equal(t, int64(0), l.RealWorkSeconds())
}

func TestDailyLog_Clone_IsIndependent(t *testing.T) {
	l := NewDailyLog(Date{2026, time.March, 2})
	l.OpenIdle(at(9, 0, 0))
	l.CloseIdle(at(9, 5, 0))
	l.OpenSession(at(9, 5, 0))

	c := l.Clone()
	assert.Equal(t, l, c)

	*c.IdlePeriods[0].Returned = at(11, 0, 0)
	*c.CurrentSessionStart = at(12, 0, 0)
	c.Screenshots = append(c.Screenshots, ScreenshotRecord{Path: "x.png"})

	assert.Equal(t, at(9, 5, 0), *l.IdlePeriods[0].Returned)
	assert.Equal(t, at(9, 5, 0), *l.CurrentSessionStart)
	assert.Empty(t, l.Screenshots)
}

func TestSummarizeDay(t *testing.T) {
	l := NewDailyLog(Date{2026, time.March, 2})
	l.WorkSeconds = 100
	l.SuspiciousSeconds = 40
	l.Screenshots = append(l.Screenshots, ScreenshotRecord{Path: "a.png"})

	s := SummarizeDay(l)
	assert.Equal(t, "Monday", s.DayName)
	assert.Equal(t, int64(60), s.RealWorkSeconds)
	assert.Equal(t, int64(1), s.ScreenshotCount)
}
