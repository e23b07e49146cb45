package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/monitor"
	"github.com/alexanderramin/vigil/internal/testutil"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var today = testutil.Day(2026, time.January, 14)

type fakeReader struct {
	*monitor.Service
	health   monitor.Health
	notifier *monitor.Notifier
}

func (f *fakeReader) Health() monitor.Health { return f.health }

func (f *fakeReader) Subscribe() (<-chan struct{}, func()) { return f.notifier.Subscribe() }

func newTestServer(t *testing.T) (*httptest.Server, *fakeReader) {
	t.Helper()
	repo := testutil.NewFileRepo(t)
	monday := testutil.Day(2026, time.January, 12)
	testutil.SeedDay(t, repo, monday, testutil.WithWork(28800, 600))
	testutil.SeedDay(t, repo, today, testutil.WithWork(3600, 0), testutil.WithIdle(120))

	reader := &fakeReader{
		Service:  monitor.NewService(testutil.TestConfig(t), repo, nil),
		health:   monitor.Health{Status: monitor.HealthOK},
		notifier: monitor.NewNotifier(),
	}
	srv := NewServer(reader, WithClock(func() time.Time { return testutil.Clock(today, 12, 0, 0) }))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, reader
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	return resp.StatusCode
}

func TestActivityToday(t *testing.T) {
	ts, _ := newTestServer(t)

	var l domain.DailyLog
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/activity/today", &l))
	assert.Equal(t, today, l.Date)
	assert.Equal(t, int64(3600), l.WorkSeconds)
	assert.Equal(t, int64(120), l.IdleSeconds)
}

func TestActivityDate(t *testing.T) {
	ts, _ := newTestServer(t)

	var l domain.DailyLog
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/activity/date/2026-01-10", &l))
	assert.Equal(t, testutil.Day(2026, time.January, 10), l.Date)
	assert.Zero(t, l.WorkSeconds)
	assert.NotNil(t, l.Sessions)

	var e errorResponse
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/activity/date/2026-13-40", &e))
	assert.NotEmpty(t, e.Error)
}

func TestActivityWeek(t *testing.T) {
	ts, _ := newTestServer(t)

	var sum domain.DateRangeSummary
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/activity/week", &sum))
	assert.Equal(t, testutil.Day(2026, time.January, 12), sum.Start)
	assert.Equal(t, today, sum.End)
	assert.Equal(t, int64(3), sum.Days)
	assert.Equal(t, int64(2), sum.DaysWorked)
	assert.Equal(t, int64(32400), sum.TotalWorkSeconds)
	assert.Equal(t, int64(31800), sum.TotalRealWorkSeconds)
	assert.InDelta(t, 10800.0, sum.AverageWorkPerDay, 1e-9)
	require.Len(t, sum.DailyBreakdown, 3)
	assert.Equal(t, "Monday", sum.DailyBreakdown[0].DayName)
}

func TestActivityMonthAndYear(t *testing.T) {
	ts, _ := newTestServer(t)

	var month, year domain.DateRangeSummary
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/activity/month", &month))
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/activity/year", &year))
	assert.Equal(t, testutil.Day(2026, time.January, 1), month.Start)
	assert.Equal(t, int64(14), month.Days)
	assert.Equal(t, month.TotalWorkSeconds, year.TotalWorkSeconds)
}

func TestActivityRange(t *testing.T) {
	ts, _ := newTestServer(t)

	var sum domain.DateRangeSummary
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/activity/range?start=2026-01-12&end=2026-01-12", &sum))
	assert.Equal(t, int64(28800), sum.TotalWorkSeconds)

	tests := []struct {
		name  string
		query string
	}{
		{"missing start", "?end=2026-01-12"},
		{"bad end", "?start=2026-01-12&end=soon"},
		{"reversed", "?start=2026-01-14&end=2026-01-12"},
		{"whole calendar", "?start=0001-01-01&end=9999-12-31"},
		{"just over the limit", "?start=2020-01-01&end=2025-01-04"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e errorResponse
			assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/activity/range"+tt.query, &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestUnknownPeriod(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/activity/decade")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts, reader := newTestServer(t)

	var h monitor.Health
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", &h))
	assert.Equal(t, monitor.HealthOK, h.Status)

	reader.health = monitor.Health{Status: monitor.HealthDegraded, ConsecutiveWriteFailures: 4}
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/health", &h))
	assert.Equal(t, monitor.HealthDegraded, h.Status)
	assert.Equal(t, 4, h.ConsecutiveWriteFailures)
}

func TestConfig(t *testing.T) {
	ts, _ := newTestServer(t)

	var raw map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/config", &raw))
	assert.EqualValues(t, 300, raw["idle_threshold_seconds"])
	assert.EqualValues(t, 180, raw["screenshot_interval_seconds"])
	assert.Contains(t, raw, "office_hours")
	assert.NotContains(t, raw, "data_dir")
}

func TestWebSocketPushesChanges(t *testing.T) {
	ts, reader := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(context.Background(), url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msgs := make(chan changeMessage, 4)
	go func() {
		for {
			var m changeMessage
			if err := conn.ReadJSON(&m); err != nil {
				close(msgs)
				return
			}
			msgs <- m
		}
	}()

	// The handler subscribes after the upgrade; keep poking until it has.
	var got changeMessage
	require.Eventually(t, func() bool {
		reader.notifier.Notify()
		select {
		case got = <-msgs:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "changed", got.Type)
}
