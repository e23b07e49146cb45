package testutil

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/vigil/internal/codec"
	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/repository"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Day returns the calendar date for y-m-d.
func Day(y int, m time.Month, d int) domain.Date {
	return domain.Date{Year: y, Month: m, Day: d}
}

// Clock returns a fixed instant on date in UTC.
func Clock(date domain.Date, hour, minute, sec int) time.Time {
	return time.Date(date.Year, date.Month, date.Day, hour, minute, sec, 0, time.UTC)
}

// NewFileRepo returns a file-backed store in a fresh temp directory.
func NewFileRepo(t *testing.T) *repository.FileDailyLogRepo {
	t.Helper()
	return repository.NewFileDailyLogRepo(t.TempDir(), codec.Base64{})
}

// NewSQLiteRepo returns a store on an in-memory SQLite database.
func NewSQLiteRepo(t *testing.T) *repository.SQLiteDailyLogRepo {
	t.Helper()
	return repository.NewSQLiteDailyLogRepo(NewTestDB(t), codec.Base64{})
}

// LogOption mutates a fixture DailyLog.
type LogOption func(*domain.DailyLog)

func WithWork(work, suspicious int64) LogOption {
	return func(l *domain.DailyLog) {
		l.WorkSeconds = work
		l.SuspiciousSeconds = suspicious
	}
}

func WithIdle(idle int64) LogOption {
	return func(l *domain.DailyLog) {
		l.IdleSeconds = idle
	}
}

func WithCounts(keystrokes, windowChanges int64) LogOption {
	return func(l *domain.DailyLog) {
		l.KeyboardActivityCount = keystrokes
		l.WindowChangeCount = windowChanges
	}
}

// NewTestLog builds a DailyLog for date.
func NewTestLog(date domain.Date, opts ...LogOption) *domain.DailyLog {
	l := domain.NewDailyLog(date)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SeedDay stores a fixture log and fails the test on error.
func SeedDay(t *testing.T, repo repository.DailyLogRepo, date domain.Date, opts ...LogOption) *domain.DailyLog {
	t.Helper()
	l := NewTestLog(date, opts...)
	if err := repo.Save(context.Background(), l); err != nil {
		t.Fatalf("seeding %s: %v", date, err)
	}
	return l
}

// TestConfig returns defaults rooted in a temp directory, with the
// anomaly detector off unless a test turns it on.
func TestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.AntiCheat.Enabled = false
	return cfg
}

// CaptureLog routes the global zerolog logger into a buffer for the rest of
// the test. Tests using it must not run in parallel.
func CaptureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}
