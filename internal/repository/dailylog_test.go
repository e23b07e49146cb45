package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/vigil/internal/codec"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/repository"
	"github.com/alexanderramin/vigil/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan10 = testutil.Day(2026, time.January, 10)

func stores(t *testing.T) map[string]repository.DailyLogRepo {
	return map[string]repository.DailyLogRepo{
		"file":   testutil.NewFileRepo(t),
		"sqlite": testutil.NewSQLiteRepo(t),
	}
}

func populated(date domain.Date) *domain.DailyLog {
	l := testutil.NewTestLog(date, testutil.WithWork(3600, 45), testutil.WithIdle(300), testutil.WithCounts(120, 9))
	start := testutil.Clock(date, 9, 0, 0)
	end := testutil.Clock(date, 10, 0, 0)
	back := testutil.Clock(date, 10, 5, 0)
	l.Sessions = append(l.Sessions, domain.Session{Start: start, End: &end, DurationSeconds: 3600})
	l.IdlePeriods = append(l.IdlePeriods, domain.IdlePeriod{Left: end, Returned: &back, DurationSeconds: 300})
	l.SuspiciousEvents = append(l.SuspiciousEvents, domain.SuspiciousEvent{Time: start, DurationSeconds: 45, Reason: domain.ReasonJitterPattern})
	l.Screenshots = append(l.Screenshots, domain.ScreenshotRecord{Time: start, Path: "/s/1.png", Suspicious: true})
	l.CurrentSessionStart = &back
	l.LastTickAt = &back
	return l
}

func TestDailyLogRepo_MissingDayIsEmpty(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			l, err := repo.Load(context.Background(), jan10)
			require.NoError(t, err)
			assert.Equal(t, domain.NewDailyLog(jan10), l)
		})
	}
}

func TestDailyLogRepo_SaveLoad(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := populated(jan10)
			require.NoError(t, repo.Save(ctx, want))

			got, err := repo.Load(ctx, jan10)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			want.WorkSeconds++
			require.NoError(t, repo.Save(ctx, want))
			got, err = repo.Load(ctx, jan10)
			require.NoError(t, err)
			assert.Equal(t, int64(3601), got.WorkSeconds)
		})
	}
}

func TestDailyLogRepo_ListAndDeleteBefore(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, d := range []int{12, 3, 7, 10} {
				testutil.SeedDay(t, repo, testutil.Day(2026, time.January, d))
			}
			dates, err := repo.ListDates(ctx)
			require.NoError(t, err)
			assert.Equal(t, []domain.Date{
				testutil.Day(2026, time.January, 3),
				testutil.Day(2026, time.January, 7),
				testutil.Day(2026, time.January, 10),
				testutil.Day(2026, time.January, 12),
			}, dates)

			n, err := repo.DeleteBefore(ctx, jan10)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			dates, err = repo.ListDates(ctx)
			require.NoError(t, err)
			assert.Equal(t, []domain.Date{jan10, testutil.Day(2026, time.January, 12)}, dates)
		})
	}
}

func TestDailyLogRepo_SaveAll(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jan11 := jan10.AddDays(1)
			require.NoError(t, repo.SaveAll(ctx, populated(jan10), populated(jan11)))

			dates, err := repo.ListDates(ctx)
			require.NoError(t, err)
			assert.Equal(t, []domain.Date{jan10, jan11}, dates)

			got, err := repo.Load(ctx, jan11)
			require.NoError(t, err)
			assert.Equal(t, populated(jan11), got)
		})
	}
}

func TestDailyLogRepo_SaveWithoutDateFails(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := repo.Save(context.Background(), &domain.DailyLog{})
			assert.ErrorIs(t, err, repository.ErrWriteFailed)
		})
	}
}

// A corrupted file reads as an empty day, logs a warning and stays on disk
// byte for byte.
func TestFileDailyLogRepo_CorruptFileIsPreserved(t *testing.T) {
	buf := testutil.CaptureLog(t)
	dir := t.TempDir()
	repo := repository.NewFileDailyLogRepo(dir, codec.Base64{})
	path := repo.Path(jan10)
	garbage := []byte("\x00\x01 this is not a daily log")
	require.NoError(t, os.WriteFile(path, garbage, 0o600))

	l, err := repo.Load(context.Background(), jan10)
	require.NoError(t, err)
	assert.Equal(t, domain.NewDailyLog(jan10), l)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, garbage, after)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "storage_corruption")
	assert.Contains(t, out, "2026-01-10")
}

func TestFileDailyLogRepo_RecordForOtherDateIsCorrupt(t *testing.T) {
	testutil.CaptureLog(t)
	repo := testutil.NewFileRepo(t)
	other := populated(testutil.Day(2026, time.January, 11))
	data, err := codec.MarshalDailyLog(codec.Base64{}, other)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(repo.Path(jan10), data, 0o600))

	l, err := repo.Load(context.Background(), jan10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), l.WorkSeconds)
}

func TestFileDailyLogRepo_ListIgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	repo := repository.NewFileDailyLogRepo(dir, codec.Plain{})
	testutil.SeedDay(t, repo, jan10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-13-40.dat"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "2026-01-11.dat"), 0o700))

	dates, err := repo.ListDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Date{jan10}, dates)
}

func TestFileDailyLogRepo_ListMissingDir(t *testing.T) {
	repo := repository.NewFileDailyLogRepo(filepath.Join(t.TempDir(), "absent"), codec.Plain{})
	dates, err := repo.ListDates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestFileDailyLogRepo_UnwritableDirFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	repo := repository.NewFileDailyLogRepo(dir, codec.Plain{})
	err := repo.Save(context.Background(), populated(jan10))
	assert.ErrorIs(t, err, repository.ErrWriteFailed)
}

// Readers running alongside the writer must only ever see complete logs.
func TestFileDailyLogRepo_ConcurrentReadersSeeWholeLogs(t *testing.T) {
	testutil.CaptureLog(t)
	repo := testutil.NewFileRepo(t)
	ctx := context.Background()
	l := populated(jan10)
	require.NoError(t, repo.Save(ctx, l))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, err := repo.Load(ctx, jan10)
				if err != nil {
					errs <- err
					return
				}
				if got.WorkSeconds < 3600 {
					errs <- errors.New("reader saw an empty or partial log")
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		l.WorkSeconds++
		require.NoError(t, repo.Save(ctx, l))
	}
	close(stop)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestSQLiteDailyLogRepo_WriteFailure(t *testing.T) {
	conn := &testutil.FailingExecDB{DBTX: testutil.NewTestDB(t), Err: errors.New("disk I/O error")}
	repo := repository.NewSQLiteDailyLogRepo(conn, codec.Base64{})
	ctx := context.Background()

	conn.FailNext(1)
	err := repo.Save(ctx, populated(jan10))
	require.ErrorIs(t, err, repository.ErrWriteFailed)
	assert.True(t, strings.Contains(err.Error(), "disk I/O error"))

	require.NoError(t, repo.Save(ctx, populated(jan10)))
}

// Rows written before a codec switch keep decoding with the codec recorded
// alongside them.
func TestSQLiteDailyLogRepo_ReadsRowsFromEarlierCodec(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	want := populated(jan10)

	require.NoError(t, repository.NewSQLiteDailyLogRepo(database, codec.Plain{}).Save(ctx, want))

	got, err := repository.NewSQLiteDailyLogRepo(database, codec.Base64{}).Load(ctx, jan10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteDailyLogRepo_CorruptPayload(t *testing.T) {
	buf := testutil.CaptureLog(t)
	database := testutil.NewTestDB(t)
	_, err := database.Exec(`INSERT INTO daily_logs (date, payload, codec, updated_at) VALUES (?, ?, 'base64', 'x')`,
		jan10.String(), []byte("!!!"))
	require.NoError(t, err)

	l, err := repository.NewSQLiteDailyLogRepo(database, codec.Base64{}).Load(context.Background(), jan10)
	require.NoError(t, err)
	assert.Equal(t, domain.NewDailyLog(jan10), l)
	assert.Contains(t, buf.String(), "storage_corruption")
}

// A rolled-over day and the new day are written in one transaction: when
// one of them cannot be stored, neither is.
func TestSQLiteDailyLogRepo_SaveAllIsAtomic(t *testing.T) {
	repo := testutil.NewSQLiteRepo(t)
	ctx := context.Background()

	err := repo.SaveAll(ctx, populated(jan10), &domain.DailyLog{})
	require.ErrorIs(t, err, repository.ErrWriteFailed)

	dates, err := repo.ListDates(ctx)
	require.NoError(t, err)
	assert.Empty(t, dates)

	l, err := repo.Load(ctx, jan10)
	require.NoError(t, err)
	assert.Equal(t, domain.NewDailyLog(jan10), l)
}

func TestSQLiteDailyLogRepo_SaveAllWriteFailure(t *testing.T) {
	conn := &testutil.FailingExecDB{DBTX: testutil.NewTestDB(t), Err: errors.New("disk I/O error")}
	repo := repository.NewSQLiteDailyLogRepo(conn, codec.Base64{})
	ctx := context.Background()

	conn.FailNext(1)
	err := repo.SaveAll(ctx, populated(jan10), populated(jan10.AddDays(1)))
	require.ErrorIs(t, err, repository.ErrWriteFailed)

	require.NoError(t, repo.SaveAll(ctx, populated(jan10), populated(jan10.AddDays(1))))
	dates, err := repo.ListDates(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
}
