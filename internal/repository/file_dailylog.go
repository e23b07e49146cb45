package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alexanderramin/vigil/internal/codec"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/fsutil"
)

const logFileExt = ".dat"

// FileDailyLogRepo keeps each DailyLog in <dir>/<YYYY-MM-DD>.dat. Writes go
// through a temp file and rename, so a concurrent reader sees either the old
// or the new file in full.
type FileDailyLogRepo struct {
	dir   string
	codec codec.Codec
}

// NewFileDailyLogRepo creates a FileDailyLogRepo rooted at dir.
func NewFileDailyLogRepo(dir string, c codec.Codec) *FileDailyLogRepo {
	return &FileDailyLogRepo{dir: dir, codec: c}
}

// Path returns the file that holds date.
func (r *FileDailyLogRepo) Path(date domain.Date) string {
	return filepath.Join(r.dir, date.String()+logFileExt)
}

func (r *FileDailyLogRepo) Load(_ context.Context, date domain.Date) (*domain.DailyLog, error) {
	path := r.Path(date)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewDailyLog(date), nil
		}
		return nil, fmt.Errorf("reading daily log %s: %w", date, err)
	}
	return decodeOrFresh(r.codec, date, path, data), nil
}

func (r *FileDailyLogRepo) Save(_ context.Context, l *domain.DailyLog) error {
	if l.Date.IsZero() {
		return fmt.Errorf("%w: daily log has no date", ErrWriteFailed)
	}
	data, err := codec.MarshalDailyLog(r.codec, l)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrWriteFailed, l.Date, err)
	}
	if err := fsutil.WriteFileAtomic(r.Path(l.Date), data, 0o600); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, l.Date, err)
	}
	return nil
}

// ListDates returns the stored dates in ascending order. Files whose names
// are not a date are ignored.
// SaveAll replaces each file in turn. Every file is atomic on its own; a
// failure leaves the logs after it unwritten.
func (r *FileDailyLogRepo) SaveAll(ctx context.Context, logs ...*domain.DailyLog) error {
	return saveEach(ctx, r, logs)
}

func (r *FileDailyLogRepo) ListDates(_ context.Context) ([]domain.Date, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing daily logs: %w", err)
	}
	var dates []domain.Date
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(e.Name(), logFileExt)
		if !ok {
			continue
		}
		d, err := domain.ParseDate(name)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	slices.SortFunc(dates, compareDates)
	return dates, nil
}

// DeleteBefore removes every stored day strictly before cutoff.
func (r *FileDailyLogRepo) DeleteBefore(ctx context.Context, cutoff domain.Date) (int, error) {
	dates, err := r.ListDates(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, d := range dates {
		if !d.Before(cutoff) {
			break
		}
		if err := os.Remove(r.Path(d)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing daily log %s: %w", d, err)
		}
		removed++
	}
	return removed, nil
}

func compareDates(a, b domain.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
