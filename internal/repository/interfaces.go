package repository

import (
	"context"

	"github.com/alexanderramin/vigil/internal/domain"
)

// DailyLogRepo stores one DailyLog per calendar date.
//
// Load never fails for a missing or undecodable record: both yield a fresh
// DailyLog for the date. Errors are reserved for I/O failures that make the
// answer unknowable.
type DailyLogRepo interface {
	Load(ctx context.Context, date domain.Date) (*domain.DailyLog, error)
	Save(ctx context.Context, l *domain.DailyLog) error
	// SaveAll writes several logs, e.g. a rolled-over day with the new one.
	// Stores that support transactions write all of them or none.
	SaveAll(ctx context.Context, logs ...*domain.DailyLog) error
	ListDates(ctx context.Context) ([]domain.Date, error)
	DeleteBefore(ctx context.Context, cutoff domain.Date) (int, error)
}
