package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/vigil/internal/codec"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/rs/zerolog/log"
)

func saveEach(ctx context.Context, repo DailyLogRepo, logs []*domain.DailyLog) error {
	for _, l := range logs {
		if err := repo.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// decodeOrFresh decodes data for date. A payload that cannot be decoded, or
// that belongs to another date, is reported as corruption and replaced by an
// empty log. The stored bytes are never touched here.
func decodeOrFresh(c codec.Codec, date domain.Date, where string, data []byte) *domain.DailyLog {
	l, err := codec.UnmarshalDailyLog(c, data)
	if err == nil && !l.Date.IsZero() && l.Date != date {
		err = errDateMismatch{stored: l.Date, want: date}
	}
	if err != nil {
		log.Warn().
			Str("event", "storage_corruption").
			Str("date", date.String()).
			Str("path", where).
			Err(err).
			Msg("daily log unreadable, using empty log")
		return domain.NewDailyLog(date)
	}
	l.Date = date
	normalize(l)
	return l
}

// normalize replaces nil sequences with empty ones so readers always see
// lists.
func normalize(l *domain.DailyLog) {
	if l.Sessions == nil {
		l.Sessions = []domain.Session{}
	}
	if l.IdlePeriods == nil {
		l.IdlePeriods = []domain.IdlePeriod{}
	}
	if l.SuspiciousEvents == nil {
		l.SuspiciousEvents = []domain.SuspiciousEvent{}
	}
	if l.Screenshots == nil {
		l.Screenshots = []domain.ScreenshotRecord{}
	}
}

type errDateMismatch struct {
	stored, want domain.Date
}

func (e errDateMismatch) Error() string {
	return "record holds " + e.stored.String() + ", expected " + e.want.String()
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
