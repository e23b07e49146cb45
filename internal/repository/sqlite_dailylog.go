package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/vigil/internal/codec"
	"github.com/alexanderramin/vigil/internal/db"
	"github.com/alexanderramin/vigil/internal/domain"
)

// SQLiteDailyLogRepo implements DailyLogRepo on the daily_logs table. Each
// row keeps the name of the codec that produced it, so rows written before a
// codec switch stay readable.
type SQLiteDailyLogRepo struct {
	db    db.DBTX
	uow   db.UnitOfWork
	codec codec.Codec
}

// NewSQLiteDailyLogRepo creates a new SQLiteDailyLogRepo. Over a *sql.DB,
// SaveAll runs in one transaction; over anything else (a *sql.Tx, a test
// wrapper) it writes through conn as is.
func NewSQLiteDailyLogRepo(conn db.DBTX, c codec.Codec) *SQLiteDailyLogRepo {
	r := &SQLiteDailyLogRepo{db: conn, codec: c}
	if sqlDB, ok := conn.(*sql.DB); ok {
		r.uow = db.NewSQLiteUnitOfWork(sqlDB)
	}
	return r
}

func (r *SQLiteDailyLogRepo) Load(ctx context.Context, date domain.Date) (*domain.DailyLog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT payload, codec FROM daily_logs WHERE date = ?`, date.String())

	var payload []byte
	var codecName string
	if err := row.Scan(&payload, &codecName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewDailyLog(date), nil
		}
		return nil, fmt.Errorf("scanning daily log %s: %w", date, err)
	}

	c := r.codec
	if codecName != c.Name() {
		stored, err := codec.ByName(codecName)
		if err != nil {
			return decodeOrFresh(failingCodec{name: codecName, err: err}, date, "daily_logs", payload), nil
		}
		c = stored
	}
	return decodeOrFresh(c, date, "daily_logs", payload), nil
}

func (r *SQLiteDailyLogRepo) Save(ctx context.Context, l *domain.DailyLog) error {
	if l.Date.IsZero() {
		return fmt.Errorf("%w: daily log has no date", ErrWriteFailed)
	}
	payload, err := codec.MarshalDailyLog(r.codec, l)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrWriteFailed, l.Date, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO daily_logs (date, payload, codec, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			payload = excluded.payload,
			codec = excluded.codec,
			updated_at = excluded.updated_at`,
		l.Date.String(), payload, r.codec.Name(), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: upserting %s: %v", ErrWriteFailed, l.Date, err)
	}
	return nil
}

func (r *SQLiteDailyLogRepo) SaveAll(ctx context.Context, logs ...*domain.DailyLog) error {
	if r.uow == nil {
		return saveEach(ctx, r, logs)
	}
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return saveEach(ctx, &SQLiteDailyLogRepo{db: tx, codec: r.codec}, logs)
	})
	if err != nil && !errors.Is(err, ErrWriteFailed) {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return err
}

func (r *SQLiteDailyLogRepo) ListDates(ctx context.Context) ([]domain.Date, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date FROM daily_logs ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("listing daily logs: %w", err)
	}
	defer rows.Close()

	var dates []domain.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning daily log date: %w", err)
		}
		d, err := domain.ParseDate(s)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *SQLiteDailyLogRepo) DeleteBefore(ctx context.Context, cutoff domain.Date) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_logs WHERE date < ?`, cutoff.String())
	if err != nil {
		return 0, fmt.Errorf("deleting daily logs before %s: %w", cutoff, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted daily logs: %w", err)
	}
	return int(n), nil
}

// failingCodec reports a row written with a codec this build does not know.
type failingCodec struct {
	name string
	err  error
}

func (f failingCodec) Name() string                  { return f.name }
func (f failingCodec) Encode([]byte) ([]byte, error) { return nil, f.err }
func (f failingCodec) Decode([]byte) ([]byte, error) { return nil, f.err }
