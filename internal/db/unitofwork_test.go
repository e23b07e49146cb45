package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertDay(ctx context.Context, tx DBTX, date string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO daily_logs (date, payload, updated_at) VALUES (?, x'00', '2026-01-12T00:00:00Z')`, date)
	return err
}

func storedDays(t *testing.T, conn *sql.DB) []string {
	t.Helper()
	rows, err := conn.Query(`SELECT date FROM daily_logs ORDER BY date`)
	require.NoError(t, err)
	defer rows.Close()
	var days []string
	for rows.Next() {
		var d string
		require.NoError(t, rows.Scan(&d))
		days = append(days, d)
	}
	require.NoError(t, rows.Err())
	return days
}

func TestWithinTx_CommitsEveryWrite(t *testing.T) {
	conn := openTestDB(t)
	uow := NewSQLiteUnitOfWork(conn)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if err := insertDay(ctx, tx, "2026-01-11"); err != nil {
			return err
		}
		return insertDay(ctx, tx, "2026-01-12")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-11", "2026-01-12"}, storedDays(t, conn))
}

func TestWithinTx_ErrorDiscardsEarlierWrites(t *testing.T) {
	conn := openTestDB(t)
	uow := NewSQLiteUnitOfWork(conn)
	diskFull := errors.New("disk full")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if err := insertDay(ctx, tx, "2026-01-11"); err != nil {
			return err
		}
		return diskFull
	})
	require.ErrorIs(t, err, diskFull)
	assert.Empty(t, storedDays(t, conn))
}

func TestWithinTx_FailingStatementDiscardsEarlierWrites(t *testing.T) {
	conn := openTestDB(t)
	uow := NewSQLiteUnitOfWork(conn)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if err := insertDay(ctx, tx, "2026-01-11"); err != nil {
			return err
		}
		// Violates the date length check.
		return insertDay(ctx, tx, "jan 12")
	})
	require.Error(t, err)
	assert.Empty(t, storedDays(t, conn))
}

func TestWithinTx_PanicRollsBackAndRepanics(t *testing.T) {
	conn := openTestDB(t)
	uow := NewSQLiteUnitOfWork(conn)

	assert.PanicsWithValue(t, "boom", func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
			_ = insertDay(ctx, tx, "2026-01-11")
			panic("boom")
		})
	})
	assert.Empty(t, storedDays(t, conn))

	// The connection is usable again after the rollback.
	require.NoError(t, uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		return insertDay(ctx, tx, "2026-01-12")
	}))
	assert.Equal(t, []string{"2026-01-12"}, storedDays(t, conn))
}

func TestWithinTx_CanceledContextDoesNotBegin(t *testing.T) {
	conn := openTestDB(t)
	uow := NewSQLiteUnitOfWork(conn)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := uow.WithinTx(ctx, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}
