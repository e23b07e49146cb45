package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/vigil/internal/db"
)

// FailingExecDB wraps a DBTX and fails the next N ExecContext calls with
// Err. Reads pass through, so stores can be driven into write failures
// while their data stays readable.
type FailingExecDB struct {
	db.DBTX
	Err      error
	failures atomic.Int32
}

// FailNext makes the next n ExecContext calls fail.
func (f *FailingExecDB) FailNext(n int32) {
	f.failures.Store(n)
}

func (f *FailingExecDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	for {
		n := f.failures.Load()
		if n <= 0 {
			break
		}
		if f.failures.CompareAndSwap(n, n-1) {
			return nil, f.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
