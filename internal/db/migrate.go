package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS daily_logs (
		date       TEXT PRIMARY KEY
		           CHECK(length(date) = 10),
		payload    BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	// codec records how payload was encoded so a codec switch does not
	// strand older rows.
	`ALTER TABLE daily_logs ADD COLUMN codec TEXT NOT NULL DEFAULT 'base64'`,

	`CREATE INDEX IF NOT EXISTS idx_daily_logs_updated ON daily_logs(updated_at)`,
}
