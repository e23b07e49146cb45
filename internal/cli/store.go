package cli

import (
	"fmt"

	"github.com/alexanderramin/vigil/internal/codec"
	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/db"
	"github.com/alexanderramin/vigil/internal/repository"
)

// OpenStore opens the daily log store selected by cfg. The returned close
// function releases it.
func OpenStore(cfg config.Config) (repository.DailyLogRepo, func() error, error) {
	c, err := codec.ByName(cfg.Storage.Codec)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		database, err := db.OpenDB(cfg.DBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return repository.NewSQLiteDailyLogRepo(database, c), database.Close, nil
	default:
		return repository.NewFileDailyLogRepo(cfg.LogDir(), c), func() error { return nil }, nil
	}
}
