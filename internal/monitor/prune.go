package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/repository"
	"github.com/rs/zerolog/log"
)

// PruneResult counts what Prune removed.
type PruneResult struct {
	Cutoff         domain.Date `json:"cutoff"`
	LogsRemoved    int         `json:"logs_removed"`
	ScreenshotDirs int         `json:"screenshot_dirs_removed"`
}

// Prune deletes daily logs and screenshot directories older than the
// retention window. The current day is never touched; a retention of zero
// disables pruning.
func Prune(ctx context.Context, repo repository.DailyLogRepo, cfg config.Config, today domain.Date) (PruneResult, error) {
	if cfg.ScreenshotRetentionDays <= 0 {
		return PruneResult{}, nil
	}
	cutoff := today.AddDays(-cfg.ScreenshotRetentionDays)
	res := PruneResult{Cutoff: cutoff}

	n, err := repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("pruning daily logs: %w", err)
	}
	res.LogsRemoved = n

	dirs, err := pruneScreenshotDirs(cfg.ScreenshotPath(), cutoff)
	res.ScreenshotDirs = dirs
	if err != nil {
		return res, err
	}
	log.Info().Str("event", "retention_pruned").
		Str("cutoff", cutoff.String()).
		Int("logs_removed", res.LogsRemoved).
		Int("screenshot_dirs_removed", res.ScreenshotDirs).
		Msg("old activity removed")
	return res, nil
}

// pruneScreenshotDirs removes the per-day directories CommandCapturer
// creates. Anything not named like a date is left alone.
func pruneScreenshotDirs(root string, cutoff domain.Date) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing screenshots: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := domain.ParseDate(e.Name())
		if err != nil || !d.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return removed, fmt.Errorf("removing screenshots for %s: %w", d, err)
		}
		removed++
	}
	return removed, nil
}
