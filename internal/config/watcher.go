package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads the config file when it changes on disk. Valid configs are
// handed to onChange; invalid ones are logged and dropped, so the caller
// keeps running on its last-known-good config.
type Watcher struct {
	path     string
	onChange func(Config)
	debounce time.Duration
}

// NewWatcher creates a Watcher for the config file at path.
func NewWatcher(path string, onChange func(Config)) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: 200 * time.Millisecond,
	}
}

// Run watches until ctx is cancelled. The parent directory is watched
// because editors and atomic writers replace the file rather than modify it.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			w.reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("path", w.path).Msg("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Warn().Str("event", "config_invalid").Err(err).Str("path", w.path).
			Msg("ignoring invalid config, keeping last known good")
		return
	}
	log.Info().Str("event", "config_reloaded").Str("path", w.path).Msg("config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
