package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/vigil/internal/api"
	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/monitor"
	"github.com/alexanderramin/vigil/internal/sensor"
	"github.com/alexanderramin/vigil/internal/telemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	replay string
	pace   time.Duration
	listen string
}

func newRunCmd(app *App) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the activity monitor in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.load(); err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				app.Config.API.Listen = opts.listen
			}
			return runMonitor(cmd.Context(), app, opts)
		},
	}
	cmd.Flags().StringVar(&opts.replay, "replay", "", "Drive the monitor from a recorded JSONL sample file instead of live input")
	cmd.Flags().DurationVar(&opts.pace, "pace", 0, "Delay between replayed ticks (0 replays as fast as possible)")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Serve the HTTP read interface on this address")
	return cmd
}

// runMonitor supervises the tick loop, the HTTP read interface and the
// config watcher. The first to fail stops the rest; the loop ending (a
// finished replay, or ctx cancelled) stops everything cleanly.
func runMonitor(ctx context.Context, app *App, opts runOptions) error {
	cfg := app.Config

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tel.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("flushing metrics")
		}
	}()
	metrics, err := monitor.NewMetricsObserver(tel.Meter())
	if err != nil {
		return err
	}

	var (
		source sensor.Source
		replay *sensor.ReplaySource
	)
	if opts.replay != "" {
		replay, err = sensor.OpenReplay(opts.replay)
		if err != nil {
			return err
		}
		replay.Pace = opts.pace
		source = replay
		log.Info().Str("event", "replay_loaded").Str("path", opts.replay).Int("ticks", replay.Len()).Msg("replaying recorded input")
	} else {
		source = sensor.NewCommandSource(cfg.Sensor.IdleCommand, cfg.Sensor.WindowCommand)
	}

	svcOpts := []monitor.Option{
		monitor.WithObservers(monitor.NewLogTickObserver(log.Logger), metrics),
	}
	if cfg.ScreenshotCommand != "" {
		svcOpts = append(svcOpts, monitor.WithCapturer(monitor.NewCommandCapturer(cfg.ScreenshotCommand, cfg.ScreenshotPath())))
	}
	svc := monitor.NewService(cfg, app.Repo, source, svcOpts...)

	if replay == nil {
		if _, err := monitor.Prune(ctx, app.Repo, cfg, app.Today()); err != nil {
			log.Warn().Err(err).Msg("retention pruning failed")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var ticks <-chan time.Time
	if replay != nil {
		ticks = replay.Ticks(gctx)
	} else {
		ticks = monitor.WallTicks(gctx, time.Second)
	}
	g.Go(func() error {
		defer cancel()
		return svc.Run(gctx, ticks)
	})

	if cfg.API.Listen != "" {
		server := api.NewServer(svc)
		g.Go(func() error {
			if err := server.ListenAndServe(gctx, cfg.API.Listen); err != nil {
				return fmt.Errorf("serving read interface: %w", err)
			}
			return nil
		})
	}

	if replay == nil {
		watcher := config.NewWatcher(app.ConfigPath, func(next config.Config) {
			// Storage location is fixed for the life of the process.
			next.DataDir, next.Storage = cfg.DataDir, cfg.Storage
			svc.SetConfig(next)
		})
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				log.Warn().Err(err).Msg("config hot reload unavailable")
			}
			return nil
		})
	}

	return g.Wait()
}
