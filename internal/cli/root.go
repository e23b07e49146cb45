package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// App holds what the commands share: the loaded configuration, the daily
// log store, and the process environment. Tests fill Config and Repo
// directly; otherwise they are loaded on first use.
type App struct {
	ConfigPath string
	Config     config.Config
	Repo       repository.DailyLogRepo

	Now           func() time.Time
	Out           io.Writer
	IsInteractive func() bool

	loaded  bool
	closeDB func() error
}

// NewApp returns an App reading its config from the default location.
func NewApp() *App {
	return &App{
		ConfigPath:    config.DefaultPath(config.DefaultDataDir()),
		Now:           time.Now,
		Out:           os.Stdout,
		IsInteractive: func() bool { return false },
	}
}

// Today is the current calendar date in local time.
func (a *App) Today() domain.Date {
	return domain.DateOf(a.Now())
}

// load reads the config and opens the store once.
func (a *App) load() error {
	if a.loaded || a.Repo != nil {
		a.loaded = true
		return nil
	}
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	repo, closeDB, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	a.Config, a.Repo, a.closeDB = cfg, repo, closeDB
	a.loaded = true
	return nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.closeDB == nil {
		return nil
	}
	err := a.closeDB()
	a.closeDB = nil
	return err
}

// NewRootCmd creates the top-level "vigil" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "vigil",
		Short:         "Office-hours activity monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("log-level") {
				lvl, err := zerolog.ParseLevel(logLevel)
				if err != nil {
					return fmt.Errorf("invalid --log-level %q", logLevel)
				}
				zerolog.SetGlobalLevel(lvl)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&app.ConfigPath, "config", app.ConfigPath, "Path to the config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(app),
		newDayCmd(app),
		newPeriodCmd(app, "week", "Summarize the current week (Monday to today)"),
		newPeriodCmd(app, "month", "Summarize the current month"),
		newPeriodCmd(app, "year", "Summarize the current year"),
		newRangeCmd(app),
		newConfigCmd(app),
		newWatchCmd(app),
		newPruneCmd(app),
	)

	return root
}
