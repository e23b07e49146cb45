package cli

import (
	"fmt"

	"github.com/alexanderramin/vigil/internal/monitor"
	"github.com/spf13/cobra"
)

func newPruneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete logs and screenshots older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.load(); err != nil {
				return err
			}
			if app.Config.ScreenshotRetentionDays <= 0 {
				fmt.Fprintln(app.Out, "Retention is disabled (screenshot_retention_days is 0).")
				return nil
			}
			res, err := monitor.Prune(cmd.Context(), app.Repo, app.Config, app.Today())
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Removed %d daily logs and %d screenshot directories before %s.\n",
				res.LogsRemoved, res.ScreenshotDirs, res.Cutoff)
			return nil
		},
	}
}
