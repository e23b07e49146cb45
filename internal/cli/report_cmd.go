package cli

import (
	"fmt"

	"github.com/alexanderramin/vigil/internal/aggregate"
	"github.com/alexanderramin/vigil/internal/cli/formatter"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newDayCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Show the activity log of one day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}
			date := app.Today()
			if len(args) == 1 {
				d, err := domain.ParseDate(args[0])
				if err != nil {
					return err
				}
				date = d
			}
			l, err := app.Repo.Load(cmd.Context(), date)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(app, l)
			}
			fmt.Fprintln(app.Out, formatter.FormatDay(l))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw daily log as JSON")
	return cmd
}

func newPeriodCmd(app *App, period, short string) *cobra.Command {
	var asJSON bool
	var ref domain.Date

	cmd := &cobra.Command{
		Use:   period,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.load(); err != nil {
				return err
			}
			p, err := aggregate.ParsePeriod(period)
			if err != nil {
				return err
			}
			today := app.Today()
			at := today
			if !ref.IsZero() {
				at = ref
			}
			start, end := aggregate.Bounds(p, at, today)
			return summarize(cmd, app, period, start, end, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	cmd.Flags().Var(newDateValue(&ref), "date", "Any date inside the period to report (YYYY-MM-DD)")
	return cmd
}

func newRangeCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "range START END",
		Short: "Summarize an inclusive date range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}
			start, err := domain.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := domain.ParseDate(args[1])
			if err != nil {
				return err
			}
			return summarize(cmd, app, "range", start, end, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func summarize(cmd *cobra.Command, app *App, title string, start, end domain.Date, asJSON bool) error {
	sum, err := aggregate.NewEngine(app.Repo).Summarize(cmd.Context(), start, end)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(app, sum)
	}
	fmt.Fprintln(app.Out, formatter.FormatSummary(title, sum))
	return nil
}

func writeJSON(app *App, v any) error {
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
