package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/vigil/internal/config"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the monitor configuration",
	}
	cmd.AddCommand(newConfigShowCmd(app), newConfigSetCmd(app), newConfigEditCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = app.Out.Write(out)
			return err
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "set KEY VALUE",
		Short:   "Set one configuration value, e.g. office_hours.start 08:30",
		Example: "  vigil config set idle_threshold_seconds 120\n  vigil config set anti_cheat.enabled false",
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return err
			}
			next, err := setKey(cfg, args[0], args[1])
			if err != nil {
				return err
			}
			if err := config.Save(app.ConfigPath, next); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

// setKey applies one dotted YAML key to cfg. Unknown keys are rejected.
func setKey(cfg config.Config, key, value string) (config.Config, error) {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return cfg, fmt.Errorf("%w: malformed key %q", config.ErrInvalid, key)
		}
	}

	node := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	for i := len(parts) - 1; i >= 0; i-- {
		node = &yaml.Node{
			Kind:    yaml.MappingNode,
			Content: []*yaml.Node{{Kind: yaml.ScalarNode, Value: parts[i]}, node},
		}
	}
	doc, err := yaml.Marshal(node)
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)
	next := cfg
	if err := dec.Decode(&next); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", config.ErrInvalid, key, err)
	}
	if err := next.Validate(); err != nil {
		return cfg, err
	}
	return next, nil
}

// configFormValues holds the editable fields as the strings huh edits.
type configFormValues struct {
	OfficeStart        string
	OfficeEnd          string
	IdleThreshold      string
	WarningThreshold   string
	ScreenshotInterval string
	RetentionDays      string
	AntiCheat          bool
	TrackOvertime      bool
}

func newConfigFormValues(cfg config.Config) *configFormValues {
	return &configFormValues{
		OfficeStart:        cfg.OfficeHours.Start.String(),
		OfficeEnd:          cfg.OfficeHours.End.String(),
		IdleThreshold:      strconv.Itoa(cfg.IdleThresholdSeconds),
		WarningThreshold:   strconv.Itoa(cfg.WarningThresholdSeconds),
		ScreenshotInterval: strconv.Itoa(cfg.ScreenshotIntervalSeconds),
		RetentionDays:      strconv.Itoa(cfg.ScreenshotRetentionDays),
		AntiCheat:          cfg.AntiCheat.Enabled,
		TrackOvertime:      cfg.TrackOvertime,
	}
}

// apply copies the form values onto cfg and validates the result.
func (v *configFormValues) apply(cfg config.Config) (config.Config, error) {
	start, err := config.ParseTimeOfDay(v.OfficeStart)
	if err != nil {
		return cfg, err
	}
	end, err := config.ParseTimeOfDay(v.OfficeEnd)
	if err != nil {
		return cfg, err
	}
	ints := []struct {
		s   string
		dst *int
	}{
		{v.IdleThreshold, &cfg.IdleThresholdSeconds},
		{v.WarningThreshold, &cfg.WarningThresholdSeconds},
		{v.ScreenshotInterval, &cfg.ScreenshotIntervalSeconds},
		{v.RetentionDays, &cfg.ScreenshotRetentionDays},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(f.s))
		if err != nil {
			return cfg, fmt.Errorf("%w: %q is not a number", config.ErrInvalid, f.s)
		}
		*f.dst = n
	}
	cfg.OfficeHours = config.OfficeHours{Start: start, End: end}
	cfg.AntiCheat.Enabled = v.AntiCheat
	cfg.TrackOvertime = v.TrackOvertime
	return cfg, cfg.Validate()
}

func configForm(v *configFormValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Office hours start (HH:MM)").Value(&v.OfficeStart).Validate(validateTimeOfDay),
			huh.NewInput().Title("Office hours end (HH:MM, 24:00 for midnight)").Value(&v.OfficeEnd).Validate(validateTimeOfDay),
			huh.NewInput().Title("Idle threshold (seconds)").Value(&v.IdleThreshold).Validate(validatePositiveInt),
			huh.NewInput().Title("Idle warning after (seconds)").Value(&v.WarningThreshold).Validate(validatePositiveInt),
		),
		huh.NewGroup(
			huh.NewInput().Title("Screenshot interval (seconds)").Value(&v.ScreenshotInterval).Validate(validatePositiveInt),
			huh.NewInput().Title("Keep logs and screenshots (days, 0 keeps forever)").Value(&v.RetentionDays).Validate(validateNonNegativeInt),
			huh.NewConfirm().Title("Detect synthetic input?").Value(&v.AntiCheat),
			huh.NewConfirm().Title("Count work after office hours as overtime?").Value(&v.TrackOvertime),
		),
	).WithTheme(vigilHuhTheme()).WithShowHelp(false)
}

func newConfigEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the main settings in an interactive form",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if !app.IsInteractive() {
				return errors.New("config edit needs a terminal; use 'vigil config set' instead")
			}
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return err
			}
			values := newConfigFormValues(cfg)
			if err := configForm(values).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
			next, err := values.apply(cfg)
			if err != nil {
				return err
			}
			if err := config.Save(app.ConfigPath, next); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Saved %s\n", app.ConfigPath)
			return nil
		},
	}
}
