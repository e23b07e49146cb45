// Package config loads, validates and persists the monitor's tunable
// parameters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alexanderramin/vigil/internal/fsutil"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	CodecBase64 = "base64"
	CodecPlain  = "plain"
)

// AntiCheat holds the anomaly-detection thresholds. They are policy, not
// mechanism: the detector reads them on every tick.
type AntiCheat struct {
	Enabled                  bool    `yaml:"enabled" json:"enabled"`
	JitterMinDurationSeconds int     `yaml:"jitter_min_duration_seconds" json:"jitter_min_duration_seconds"`
	JitterWindowSeconds      int     `yaml:"jitter_window_seconds" json:"jitter_window_seconds"`
	JitterMaxBoxPixels       float64 `yaml:"jitter_max_box_pixels" json:"jitter_max_box_pixels"`
	JitterMinSamples         int     `yaml:"jitter_min_samples" json:"jitter_min_samples"`
	MaxRegularity            float64 `yaml:"max_regularity" json:"max_regularity"`
	MinReversalRate          float64 `yaml:"min_reversal_rate" json:"min_reversal_rate"`
	KeyboardSilenceSeconds   int     `yaml:"keyboard_silence_seconds" json:"keyboard_silence_seconds"`
	WindowStaleSeconds       int     `yaml:"window_stale_seconds" json:"window_stale_seconds"`
}

type Storage struct {
	Backend          string `yaml:"backend" json:"backend"`
	Codec            string `yaml:"codec" json:"codec"`
	MaxWriteFailures int    `yaml:"max_write_failures" json:"max_write_failures"`
}

// Sensor names the external programs the command input source runs.
type Sensor struct {
	IdleCommand   string `yaml:"idle_command" json:"idle_command"`
	WindowCommand string `yaml:"window_command" json:"window_command"`
}

type API struct {
	Listen string `yaml:"listen" json:"listen"`
}

type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure" json:"insecure"`
}

// Config holds all tunable parameters of the monitor.
type Config struct {
	DataDir                   string      `yaml:"data_dir" json:"data_dir"`
	OfficeHours               OfficeHours `yaml:"office_hours" json:"office_hours"`
	IdleThresholdSeconds      int         `yaml:"idle_threshold_seconds" json:"idle_threshold_seconds"`
	WarningThresholdSeconds   int         `yaml:"warning_threshold_seconds" json:"warning_threshold_seconds"`
	ScreenshotIntervalSeconds int         `yaml:"screenshot_interval_seconds" json:"screenshot_interval_seconds"`
	ScreenshotRetentionDays   int         `yaml:"screenshot_retention_days" json:"screenshot_retention_days"`
	ScreenshotDir             string      `yaml:"screenshot_dir" json:"screenshot_dir"`
	ScreenshotCommand         string      `yaml:"screenshot_command" json:"screenshot_command"`
	ResumeGapSeconds          int         `yaml:"resume_gap_seconds" json:"resume_gap_seconds"`
	TrackOvertime             bool        `yaml:"track_overtime" json:"track_overtime"`
	AntiCheat                 AntiCheat   `yaml:"anti_cheat" json:"anti_cheat"`
	Sensor                    Sensor      `yaml:"sensor" json:"sensor"`
	Storage                   Storage     `yaml:"storage" json:"storage"`
	API                       API         `yaml:"api" json:"api"`
	Telemetry                 Telemetry   `yaml:"telemetry" json:"telemetry"`
}

// Snapshot is the read-only view of the active tuning parameters handed to
// collaborators.
type Snapshot struct {
	OfficeHours               OfficeHours `json:"office_hours"`
	ScreenshotIntervalSeconds int         `json:"screenshot_interval_seconds"`
	IdleThresholdSeconds      int         `json:"idle_threshold_seconds"`
	AntiCheatEnabled          bool        `json:"anti_cheat_enabled"`
}

// Default returns a Config with the documented defaults.
func Default() Config {
	return Config{
		DataDir:                   DefaultDataDir(),
		OfficeHours:               OfficeHours{Start: Clock(9, 0), End: Clock(17, 0)},
		IdleThresholdSeconds:      300,
		WarningThresholdSeconds:   360,
		ScreenshotIntervalSeconds: 180,
		ScreenshotRetentionDays:   14,
		ResumeGapSeconds:          300,
		AntiCheat: AntiCheat{
			Enabled:                  true,
			JitterMinDurationSeconds: 30,
			JitterWindowSeconds:      10,
			JitterMaxBoxPixels:       50,
			JitterMinSamples:         6,
			MaxRegularity:            0.85,
			MinReversalRate:          0.7,
			KeyboardSilenceSeconds:   300,
			WindowStaleSeconds:       600,
		},
		Sensor: Sensor{IdleCommand: "xprintidle"},
		Storage: Storage{
			Backend:          BackendFile,
			Codec:            CodecBase64,
			MaxWriteFailures: 60,
		},
	}
}

// DefaultDataDir returns $VIGIL_HOME or ~/.vigil.
func DefaultDataDir() string {
	if v := os.Getenv("VIGIL_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vigil"
	}
	return filepath.Join(home, ".vigil")
}

// DefaultPath returns the config file location inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

func (c Config) Snapshot() Snapshot {
	return Snapshot{
		OfficeHours:               c.OfficeHours,
		ScreenshotIntervalSeconds: c.ScreenshotIntervalSeconds,
		IdleThresholdSeconds:      c.IdleThresholdSeconds,
		AntiCheatEnabled:          c.AntiCheat.Enabled,
	}
}

func (c Config) IdleThreshold() time.Duration {
	return time.Duration(c.IdleThresholdSeconds) * time.Second
}

func (c Config) WarningThreshold() time.Duration {
	return time.Duration(c.WarningThresholdSeconds) * time.Second
}

func (c Config) ScreenshotInterval() time.Duration {
	return time.Duration(c.ScreenshotIntervalSeconds) * time.Second
}

func (c Config) ResumeGap() time.Duration {
	return time.Duration(c.ResumeGapSeconds) * time.Second
}

// LogDir is where daily log files live for the file backend.
func (c Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath is the SQLite database location for the sqlite backend.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "vigil.db")
}

// ScreenshotPath returns the configured screenshot directory, defaulting to
// a directory under DataDir.
func (c Config) ScreenshotPath() string {
	if c.ScreenshotDir != "" {
		return c.ScreenshotDir
	}
	return filepath.Join(c.DataDir, "screenshots")
}

// Validate rejects values the monitor cannot run with. Nothing is coerced.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalid)
	}
	if c.OfficeHours.Start < 0 || c.OfficeHours.End > Clock(24, 0) {
		return fmt.Errorf("%w: office hours out of range", ErrInvalid)
	}
	if c.OfficeHours.End <= c.OfficeHours.Start {
		return fmt.Errorf("%w: office hours end %s must be after start %s",
			ErrInvalid, c.OfficeHours.End, c.OfficeHours.Start)
	}
	if c.IdleThresholdSeconds <= 0 {
		return fmt.Errorf("%w: idle_threshold_seconds must be positive", ErrInvalid)
	}
	if c.WarningThresholdSeconds <= 0 {
		return fmt.Errorf("%w: warning_threshold_seconds must be positive", ErrInvalid)
	}
	if c.ScreenshotIntervalSeconds <= 0 {
		return fmt.Errorf("%w: screenshot_interval_seconds must be positive", ErrInvalid)
	}
	if c.ScreenshotRetentionDays < 0 {
		return fmt.Errorf("%w: screenshot_retention_days must not be negative", ErrInvalid)
	}
	if c.ResumeGapSeconds <= 0 {
		return fmt.Errorf("%w: resume_gap_seconds must be positive", ErrInvalid)
	}
	if err := c.AntiCheat.validate(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.Storage.Backend)
	}
	switch c.Storage.Codec {
	case CodecBase64, CodecPlain:
	default:
		return fmt.Errorf("%w: unknown storage codec %q", ErrInvalid, c.Storage.Codec)
	}
	if c.Storage.MaxWriteFailures < 1 {
		return fmt.Errorf("%w: storage.max_write_failures must be at least 1", ErrInvalid)
	}
	return nil
}

func (a AntiCheat) validate() error {
	switch {
	case a.JitterMinDurationSeconds <= 0:
		return fmt.Errorf("%w: anti_cheat.jitter_min_duration_seconds must be positive", ErrInvalid)
	case a.JitterWindowSeconds <= 0:
		return fmt.Errorf("%w: anti_cheat.jitter_window_seconds must be positive", ErrInvalid)
	case a.JitterMaxBoxPixels <= 0:
		return fmt.Errorf("%w: anti_cheat.jitter_max_box_pixels must be positive", ErrInvalid)
	case a.JitterMinSamples < 3:
		return fmt.Errorf("%w: anti_cheat.jitter_min_samples must be at least 3", ErrInvalid)
	case a.MaxRegularity <= 0 || a.MaxRegularity > 1:
		return fmt.Errorf("%w: anti_cheat.max_regularity must be in (0, 1]", ErrInvalid)
	case a.MinReversalRate <= 0 || a.MinReversalRate > 1:
		return fmt.Errorf("%w: anti_cheat.min_reversal_rate must be in (0, 1]", ErrInvalid)
	case a.KeyboardSilenceSeconds < 0:
		return fmt.Errorf("%w: anti_cheat.keyboard_silence_seconds must not be negative", ErrInvalid)
	case a.WindowStaleSeconds < 0:
		return fmt.Errorf("%w: anti_cheat.window_stale_seconds must not be negative", ErrInvalid)
	}
	return nil
}

// Load reads the YAML file at path over the defaults, applies VIGIL_*
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save validates cfg and writes it to path with an atomic replace.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("VIGIL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("VIGIL_OFFICE_START"); v != "" {
		t, err := ParseTimeOfDay(v)
		if err != nil {
			return fmt.Errorf("VIGIL_OFFICE_START: %w", err)
		}
		cfg.OfficeHours.Start = t
	}
	if v := os.Getenv("VIGIL_OFFICE_END"); v != "" {
		t, err := ParseTimeOfDay(v)
		if err != nil {
			return fmt.Errorf("VIGIL_OFFICE_END: %w", err)
		}
		cfg.OfficeHours.End = t
	}
	if err := envInt("VIGIL_IDLE_THRESHOLD_SECONDS", &cfg.IdleThresholdSeconds); err != nil {
		return err
	}
	if err := envInt("VIGIL_WARNING_THRESHOLD_SECONDS", &cfg.WarningThresholdSeconds); err != nil {
		return err
	}
	if err := envInt("VIGIL_SCREENSHOT_INTERVAL_SECONDS", &cfg.ScreenshotIntervalSeconds); err != nil {
		return err
	}
	if v := os.Getenv("VIGIL_ANTI_CHEAT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: VIGIL_ANTI_CHEAT_ENABLED=%q", ErrInvalid, v)
		}
		cfg.AntiCheat.Enabled = b
	}
	if v := os.Getenv("VIGIL_IDLE_COMMAND"); v != "" {
		cfg.Sensor.IdleCommand = v
	}
	if v := os.Getenv("VIGIL_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("VIGIL_API_LISTEN"); v != "" {
		cfg.API.Listen = v
	}
	if v := os.Getenv("VIGIL_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, name, v)
	}
	*dst = n
	return nil
}
