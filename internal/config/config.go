package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"confcal/internal/grid"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// ViewConfig is one named view button of the grid.
type ViewConfig struct {
	// DurationDays is the view window width in days. Zero means
	// fit-to-content: the width is derived from the valid range and the
	// loaded program.
	DurationDays int `yaml:"duration_days" json:"duration_days"`
	// ButtonText is the label shown for this view in the UI.
	ButtonText string `yaml:"button_text" json:"button_text"`
}

// RangeConfig is the inclusive navigable date range, both ends "2006-01-02".
type RangeConfig struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// OriginTimezone is the IANA zone the program sheet's times are written
	// in (e.g. "America/New_York").
	OriginTimezone string `yaml:"origin_timezone" json:"origin_timezone"`

	// UserTimezone is the initial display zone. The web UI can switch it at
	// runtime.
	UserTimezone string `yaml:"user_timezone" json:"user_timezone"`

	// ProgramSheetURL is the published-CSV endpoint of the program sheet.
	ProgramSheetURL string `yaml:"program_sheet_url" json:"program_sheet_url"`

	// TypeColorsSheetURL is the published-CSV endpoint of the type→color
	// sheet. Optional; missing or unreachable degrades to the neutral color.
	TypeColorsSheetURL string `yaml:"type_colors_sheet_url" json:"type_colors_sheet_url"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic sheet refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// SlotMinTime/SlotMaxTime bound the visible hours of each day column,
	// "15:04"; "24:00" is end of day.
	SlotMinTime string `yaml:"slot_min_time" json:"slot_min_time"`
	SlotMaxTime string `yaml:"slot_max_time" json:"slot_max_time"`

	// AutoFitEvents tightens the slot window around the rendered events.
	AutoFitEvents bool `yaml:"auto_fit_events" json:"auto_fit_events"`

	// HourHeightPx is the rendered height of one hour.
	HourHeightPx float64 `yaml:"hour_height_px" json:"hour_height_px"`

	// ValidRange bounds navigation; empty falls back to the program span.
	ValidRange RangeConfig `yaml:"valid_range" json:"valid_range"`

	// Views maps view names to their definitions. Empty gets a one-day view.
	Views map[string]ViewConfig `yaml:"views" json:"views"`

	// InitialDate is the day the calendar opens on, "2006-01-02" in the
	// origin zone. Empty means today, clamped to the valid range.
	InitialDate string `yaml:"initial_date" json:"initial_date"`

	// InitialView names the view the calendar opens in.
	InitialView string `yaml:"initial_view" json:"initial_view"`

	// CacheDir holds the sheet fetch cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// PreviewPath, if non-empty, is where the rendered PNG snapshot is
	// written after each refresh.
	PreviewPath string `yaml:"preview_path" json:"preview_path"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:8080",
		OriginTimezone: "UTC",
		UserTimezone:   "UTC",
		RefreshCron:    "*/15 * * * *",
		SlotMinTime:    "00:00",
		SlotMaxTime:    "24:00",
		AutoFitEvents:  true,
		HourHeightPx:   60,
		Views: map[string]ViewConfig{
			"Day1": {DurationDays: 1, ButtonText: "1 Day"},
			"Full": {DurationDays: 0, ButtonText: "Full Program"},
		},
		InitialView: "Day1",
		CacheDir:    "./var/sheet-cache",
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.OriginTimezone == "" {
		c.OriginTimezone = "UTC"
	}
	if c.UserTimezone == "" {
		c.UserTimezone = c.OriginTimezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.SlotMinTime == "" {
		c.SlotMinTime = "00:00"
	}
	if c.SlotMaxTime == "" {
		c.SlotMaxTime = "24:00"
	}
	if c.HourHeightPx <= 0 {
		c.HourHeightPx = 60
	}
	if len(c.Views) == 0 {
		c.Views = map[string]ViewConfig{
			"Day1": {DurationDays: 1, ButtonText: "1 Day"},
		}
	}
	if _, ok := c.Views[c.InitialView]; !ok {
		c.InitialView = ""
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/sheet-cache"
	}
}

// GridOptions maps the configuration onto one calendar instance's options.
func (c *Config) GridOptions() grid.Options {
	views := make(map[string]grid.ViewDef, len(c.Views))
	for name, v := range c.Views {
		views[name] = grid.ViewDef{DurationDays: v.DurationDays, ButtonText: v.ButtonText}
	}
	return grid.Options{
		OriginZone:    c.OriginTimezone,
		UserZone:      c.UserTimezone,
		InitialDate:   c.InitialDate,
		InitialView:   c.InitialView,
		SlotMinTime:   c.SlotMinTime,
		SlotMaxTime:   c.SlotMaxTime,
		AutoFitEvents: c.AutoFitEvents,
		HourHeightPx:  c.HourHeightPx,
		ValidRange:    grid.DateRange{Start: c.ValidRange.Start, End: c.ValidRange.End},
		Views:         views,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".confcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
