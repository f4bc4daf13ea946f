package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confcal", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	in := DefaultConfig()
	in.OriginTimezone = "America/New_York"
	in.ProgramSheetURL = "https://example.com/pub?output=csv"
	in.ValidRange = RangeConfig{Start: "2025-05-14", End: "2025-05-17"}
	in.Views = map[string]ViewConfig{"Day3": {DurationDays: 3, ButtonText: "3 Days"}}
	in.InitialView = "Day3"
	in.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if out.OriginTimezone != "America/New_York" {
		t.Errorf("OriginTimezone = %q", out.OriginTimezone)
	}
	if out.ValidRange.End != "2025-05-17" {
		t.Errorf("ValidRange.End = %q", out.ValidRange.End)
	}
	if v, ok := out.Views["Day3"]; !ok || v.DurationDays != 3 {
		t.Errorf("Views[Day3] = %+v", out.Views)
	}
	if out.BasicAuth == nil || out.BasicAuth.Username != "u" {
		t.Error("basic auth not round-tripped")
	}
}

func TestNormalize(t *testing.T) {
	cfg := &Config{InitialView: "missing"}
	cfg.Normalize()

	if cfg.UserTimezone != cfg.OriginTimezone {
		t.Errorf("UserTimezone = %q, want origin fallback", cfg.UserTimezone)
	}
	if cfg.SlotMinTime != "00:00" || cfg.SlotMaxTime != "24:00" {
		t.Errorf("slot window = %q..%q", cfg.SlotMinTime, cfg.SlotMaxTime)
	}
	if len(cfg.Views) == 0 {
		t.Error("no default view")
	}
	if cfg.InitialView != "" {
		t.Errorf("unknown InitialView kept: %q", cfg.InitialView)
	}
}

func TestGridOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ValidRange = RangeConfig{Start: "2025-05-14", End: "2025-05-17"}
	cfg.Views = map[string]ViewConfig{"Full": {DurationDays: 0, ButtonText: "Full"}}

	opts := cfg.GridOptions()
	if opts.ValidRange.Start != "2025-05-14" {
		t.Errorf("ValidRange.Start = %q", opts.ValidRange.Start)
	}
	if v, ok := opts.Views["Full"]; !ok || v.DurationDays != 0 {
		t.Errorf("Views = %+v", opts.Views)
	}
}
