package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/username/timeviz/internal/chart"
)

func validConfig() *Config {
	return &Config{
		Output: OutputConfig{Path: "timeviz.svg"},
		Display: DisplayConfig{Panels: []PanelConfig{
			{Category: "weekday_name", Kind: "bar", Title: "Activity Count by Day of Week"},
		}},
		Generate: GenerateConfig{Start: "2025-09-16 02:35:00", Count: 15, Step: "14h"},
		Log:      LogConfig{Level: "info"},
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output.Path != "timeviz.svg" {
		t.Errorf("output.path = %q, want timeviz.svg", cfg.Output.Path)
	}
	if cfg.Generate.Start != "2025-09-16 02:35:00" {
		t.Errorf("generate.start = %q, want default start", cfg.Generate.Start)
	}
	if cfg.Generate.Count != 15 {
		t.Errorf("generate.count = %d, want 15", cfg.Generate.Count)
	}
	if cfg.Generate.Step != "14h" {
		t.Errorf("generate.step = %q, want 14h", cfg.Generate.Step)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want info", cfg.Log.Level)
	}

	wantPanels := []PanelConfig{
		{Category: "weekday_name", Kind: "bar", Title: "Activity Count by Day of Week"},
		{Category: "weekday_name", Kind: "pie", Title: "Days of the week"},
	}
	if diff := cmp.Diff(wantPanels, cfg.Display.Panels); diff != "" {
		t.Errorf("default panels mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeviz.yaml")
	content := `output:
  path: charts/report.svg
generate:
  start: "2024-01-01"
  count: 48
  step: 30m
display:
  panels:
    - category: hour
      kind: line
      title: Hourly activity
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output.Path != "charts/report.svg" {
		t.Errorf("output.path = %q, want charts/report.svg", cfg.Output.Path)
	}
	if cfg.Generate.Count != 48 {
		t.Errorf("generate.count = %d, want 48", cfg.Generate.Count)
	}
	if len(cfg.Display.Panels) != 1 || cfg.Display.Panels[0].Category != "hour" {
		t.Errorf("panels = %+v, want the hour panel from file", cfg.Display.Panels)
	}
	// Keys the file omits keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want default info", cfg.Log.Level)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for missing explicit config, got nil")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeviz.yaml")
	content := `display:
  panels:
    - category: weekday_name
      kind: triangle
      title: nope
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid panel kind, got nil")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output path", func(c *Config) { c.Output.Path = "" }},
		{"no panels", func(c *Config) { c.Display.Panels = nil }},
		{"panel without category", func(c *Config) { c.Display.Panels[0].Category = "" }},
		{"bad panel kind", func(c *Config) { c.Display.Panels[0].Kind = "triangle" }},
		{"zero count", func(c *Config) { c.Generate.Count = 0 }},
		{"negative count", func(c *Config) { c.Generate.Count = -1 }},
		{"bad start", func(c *Config) { c.Generate.Start = "whenever" }},
		{"bad step", func(c *Config) { c.Generate.Step = "fast" }},
		{"negative step", func(c *Config) { c.Generate.Step = "-4h" }},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestGetStep(t *testing.T) {
	cfg := GenerateConfig{Step: "14h"}

	step, err := cfg.GetStep()
	if err != nil {
		t.Fatalf("GetStep() error = %v", err)
	}
	if step != 14*time.Hour {
		t.Errorf("GetStep() = %v, want 14h", step)
	}
}

func TestChartPanels(t *testing.T) {
	cfg := validConfig()
	cfg.Display.Panels = append(cfg.Display.Panels, PanelConfig{
		Category: "weekday_name", Kind: "pie", Title: "Days of the week",
	})

	want := []chart.Panel{
		{Category: "weekday_name", Kind: "bar", Title: "Activity Count by Day of Week"},
		{Category: "weekday_name", Kind: "pie", Title: "Days of the week"},
	}
	if diff := cmp.Diff(want, cfg.ChartPanels()); diff != "" {
		t.Errorf("ChartPanels() mismatch (-want +got):\n%s", diff)
	}
}
