package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/username/timeviz/internal/chart"
	"github.com/username/timeviz/internal/config"
	"github.com/username/timeviz/internal/source"
	"github.com/username/timeviz/internal/transform"
	"go.uber.org/zap"
)

// captureSink keeps the emitted chart in memory.
type captureSink struct {
	emitted [][]byte
}

func (s *captureSink) Emit(svg []byte) error {
	s.emitted = append(s.emitted, svg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Output: config.OutputConfig{Path: "timeviz.svg"},
		Display: config.DisplayConfig{Panels: []config.PanelConfig{
			{Category: "weekday_name", Kind: "bar", Title: "Activity Count by Day of Week"},
			{Category: "weekday_name", Kind: "pie", Title: "Days of the week"},
		}},
		Generate: config.GenerateConfig{Start: "2025-09-16 02:35:00", Count: 15, Step: "14h"},
		Log:      config.LogConfig{Level: "info"},
	}
}

func testRunner(cfg *config.Config, sink chart.Sink, out *bytes.Buffer) *Runner {
	logger, _ := zap.NewDevelopment()
	renderer := chart.NewRenderer(chart.DefaultTheme(), logger)
	return NewRunner(cfg, cfg.ChartPanels(), renderer, sink, out, logger)
}

func TestRunSynthetic(t *testing.T) {
	cfg := testConfig()
	sink := &captureSink{}
	var out bytes.Buffer

	if err := testRunner(cfg, sink, &out).RunSynthetic(); err != nil {
		t.Fatalf("RunSynthetic() error = %v", err)
	}

	dump := out.String()
	if !strings.Contains(dump, "weekday_name") {
		t.Errorf("table dump missing header:\n%s", dump)
	}
	if !strings.Contains(dump, "Tue") {
		t.Errorf("table dump missing first weekday Tue:\n%s", dump)
	}
	// Header plus one line per generated row.
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	if len(lines) != 16 {
		t.Errorf("table dump has %d lines, want 16:\n%s", len(lines), dump)
	}

	if len(sink.emitted) != 1 {
		t.Fatalf("sink received %d artifacts, want 1", len(sink.emitted))
	}
	svg := string(sink.emitted[0])
	if !strings.Contains(svg, `width="1000" height="400"`) {
		t.Errorf("chart missing two-panel dimensions:\n%.200s", svg)
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	content := "created_at\n2025-09-16 02:35:00\n2025-09-20 10:00:00\n2025-09-21 11:30:00\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	cfg := testConfig()
	sink := &captureSink{}
	var out bytes.Buffer

	if err := testRunner(cfg, sink, &out).RunFile(path); err != nil {
		t.Fatalf("RunFile() error = %v", err)
	}

	dump := out.String()
	if !strings.Contains(dump, "Sat") || !strings.Contains(dump, "Sun") {
		t.Errorf("table dump missing weekend rows:\n%s", dump)
	}
	if len(sink.emitted) != 1 {
		t.Errorf("sink received %d artifacts, want 1", len(sink.emitted))
	}
}

func TestRunFileNotFound(t *testing.T) {
	cfg := testConfig()
	sink := &captureSink{}
	var out bytes.Buffer

	err := testRunner(cfg, sink, &out).RunFile(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("RunFile() expected error, got nil")
	}
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("RunFile() error = %v, want ErrNotFound", err)
	}
	if len(sink.emitted) != 0 {
		t.Error("sink received an artifact despite load failure")
	}
}

func TestRunAbortsBeforeChartOnBadData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	content := "created_at\n2025-09-16\nnot-a-timestamp\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	cfg := testConfig()
	sink := &captureSink{}
	var out bytes.Buffer

	err := testRunner(cfg, sink, &out).RunFile(path)
	if err == nil {
		t.Fatal("RunFile() expected error, got nil")
	}

	var parseErr *transform.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("RunFile() error = %v, want ParseError", err)
	}
	if out.Len() != 0 {
		t.Errorf("table dump written despite parse failure:\n%s", out.String())
	}
	if len(sink.emitted) != 0 {
		t.Error("sink received an artifact despite parse failure")
	}
}

func TestRunSyntheticBadPanels(t *testing.T) {
	cfg := testConfig()
	cfg.Display.Panels = []config.PanelConfig{
		{Category: "weekday_name", Kind: "triangle", Title: "nope"},
	}
	sink := &captureSink{}
	var out bytes.Buffer

	err := testRunner(cfg, sink, &out).RunSynthetic()
	if err == nil {
		t.Fatal("RunSynthetic() expected error, got nil")
	}

	var invalid *chart.InvalidKindError
	if !errors.As(err, &invalid) {
		t.Errorf("RunSynthetic() error = %v, want InvalidKindError", err)
	}
	if len(sink.emitted) != 0 {
		t.Error("sink received an artifact despite invalid kind")
	}
}

func TestRunSyntheticBadGenerateConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Generate.Start = "not a time"
	sink := &captureSink{}
	var out bytes.Buffer

	err := testRunner(cfg, sink, &out).RunSynthetic()
	if err == nil {
		t.Fatal("RunSynthetic() expected error, got nil")
	}

	var genErr *source.GenerateError
	if !errors.As(err, &genErr) {
		t.Errorf("RunSynthetic() error = %v, want GenerateError", err)
	}
	if genErr != nil && genErr.Param != "start" {
		t.Errorf("GenerateError.Param = %q, want start", genErr.Param)
	}
}
