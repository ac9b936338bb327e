package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/username/timeviz/internal/chart"
	"github.com/username/timeviz/internal/table"
	"github.com/username/timeviz/pkg/timeparse"
	"go.uber.org/zap/zapcore"
)

// Config represents application configuration
type Config struct {
	Output   OutputConfig   `mapstructure:"output"`
	Display  DisplayConfig  `mapstructure:"display"`
	Generate GenerateConfig `mapstructure:"generate"`
	Log      LogConfig      `mapstructure:"log"`
}

// OutputConfig represents chart and table output destinations
type OutputConfig struct {
	Path string `mapstructure:"path"` // chart artifact destination
	Tee  string `mapstructure:"tee"`  // optional file mirroring the table dump
}

// DisplayConfig represents the default chart panels
type DisplayConfig struct {
	Panels []PanelConfig `mapstructure:"panels"`
}

// PanelConfig represents a single chart panel
type PanelConfig struct {
	Category string `mapstructure:"category"`
	Kind     string `mapstructure:"kind"`
	Title    string `mapstructure:"title"`
}

// GenerateConfig represents periodic timestamp generation defaults
type GenerateConfig struct {
	Start string `mapstructure:"start"`
	Count int    `mapstructure:"count"`
	Step  string `mapstructure:"step"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from file. An explicitly given path must exist;
// without one the default search paths are tried and built-in defaults apply
// when no file is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("output.path", "timeviz.svg")
	v.SetDefault("output.tee", "")
	v.SetDefault("display.panels", defaultPanels())
	v.SetDefault("generate.start", "2025-09-16 02:35:00")
	v.SetDefault("generate.count", 15)
	v.SetDefault("generate.step", "14h")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("timeviz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.timeviz")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// defaultPanels returns the built-in weekday distribution panels.
func defaultPanels() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"category": table.ColWeekdayName,
			"kind":     string(chart.KindBar),
			"title":    "Activity Count by Day of Week",
		},
		{
			"category": table.ColWeekdayName,
			"kind":     string(chart.KindPie),
			"title":    "Days of the week",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}

	if len(c.Display.Panels) == 0 {
		return fmt.Errorf("display.panels must define at least one panel")
	}
	for i, p := range c.Display.Panels {
		if p.Category == "" {
			return fmt.Errorf("display.panels[%d].category is required", i)
		}
		if _, err := chart.ParseKind(p.Kind); err != nil {
			return fmt.Errorf("display.panels[%d]: %w", i, err)
		}
	}

	if c.Generate.Count <= 0 {
		return fmt.Errorf("generate.count must be positive")
	}
	if _, err := timeparse.Parse(c.Generate.Start); err != nil {
		return fmt.Errorf("generate.start: %w", err)
	}
	if _, err := timeparse.Step(c.Generate.Step); err != nil {
		return fmt.Errorf("generate.step: %w", err)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// GetStep returns the generation step duration.
func (c *GenerateConfig) GetStep() (time.Duration, error) {
	return timeparse.Step(c.Step)
}

// ChartPanels converts the configured panels into chart panels.
func (c *Config) ChartPanels() []chart.Panel {
	panels := make([]chart.Panel, len(c.Display.Panels))
	for i, p := range c.Display.Panels {
		panels[i] = chart.Panel{Category: p.Category, Kind: p.Kind, Title: p.Title}
	}
	return panels
}
