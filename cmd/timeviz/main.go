package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/username/timeviz/internal/chart"
	"github.com/username/timeviz/internal/config"
	"github.com/username/timeviz/internal/pipeline"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	logger     *zap.Logger
	outWriter  io.Writer = os.Stdout
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		filePath   string
		synthetic  bool
		start      string
		count      int
		step       string
		outPath    string
		panelsPath string
		categories []string
		kinds      []string
		titles     []string
		teeOutput  string
	)

	cmd := &cobra.Command{
		Use:   "timeviz",
		Short: "Calendar distribution charts from timestamp tables",
		Long: "Load a one-column timestamp table from CSV or generate a periodic one, " +
			"derive calendar fields and chart how activity distributes over them",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger() // Fallback to console
				}
			} else {
				initLogger() // Default console logger
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Flag overrides beat the config file.
			if cmd.Flags().Changed("start") {
				cfg.Generate.Start = start
			}
			if cmd.Flags().Changed("count") {
				cfg.Generate.Count = count
			}
			if cmd.Flags().Changed("step") {
				cfg.Generate.Step = step
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Path = outPath
			}
			if cmd.Flags().Changed("tee-output") {
				cfg.Output.Tee = teeOutput
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			outWriter = os.Stdout
			if cfg.Output.Tee != "" {
				if dir := filepath.Dir(cfg.Output.Tee); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("failed to create tee path: %w", err)
					}
				}
				f, err := os.OpenFile(cfg.Output.Tee, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
				if err != nil {
					return fmt.Errorf("failed to open tee-output file: %w", err)
				}
				defer f.Close()
				outWriter = io.MultiWriter(os.Stdout, f)
				logger.Info("Mirroring table output",
					zap.String("path", cfg.Output.Tee))
			}
			defer func() {
				outWriter = os.Stdout
			}()

			panels := cfg.ChartPanels()
			switch {
			case panelsPath != "":
				panels, err = chart.LoadPanels(panelsPath)
				if err != nil {
					return fmt.Errorf("failed to load panels: %w", err)
				}
			case len(categories) > 0:
				panels, err = chart.PanelsFromLists(categories, kinds, titles)
				if err != nil {
					return fmt.Errorf("failed to build panels: %w", err)
				}
			}

			renderer := chart.NewRenderer(chart.DefaultTheme(), logger)
			sink := chart.NewFileSink(cfg.Output.Path, logger)
			runner := pipeline.NewRunner(cfg, panels, renderer, sink, outWriter, logger)

			if filePath != "" {
				return runner.RunFile(filePath)
			}
			return runner.RunSynthetic()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	cmd.Flags().StringVar(&filePath, "file", "", "Load timestamps from a one-column CSV file")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "Generate a periodic timestamp table instead of loading a file")
	cmd.Flags().StringVar(&start, "start", "", "First synthetic timestamp (e.g. \"2025-09-16 02:35:00\")")
	cmd.Flags().IntVar(&count, "count", 0, "Number of synthetic timestamps")
	cmd.Flags().StringVar(&step, "step", "", "Spacing between synthetic timestamps (e.g. 14h, 2d, PT30M)")
	cmd.Flags().StringVar(&outPath, "out", "", "Chart output path")
	cmd.Flags().StringVar(&panelsPath, "panels", "", "YAML file with panel definitions, replaces configured panels")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category column to chart, repeatable")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Chart kind per category, repeatable")
	cmd.Flags().StringSliceVar(&titles, "title", nil, "Panel title per category, repeatable")
	cmd.Flags().StringVar(&teeOutput, "tee-output", "", "Mirror table output to file (empty to disable)")

	cmd.MarkFlagsMutuallyExclusive("file", "synthetic")
	cmd.MarkFlagsOneRequired("file", "synthetic")
	cmd.MarkFlagsMutuallyExclusive("panels", "category")

	return cmd
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
