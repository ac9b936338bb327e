package pipeline

import (
	"fmt"
	"io"

	"github.com/username/timeviz/internal/chart"
	"github.com/username/timeviz/internal/config"
	"github.com/username/timeviz/internal/source"
	"github.com/username/timeviz/internal/table"
	"github.com/username/timeviz/internal/transform"
	"go.uber.org/zap"
)

// Runner executes the load, normalize, extract and display stages in order.
// Any stage error aborts the whole run; no partial tables or charts are
// produced.
type Runner struct {
	config   *config.Config
	panels   []chart.Panel
	renderer *chart.Renderer
	sink     chart.Sink
	out      io.Writer
	logger   *zap.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(
	cfg *config.Config,
	panels []chart.Panel,
	renderer *chart.Renderer,
	sink chart.Sink,
	out io.Writer,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		config:   cfg,
		panels:   panels,
		renderer: renderer,
		sink:     sink,
		out:      out,
		logger:   logger,
	}
}

// RunFile executes the pipeline over a one-column CSV file.
func (r *Runner) RunFile(path string) error {
	r.logger.Info("Loading timestamps from file",
		zap.String("path", path))

	raw, err := source.FromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load table: %w", err)
	}

	r.logger.Info("Table loaded",
		zap.String("path", path),
		zap.Int("rows", raw.Col.Len()))

	return r.run(raw)
}

// RunSynthetic executes the pipeline over generated periodic timestamps.
func (r *Runner) RunSynthetic() error {
	gen := r.config.Generate

	step, err := gen.GetStep()
	if err != nil {
		return fmt.Errorf("invalid generation step: %w", err)
	}

	r.logger.Info("Generating periodic timestamps",
		zap.String("start", gen.Start),
		zap.Int("count", gen.Count),
		zap.Duration("step", step))

	raw, err := source.Periodic(gen.Start, gen.Count, step)
	if err != nil {
		return fmt.Errorf("failed to generate table: %w", err)
	}

	return r.run(raw)
}

func (r *Runner) run(raw table.Raw) error {
	// 1. Normalize the timestamp column
	normalized, err := transform.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalization failed: %w", err)
	}
	r.logger.Info("Timestamps normalized",
		zap.Int("rows", normalized.Col.Len()))

	// 2. Extract calendar fields
	derived, err := transform.Extract(normalized)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	r.logger.Info("Calendar fields extracted",
		zap.Int("rows", derived.Len()),
		zap.Strings("columns", derived.Columns()))

	// 3. Dump the derived table
	if err := derived.Dump(r.out); err != nil {
		return fmt.Errorf("failed to dump table: %w", err)
	}

	// 4. Render the panels and emit the chart
	svg, err := r.renderer.Render(derived, r.panels)
	if err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}
	if err := r.sink.Emit(svg); err != nil {
		return fmt.Errorf("failed to emit chart: %w", err)
	}

	r.logger.Info("Pipeline completed",
		zap.Int("rows", derived.Len()),
		zap.Int("panels", len(r.panels)))

	return nil
}
