package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Sink receives the rendered chart artifact.
type Sink interface {
	Emit(svg []byte) error
}

// FileSink writes the chart artifact to a file on disk.
type FileSink struct {
	path   string
	logger *zap.Logger
}

// NewFileSink creates a sink writing to path, creating parent directories as
// needed.
func NewFileSink(path string, logger *zap.Logger) *FileSink {
	return &FileSink{path: path, logger: logger}
}

// Emit writes the artifact.
func (s *FileSink) Emit(svg []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, svg, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	s.logger.Info("Chart written",
		zap.String("path", s.path),
		zap.Int("bytes", len(svg)))

	return nil
}
