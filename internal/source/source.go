package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/username/timeviz/internal/table"
	"github.com/username/timeviz/pkg/timeparse"
)

// ErrNotFound reports a source path that does not exist.
var ErrNotFound = errors.New("source file not found")

// FormatError reports input that is not a one-column CSV table.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad input %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("bad input %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// GenerateError reports an invalid periodic generation parameter.
type GenerateError struct {
	Param string
	Err   error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("cannot generate timestamps: bad %s: %v", e.Param, e.Err)
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

// FromFile loads a one-column CSV table. The first record is the header; it
// is consumed and the column is renamed to "timestamp" regardless of what it
// was called. A header-only file yields a valid empty table.
func FromFile(path string) (table.Raw, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return table.Raw{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return table.Raw{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return table.Raw{}, &FormatError{Path: path, Reason: "is a directory, not a CSV file"}
	}

	f, err := os.Open(path)
	if err != nil {
		return table.Raw{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	// Record widths are checked by hand so the error can name the actual
	// column count.
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	cells := []string{}
	sawHeader := false
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table.Raw{}, &FormatError{Path: path, Reason: "malformed csv", Err: err}
		}
		if len(record) != 1 {
			return table.Raw{}, &FormatError{
				Path:   path,
				Reason: fmt.Sprintf("want exactly 1 column, got %d", len(record)),
			}
		}
		if !sawHeader {
			sawHeader = true
			continue
		}
		cells = append(cells, record[0])
	}
	if !sawHeader {
		return table.Raw{}, &FormatError{Path: path, Reason: "empty file, no columns to read"}
	}

	return table.Raw{Col: table.Column{Name: table.TimestampColumn, Strings: cells}}, nil
}

// Periodic generates count evenly spaced timestamps beginning at start. All
// parameter problems surface as a GenerateError naming the offending
// parameter.
func Periodic(start string, count int, step time.Duration) (table.Raw, error) {
	if count <= 0 {
		return table.Raw{}, &GenerateError{
			Param: "count",
			Err:   fmt.Errorf("want a positive count, got %d", count),
		}
	}

	first, err := timeparse.Parse(start)
	if err != nil {
		return table.Raw{}, &GenerateError{Param: "start", Err: err}
	}

	if step <= 0 {
		return table.Raw{}, &GenerateError{
			Param: "step",
			Err:   fmt.Errorf("want a positive step, got %s", step),
		}
	}

	times := make([]time.Time, count)
	for i := range times {
		times[i] = first.Add(time.Duration(i) * step)
	}

	return table.Raw{Col: table.Column{Name: table.TimestampColumn, Times: times}}, nil
}
