package transform

import (
	"fmt"
	"time"

	"github.com/username/timeviz/internal/calendar"
	"github.com/username/timeviz/internal/table"
	"github.com/username/timeviz/pkg/timeparse"
)

// ParseError reports timestamp cells that could not be parsed. Row and Value
// describe the first failing cell, Failures counts all of them.
type ParseError struct {
	Row      int
	Value    string
	Failures int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Failures > 1 {
		return fmt.Sprintf("cannot parse timestamp %q at row %d (%d cells failed): %v",
			e.Value, e.Row, e.Failures, e.Err)
	}
	return fmt.Sprintf("cannot parse timestamp %q at row %d: %v", e.Value, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Normalize converts the timestamp column of a raw table into native time
// values. Either every cell converts or the whole operation fails; the input
// table is never modified.
func Normalize(raw table.Raw) (table.Normalized, error) {
	if raw.Col.Name != table.TimestampColumn {
		return table.Normalized{}, &table.MissingColumnError{Columns: []string{table.TimestampColumn}}
	}

	if raw.Col.Times != nil {
		times := make([]time.Time, len(raw.Col.Times))
		copy(times, raw.Col.Times)
		return table.Normalized{Col: table.Column{Name: table.TimestampColumn, Times: times}}, nil
	}

	times := make([]time.Time, 0, len(raw.Col.Strings))
	var parseErr *ParseError
	for i, cell := range raw.Col.Strings {
		t, err := timeparse.Parse(cell)
		if err != nil {
			if parseErr == nil {
				parseErr = &ParseError{Row: i, Value: cell, Err: err}
			}
			parseErr.Failures++
			continue
		}
		times = append(times, t)
	}
	if parseErr != nil {
		return table.Normalized{}, parseErr
	}

	return table.Normalized{Col: table.Column{Name: table.TimestampColumn, Times: times}}, nil
}

// Extract derives the calendar columns from a normalized table. The timestamp
// column is dropped; the result holds only the derived columns.
func Extract(n table.Normalized) (table.Derived, error) {
	if n.Col.Name != table.TimestampColumn {
		return table.Derived{}, &table.MissingColumnError{Columns: []string{table.TimestampColumn}}
	}
	if n.Col.Times == nil {
		return table.Derived{}, &table.TypeMismatchError{
			Column: table.TimestampColumn,
			Want:   "time",
			Got:    "string",
		}
	}

	rows := make([]calendar.Fields, len(n.Col.Times))
	for i, t := range n.Col.Times {
		rows[i] = calendar.FieldsOf(t)
	}

	return table.Derived{Rows: rows}, nil
}
