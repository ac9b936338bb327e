package table

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/username/timeviz/internal/calendar"
)

// TimestampColumn is the canonical name of the single input column. Loaders
// rename whatever header they find to this name.
const TimestampColumn = "timestamp"

// Derived column names, in output order.
const (
	ColDay         = "day"
	ColMonth       = "month"
	ColYear        = "year"
	ColHour        = "hour"
	ColQuarter     = "quarter"
	ColWeekday     = "weekday"
	ColWeekdayName = "weekday_name"
	ColIsWeekend   = "is_weekend"
)

// derivedColumns lists the derived column names in output order.
var derivedColumns = []string{
	ColDay, ColMonth, ColYear, ColHour,
	ColQuarter, ColWeekday, ColWeekdayName, ColIsWeekend,
}

// Column is a single named column. Exactly one of Strings or Times is set:
// file loads produce raw text cells, the periodic generator produces native
// time cells.
type Column struct {
	Name    string
	Strings []string
	Times   []time.Time
}

// Len returns the number of cells in the column.
func (c Column) Len() int {
	if c.Times != nil {
		return len(c.Times)
	}
	return len(c.Strings)
}

// Raw is a freshly loaded one-column table, untouched by normalization.
type Raw struct {
	Col Column
}

// Normalized is a table whose timestamp column holds parsed time values.
type Normalized struct {
	Col Column
}

// Derived holds the calendar fields extracted from a normalized table. The
// timestamp column itself is dropped.
type Derived struct {
	Rows []calendar.Fields
}

// Len returns the number of rows.
func (d Derived) Len() int {
	return len(d.Rows)
}

// Columns returns the derived column names in output order.
func (d Derived) Columns() []string {
	cols := make([]string, len(derivedColumns))
	copy(cols, derivedColumns)
	return cols
}

// Column returns the values of the named column rendered as labels, or false
// if the column does not exist.
func (d Derived) Column(name string) ([]string, bool) {
	vals := make([]string, len(d.Rows))

	switch name {
	case ColDay:
		for i, r := range d.Rows {
			vals[i] = strconv.Itoa(r.Day)
		}
	case ColMonth:
		for i, r := range d.Rows {
			vals[i] = strconv.Itoa(r.Month)
		}
	case ColYear:
		for i, r := range d.Rows {
			vals[i] = strconv.Itoa(r.Year)
		}
	case ColHour:
		for i, r := range d.Rows {
			vals[i] = strconv.Itoa(r.Hour)
		}
	case ColQuarter:
		for i, r := range d.Rows {
			vals[i] = strconv.Itoa(r.Quarter)
		}
	case ColWeekday:
		for i, r := range d.Rows {
			vals[i] = strconv.Itoa(r.Weekday)
		}
	case ColWeekdayName:
		for i, r := range d.Rows {
			vals[i] = r.WeekdayName
		}
	case ColIsWeekend:
		for i, r := range d.Rows {
			vals[i] = strconv.Itoa(r.IsWeekend)
		}
	default:
		return nil, false
	}

	return vals, true
}

// Dump writes the table in a fixed-width layout: a header line followed by
// one line per row, each prefixed with its row index.
func (d Derived) Dump(w io.Writer) error {
	cols := d.Columns()

	cells := make([][]string, len(cols))
	widths := make([]int, len(cols))
	for i, name := range cols {
		vals, _ := d.Column(name)
		cells[i] = vals
		widths[i] = len(name)
		for _, v := range vals {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	idxWidth := len(strconv.Itoa(len(d.Rows) - 1))
	if idxWidth < 1 {
		idxWidth = 1
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", idxWidth))
	for i, name := range cols {
		fmt.Fprintf(&b, "  %*s", widths[i], name)
	}
	b.WriteByte('\n')

	for row := 0; row < len(d.Rows); row++ {
		fmt.Fprintf(&b, "%*d", idxWidth, row)
		for i := range cols {
			fmt.Fprintf(&b, "  %*s", widths[i], cells[i][row])
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// MissingColumnError reports required columns that are absent from a table.
// Columns lists every missing name.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	quoted := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		quoted[i] = strconv.Quote(c)
	}
	if len(quoted) == 1 {
		return fmt.Sprintf("missing column %s", quoted[0])
	}
	return fmt.Sprintf("missing columns %s", strings.Join(quoted, ", "))
}

// TypeMismatchError reports a column whose cells have the wrong type for an
// operation.
type TypeMismatchError struct {
	Column string
	Want   string
	Got    string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q holds %s values, want %s", e.Column, e.Got, e.Want)
}
