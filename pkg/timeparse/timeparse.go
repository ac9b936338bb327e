package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// layouts are tried in order when parsing a timestamp. Datetime layouts come
// before date-only layouts so partial matches never win over full ones.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"2006/01/02",
}

// Parse parses a timestamp string in any of the supported layouts:
// ISO dates and datetimes (space or 'T' separated), RFC 3339 with or without
// fractional seconds, dotted and slashed dates. It never returns the zero
// time together with a nil error.
func Parse(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Step parses a generation step into a duration. Accepted forms:
//   - Go duration syntax: "14h", "90m", "1h30m"
//   - day and week shorthands: "2d", "1w"
//   - ISO 8601 durations with calendar units: "PT14H", "P1D", "P3W", "P2DT3H"
//
// The result must be positive.
func Step(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty step")
	}

	var (
		d   time.Duration
		err error
	)
	switch {
	case trimmed[0] == 'P':
		d, err = parseISODuration(trimmed)
	case strings.HasSuffix(trimmed, "d"):
		d, err = parseCalendarUnits(trimmed, 24*time.Hour)
	case strings.HasSuffix(trimmed, "w"):
		d, err = parseCalendarUnits(trimmed, 7*24*time.Hour)
	default:
		d, err = time.ParseDuration(trimmed)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid step %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("step %q must be positive", s)
	}

	return d, nil
}

// parseCalendarUnits handles "Nd" and "Nw" shorthands.
func parseCalendarUnits(s string, unit time.Duration) (time.Duration, error) {
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("bad unit count %q", s[:len(s)-1])
	}
	return time.Duration(n) * unit, nil
}

// parseISODuration parses the P[nW][nD]T[nH][nM][nS] form using calendar
// time units: P1D is 24 hours and P1W is 7 days.
func parseISODuration(s string) (time.Duration, error) {
	if s[0] != 'P' {
		return 0, fmt.Errorf("ISO duration must start with P")
	}
	rest := s[1:]

	// Split by 'T' to separate date and time parts
	datePart := rest
	timePart := ""
	if idx := strings.IndexByte(rest, 'T'); idx >= 0 {
		datePart = rest[:idx]
		timePart = rest[idx+1:]
	}

	var total time.Duration

	if idx := strings.IndexByte(datePart, 'W'); idx >= 0 {
		weeks, err := strconv.Atoi(datePart[:idx])
		if err != nil {
			return 0, fmt.Errorf("bad week count %q", datePart[:idx])
		}
		total += time.Duration(weeks) * 7 * 24 * time.Hour
		datePart = datePart[idx+1:]
	}

	if idx := strings.IndexByte(datePart, 'D'); idx >= 0 {
		days, err := strconv.Atoi(datePart[:idx])
		if err != nil {
			return 0, fmt.Errorf("bad day count %q", datePart[:idx])
		}
		total += time.Duration(days) * 24 * time.Hour
		datePart = datePart[idx+1:]
	}

	if datePart != "" {
		return 0, fmt.Errorf("unexpected %q in date part", datePart)
	}

	if idx := strings.IndexByte(timePart, 'H'); idx >= 0 {
		hours, err := strconv.Atoi(timePart[:idx])
		if err != nil {
			return 0, fmt.Errorf("bad hour count %q", timePart[:idx])
		}
		total += time.Duration(hours) * time.Hour
		timePart = timePart[idx+1:]
	}

	if idx := strings.IndexByte(timePart, 'M'); idx >= 0 {
		mins, err := strconv.Atoi(timePart[:idx])
		if err != nil {
			return 0, fmt.Errorf("bad minute count %q", timePart[:idx])
		}
		total += time.Duration(mins) * time.Minute
		timePart = timePart[idx+1:]
	}

	if idx := strings.IndexByte(timePart, 'S'); idx >= 0 {
		secs, err := strconv.Atoi(timePart[:idx])
		if err != nil {
			return 0, fmt.Errorf("bad second count %q", timePart[:idx])
		}
		total += time.Duration(secs) * time.Second
		timePart = timePart[idx+1:]
	}

	if timePart != "" {
		return 0, fmt.Errorf("unexpected %q in time part", timePart)
	}

	return total, nil
}
