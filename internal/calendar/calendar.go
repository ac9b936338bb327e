package calendar

import "time"

// Fields represents the calendar attributes derived from a single timestamp.
// Weekday follows the Monday=0 .. Sunday=6 convention and WeekdayName is the
// three-letter English day name. IsWeekend is 1 for Saturday and Sunday, 0
// otherwise.
type Fields struct {
	Day         int
	Month       int
	Year        int
	Hour        int
	Quarter     int
	Weekday     int
	WeekdayName string
	IsWeekend   int
}

// FieldsOf derives the calendar fields for the given timestamp.
func FieldsOf(t time.Time) Fields {
	weekday := WeekdayIndex(t.Weekday())

	f := Fields{
		Day:         t.Day(),
		Month:       int(t.Month()),
		Year:        t.Year(),
		Hour:        t.Hour(),
		Quarter:     QuarterOf(t.Month()),
		Weekday:     weekday,
		WeekdayName: t.Weekday().String()[:3],
	}
	if IsWeekend(weekday) {
		f.IsWeekend = 1
	}

	return f
}

// QuarterOf returns the quarter (1-4) the month falls in.
func QuarterOf(m time.Month) int {
	return (int(m) + 2) / 3
}

// WeekdayIndex maps a weekday to the Monday=0 .. Sunday=6 convention.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// IsWeekend reports whether a Monday=0 weekday index falls on Saturday or Sunday.
func IsWeekend(weekday int) bool {
	return weekday == 5 || weekday == 6
}
