package insights

import "time"

// DateLayout formats calendar dates.
const DateLayout = "2006-01-02"

// Day returns the calendar date of t, in t's own location, as midnight UTC.
// Using UTC for the result keeps day arithmetic free of DST shifts.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from b to a.
func DaysBetween(a, b time.Time) int {
	return int(Day(a).Sub(Day(b)).Hours() / 24)
}
