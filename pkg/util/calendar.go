package util

import "time"

// AddCalendarMonths adds n calendar months to t. When the day of month does
// not exist in the target month the result is clamped to that month's last
// day: Jan 31 + 1 month is Feb 28 (Feb 29 in leap years), never Mar 3.
// Time of day and location are preserved.
func AddCalendarMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	first := time.Date(year, month+time.Month(n), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
