package normalize

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order before falling back to digit reduction.
var dateLayouts = []string{
	"2006-1-2",
	"2006.1.2",
	"2006/1/2",
	"2006. 1. 2",
	"2006. 1. 2.",
	"1/2/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a free-text date on a best-effort basis. It accepts the
// layouts above, digit-only 8 or 6 digit dates (see BirthDate) and 5-digit
// spreadsheet serial numbers. The result is truncated to a UTC calendar day.
// The boolean is false when the value cannot be interpreted; callers treat
// that as "cannot determine", never as an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}

	if len(s) == 5 && digits(s) == s {
		n, err := strconv.Atoi(s)
		if err == nil {
			return excelEpoch.AddDate(0, 0, n), true
		}
	}

	d := BirthDate(s)
	if !Comparable(d) {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", d)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	diff := Day(a).Sub(Day(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

// BirthDateDays returns the day distance between two free-text birthdates
// when both normalize to comparable, valid dates.
func BirthDateDays(a, b string) (int, bool) {
	na, nb := BirthDate(a), BirthDate(b)
	if !Comparable(na) || !Comparable(nb) {
		return 0, false
	}
	ta, errA := time.Parse("20060102", na)
	tb, errB := time.Parse("20060102", nb)
	if errA != nil || errB != nil {
		return 0, false
	}
	return DaysBetween(ta, tb), true
}
