package domain

import (
	"strings"
	"time"
)

// DateLayout is the ISO-8601 layout used for calendar days on every surface
const DateLayout = "2006-01-02"

// naiveLayouts are accepted for timestamps without an explicit offset; they are read in the reference zone
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTimestamp parses an aware (RFC 3339) or naive timestamp.
// Naive values are interpreted in loc; aware values are converted into loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, MalformedInputf("timestamp is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, MalformedInputf("invalid timestamp %q", raw)
}

// ParseDate parses an ISO calendar day
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, MalformedInputf("invalid date %q", raw)
	}
	return t, nil
}

// Day returns the canonical value of a calendar day (midnight UTC)
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayOf returns the calendar day t falls on in the reference zone loc
func DayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return Day(y, m, d)
}

// DaysBetween lists every calendar day in [start, end]; empty when start is after end
func DaysBetween(start, end time.Time) []time.Time {
	start = Day(start.Date())
	end = Day(end.Date())
	if start.After(end) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
