// Package timeparse normalizes the loosely formatted timestamps carried by
// raw review records and outcome files.
package timeparse

import (
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"2 Jan 2006",
}

// Parse attempts the known layouts in order. The bool result is false when
// none of them matches; callers treat that as "no usable timestamp", never as
// an error.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// WeekStart floors a timestamp to its Monday-aligned week start at midnight UTC.
func WeekStart(ts time.Time) time.Time {
	ts = ts.UTC()
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// FloorMinute truncates a timestamp to the minute, preserving the date part.
func FloorMinute(ts time.Time) time.Time {
	return ts.Truncate(time.Minute)
}
