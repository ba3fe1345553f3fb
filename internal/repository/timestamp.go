package repository

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. The last one is the dotted locale form
// ("18.10.2026, 14:03:05") written by older clients.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2.1.2006, 15:04:05",
	"2.1.2006, 15:04",
	"2.1.2006",
}

// ParseTimestamp converts a stored timestamp into a time. Unparseable or empty
// input yields the zero time, which orders before every real timestamp.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatTimestamp renders t the way new records are stamped.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
