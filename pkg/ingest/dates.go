package ingest

import (
	"strings"
	"time"
)

// timestampLayouts is tried in order. Go accepts a fractional second after the
// seconds field even when the layout omits it, so fractions need no layouts
// of their own.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// ParseTimestamp is the parse-or-null policy for date-times: ok is false when
// value is empty or matches no known layout, and the caller treats the value
// as missing. Zoned values are normalized to UTC; unzoned values are taken
// as UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	t, ok := parse(value)
	if !ok {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// ParseDate applies the same policy for calendar dates. A date-time value is
// accepted and truncated to the date it names in its own zone.
func ParseDate(value string) (time.Time, bool) {
	t, ok := parse(value)
	if !ok {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

func parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
