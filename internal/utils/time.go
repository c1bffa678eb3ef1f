package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickb777/date"
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutISOLocal = "2006-01-02T15:04:05"
	layoutISOShort = "2006-01-02T15:04"
	layoutHM       = "15:04"
	layoutCard     = "01/02 15:04"
)

// ParseDateTime accepts "YYYY-MM-DD HH:MM:SS", "YYYY-MM-DDTHH:MM[:SS]" or RFC3339.
// Wall-clock forms are interpreted in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{layoutISOLocal, layoutDateTime, layoutISOShort} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

// FormatDate formats the calendar date of t, in its own location, as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return date.NewAt(t).String()
}

// FormatDateTime formats t as "YYYY-MM-DD HH:MM:SS".
func FormatDateTime(t time.Time) string {
	return t.Format(layoutDateTime)
}

// FormatHM formats t as HH:MM.
func FormatHM(t time.Time) string {
	return t.Format(layoutHM)
}

// FormatCard formats t as "MM/DD HH:MM" for notification cards.
func FormatCard(t time.Time) string {
	return t.Format(layoutCard)
}
