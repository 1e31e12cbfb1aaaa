package normalize

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order: ISO-8601 first, then common locale
// formats. Only four-digit-year layouts are accepted: two-digit years
// need a pivot relative to the current year, which would make parsing
// depend on when the import runs.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006 15:04",
	"01-02-2006",
	"1-2-2006",
	"01.02.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"20060102",
}

// Date parses a date cell against the ordered layout list.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// IsDate reports whether a cell parses as a date. Used by the column
// classifier's content probe.
func IsDate(raw string) bool {
	_, err := Date(raw)
	return err == nil
}
