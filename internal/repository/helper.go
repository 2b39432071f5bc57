package repository

import (
	"fmt"
	"time"
)

// DateLayout is the canonical storage format for trading dates. Dates are
// stored as "YYYY-MM-DD" strings so that range comparisons in SQL stay
// lexicographic.
const DateLayout = "2006-01-02"

// ParseTime parses a date string in "2006-01-02", SQLite CURRENT_TIMESTAMP
// ("2006-01-02 15:04:05") or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if returnTime, err := time.Parse(layout, str); err == nil {
			return returnTime.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date %q", str)
}

// FormatDate renders a time as a storage-format trading date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
