package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// UTCDateFormat is the timestamp form produced for the API:
// YYYY-MM-DDTHH:MM:SS.fffZ. Parsing is more lenient, per utcDateRe.
const UTCDateFormat = "2006-01-02T15:04:05.000Z"

// Matches the server-side validation: milliseconds and the trailing Z are
// optional, and either "-" or "/" may separate the date fields.
var utcDateRe = regexp.MustCompile(`^\d{4}[/-]\d{2}[/-]\d{2}T\d{2}:\d{2}:\d{2}(\.\d{0,3})?Z?$`)

func FormatUTCDate(t time.Time) string {
	return t.UTC().Format(UTCDateFormat)
}

func ParseUTCDate(dateStr string) (time.Time, error) {
	if !utcDateRe.MatchString(dateStr) {
		return time.Time{}, fmt.Errorf(
			"invalid date string %q, expected form 2003-10-06T00:00:00.000Z", dateStr,
		)
	}
	normalized := strings.ReplaceAll(dateStr, "/", "-")
	normalized = strings.TrimSuffix(normalized, "Z")
	layout := "2006-01-02T15:04:05"
	if strings.Contains(normalized, ".") {
		normalized = strings.TrimSuffix(normalized, ".")
		if strings.Contains(normalized, ".") {
			layout = "2006-01-02T15:04:05.999"
		}
	}
	parsed, err := time.Parse(layout, normalized)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
