package typeutils

import (
	"fmt"
	"strings"
	"time"
)

// layouts ordered from most to least specific; first match wins.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC1123,
	time.RFC822,
}

// ParseTimestamp parses a calendar date or timestamp permissively against a
// fixed layout list. Returned times are normalized to UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp value")
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("value [%s] does not match any supported timestamp layout", value)
}

// IsTimestamp reports whether the value parses as a date or timestamp.
func IsTimestamp(value string) bool {
	_, err := ParseTimestamp(value)
	return err == nil
}
