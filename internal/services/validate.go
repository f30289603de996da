package services

import (
	"strings"
	"time"
)

// normalizeDate accepts YYYY-MM-DD.
func normalizeDate(value string) (string, bool) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", false
	}
	return parsed.Format(dateLayout), true
}

// normalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func normalizeClock(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{clockLayout, "15:04"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(clockLayout), true
		}
	}
	return "", false
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
