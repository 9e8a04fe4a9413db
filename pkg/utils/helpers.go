package utils

import (
	"time"
)

// ParseDuration safely parses duration string like "5m", falling back when
// the string is empty, malformed or not positive.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}
