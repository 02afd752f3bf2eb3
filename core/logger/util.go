package logger

import (
	"strconv"
	"strings"
	"time"
)

// RoundMS rounds d to the millisecond; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview joins at most limit values and notes how many were left out,
// e.g. "a, b (+3 more)".
func Preview(values []string, limit int) string {
	if len(values) == 0 {
		return ""
	}
	limit = max(limit, 0)
	if len(values) <= limit {
		return strings.Join(values, ", ")
	}
	rest := "+" + strconv.Itoa(len(values)-limit) + " more"
	if limit == 0 {
		return rest
	}
	return strings.Join(values[:limit], ", ") + " (" + rest + ")"
}
