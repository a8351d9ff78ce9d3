package session

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDurationSeconds applies when a test has no usable duration.
const DefaultDurationSeconds = 1800

var leadingMinutes = regexp.MustCompile(`^\s*(\d+)`)

// ParseDuration converts the human-readable duration of a test into
// seconds. Bare numbers, optionally followed by words ("15", "15 phút",
// "45 minutes"), are minutes; Go duration syntax ("1h30m") is accepted as
// well. Anything else, or a non-positive value, yields fallback.
func ParseDuration(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		if secs := int(d / time.Second); secs > 0 {
			return secs
		}
		return fallback
	}
	m := leadingMinutes.FindStringSubmatch(s)
	if m == nil {
		return fallback
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil || minutes <= 0 {
		return fallback
	}
	return minutes * 60
}
