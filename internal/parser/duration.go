// Package parser converts YouTube Data API field formats into plain Go values.
//
// Every function here is total: malformed input yields a documented default
// instead of an error.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	strictDurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
	looseDurationRegex  = regexp.MustCompile(`(\d+\.?\d*)([HMS])`)
)

const (
	timestampLayout = "2006-01-02T15:04:05"
	dateLayout      = "2006-01-02"
)

// ParseDuration converts an ISO 8601 time duration such as "PT1H2M3S" to seconds.
// Example: "PT4M13S" -> 253
//
// Input without the "PT" prefix yields 0. Fractional components ("PT1.5M")
// are summed and truncated.
func ParseDuration(duration string) int {
	if !strings.HasPrefix(duration, "PT") {
		return 0
	}

	if m := strictDurationRegex.FindStringSubmatch(duration); m != nil {
		hours := atoiOrZero(m[1])
		minutes := atoiOrZero(m[2])
		seconds := atoiOrZero(m[3])
		return hours*3600 + minutes*60 + seconds
	}

	var hours, minutes, seconds float64
	for _, pair := range looseDurationRegex.FindAllStringSubmatch(duration, -1) {
		v, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			continue
		}
		switch pair[2] {
		case "H":
			hours = v
		case "M":
			minutes = v
		case "S":
			seconds = v
		}
	}

	return int(hours*3600 + minutes*60 + seconds)
}

// ParseTimestamp parses timestamps like "2020-01-01T12:34:56Z" or
// "2020-01-01T12:34:56.789Z" as UTC. Fractional seconds are discarded and a
// bare date means midnight. Returns nil when nothing parses.
func ParseTimestamp(ts string) *time.Time {
	if ts == "" {
		return nil
	}

	ts = strings.TrimSuffix(ts, "Z")
	if i := strings.Index(ts, "."); i >= 0 {
		ts = ts[:i]
	}

	if t, err := time.ParseInLocation(timestampLayout, ts, time.UTC); err == nil {
		return &t
	}
	if t, err := time.ParseInLocation(dateLayout, ts, time.UTC); err == nil {
		return &t
	}

	return nil
}

// FormatDuration renders seconds for humans; nil means unknown.
func FormatDuration(seconds *int) string {
	if seconds == nil {
		return "N/A"
	}
	return FormatSeconds(*seconds)
}

// FormatSeconds renders "45s", "2m 5s" or "1h 2m".
func FormatSeconds(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	m, s := seconds/60, seconds%60
	if m < 60 {
		return fmt.Sprintf("%dm %ds", m, s)
	}

	h, m := m/60, m%60
	return fmt.Sprintf("%dh %dm", h, m)
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
