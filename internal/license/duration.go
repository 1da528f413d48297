package license

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultUnit = time.Hour

// ParseDuration turns a human key-duration spec like "3days", "2 weeks"
// or "12h" into a duration. The count is taken from the digits anywhere
// in the spec, defaulting to 1; a spec with no recognizable unit is read
// as hours. A month counts as 30 days.
func ParseDuration(spec string) time.Duration {
	s := strings.ToLower(strings.TrimSpace(spec))
	n := int64(1)
	if digits := extractDigits(s); digits != "" {
		if v, err := strconv.ParseInt(digits, 10, 64); err == nil && v > 0 {
			n = v
		}
	}

	unit := defaultUnit
	switch {
	case strings.Contains(s, "month"):
		unit = 30 * 24 * time.Hour
	case strings.Contains(s, "week"):
		unit = 7 * 24 * time.Hour
	case strings.Contains(s, "day"):
		unit = 24 * time.Hour
	case strings.Contains(s, "hour"):
		unit = time.Hour
	case strings.HasSuffix(s, "m"):
		unit = 30 * 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "h"):
		unit = time.Hour
	}
	return time.Duration(n) * unit
}

func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatDuration renders a duration the way key listings show it, using
// the largest unit that divides it cleanly.
func FormatDuration(d time.Duration) string {
	day := 24 * time.Hour
	switch {
	case d >= 30*day && d%(30*day) == 0:
		return plural(int(d/(30*day)), "month")
	case d >= 7*day && d%(7*day) == 0:
		return plural(int(d/(7*day)), "week")
	case d >= day && d%day == 0:
		return plural(int(d/day), "day")
	default:
		hours := int(d / time.Hour)
		if hours < 1 {
			hours = 1
		}
		return plural(hours, "hour")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// VIPDays is the whole-day entitlement a key duration grants, rounded up
// so even an hour-long key yields a day of access.
func VIPDays(d time.Duration) int {
	day := 24 * time.Hour
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
