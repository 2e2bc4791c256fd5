// Package timeparsing turns the expressions accepted by `pm list --since`
// into times.
//
// Expressions are tried in layers:
//  1. Compact duration (+6h, -1d, +2w)
//  2. Absolute timestamp (date-only, RFC3339)
//  3. Natural language (yesterday, 3 days ago, last monday)
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// compactDurationRe is [+-]?<n><unit> where unit is one of h d w m y.
var compactDurationRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// ParseCompactDuration offsets now by a compact duration such as "+6h",
// "-1d" or "2w". Units are hours, days, weeks, months and years; a missing
// sign means forward.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactDurationRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount: %q", m[2])
	}
	if m[1] == "-" {
		n = -n
	}
	return offset(now, n, m[3]), nil
}

func offset(base time.Time, n int, unit string) time.Time {
	switch unit {
	case "h":
		return base.Add(time.Duration(n) * time.Hour)
	case "d":
		return base.AddDate(0, 0, n)
	case "w":
		return base.AddDate(0, 0, 7*n)
	case "m":
		return base.AddDate(0, n, 0)
	case "y":
		return base.AddDate(n, 0, 0)
	}
	return base
}

// IsCompactDuration reports whether s uses compact duration syntax.
func IsCompactDuration(s string) bool {
	return compactDurationRe.MatchString(s)
}
