package timeparsing

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var nlpParser = newNLPParser()

func newNLPParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseNaturalLanguage parses English expressions such as "tomorrow",
// "next monday at 2pm" or "3 days ago" relative to now.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	result, err := nlpParser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", s, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("no time expression found in %q", s)
	}
	return result.Time, nil
}

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseAbsolute parses a date or timestamp. Values without a zone are
// taken in now's location.
func ParseAbsolute(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an absolute time: %q", s)
}

// ParseRelativeTime tries each layer in order and returns the first
// successful parse.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsCompactDuration(s) {
		return ParseCompactDuration(s, now)
	}
	if t, err := ParseAbsolute(s, now); err == nil {
		return t, nil
	}
	if t, err := ParseNaturalLanguage(s, now); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time expression %q (try 3d, 2024-01-31, or \"last monday\")", s)
}

// ParseSince parses a lower bound for creation-time filters. A compact
// duration without a sign counts backwards, so "3d" means three days ago.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsCompactDuration(s) && s[0] != '+' && s[0] != '-' {
		s = "-" + s
	}
	return ParseRelativeTime(s, now)
}
