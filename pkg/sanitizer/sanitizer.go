package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reMultiSpace     = regexp.MustCompile(`\s+`)
	reKeepNameRunes  = regexp.MustCompile(`[^\p{L}\p{N}\s.'-]+`)
	reValidDate      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reValidClockTime = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

func collapseSpaces(s string) string {
	return reMultiSpace.ReplaceAllString(s, " ")
}

// SanitizeName strips control and symbol runes and collapses whitespace,
// preserving the original casing for display.
func SanitizeName(input string) string {
	p := Pipeline{
		func(s string) string { return reKeepNameRunes.ReplaceAllString(s, "") },
		collapseSpaces,
		trimSpace,
	}
	return p.Apply(input)
}

// NormalizeNameKey produces the case-folded form used for name lookups.
func NormalizeNameKey(input string) string {
	p := Pipeline{
		func(s string) string { return SanitizeName(s) },
		strings.ToLower,
	}
	return p.Apply(input)
}

// SanitizeDate trims a calendar date string and returns "" when it does
// not match the YYYY-MM-DD shape.
func SanitizeDate(input string) string {
	s := strings.TrimSpace(input)
	if !reValidDate.MatchString(s) {
		return ""
	}
	return s
}

// SanitizeClockTime trims a wall-clock string and returns "" when it does
// not match the HH:MM shape.
func SanitizeClockTime(input string) string {
	s := strings.TrimSpace(input)
	if !reValidClockTime.MatchString(s) {
		return ""
	}
	return s
}

// SanitizeSlice applies a strategy to every value, dropping empties and
// duplicates while preserving order.
func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
