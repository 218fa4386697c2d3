package dataset

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// timestampLayouts are tried in order when parsing date_time cells. The
// source data mixes several spellings, unparseable values become nil.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// ParseTimestamp parses a date_time cell permissively. Empty, NaN and
// unparseable values yield nil rather than an error or a zero time.
func ParseTimestamp(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" || isNaN(s) {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

// ParseTimeOfDay parses a time-of-day string such as "10:30:00".
// The date component of the returned time is meaningless.
func ParseTimeOfDay(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || isNaN(s) {
		return time.Time{}, false
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceBool normalizes a polarimetry cell to exactly "True" or "False".
// Trims, capitalizes, maps the "Nan" sentinel to "False" and clamps any
// other unrecognized value to "False" so the column is never absent or
// malformed after loading.
func CoerceBool(raw string) string {
	s := capitalize(strings.TrimSpace(raw))
	if s == "True" {
		return "True"
	}
	return "False"
}

// capitalize mirrors str.capitalize: first rune upper, rest lower.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// CoerceList turns a raw cell into a list of strings.
//
// Bracket, paren and brace delimited content goes through the structured
// literal parser first, anything it rejects falls back to delimiter
// splitting with ";" preferred over ",". A plain non-empty string becomes a
// single-element list, empty and NaN cells become an empty list.
func CoerceList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" || isNaN(s) {
		return []string{}
	}

	if isBracketed(s) {
		if parsed, ok := parseLiteral(s); ok {
			return parsed
		}
	}

	switch {
	case strings.Contains(s, ";"):
		return splitAndTrim(s, ";")
	case strings.Contains(s, ","):
		return splitAndTrim(s, ",")
	default:
		return []string{s}
	}
}

func isBracketed(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '[' && last == ']') ||
		(first == '(' && last == ')') ||
		(first == '{' && last == '}')
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseIntCell parses integer-like cells such as "2017" or the "2017.0"
// spelling pandas leaves behind. Unparseable values yield nil.
func parseIntCell(raw string) *int {
	s := strings.TrimSpace(raw)
	if s == "" || isNaN(s) {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := int(f)
		return &v
	}
	return nil
}

// isNaN recognizes the textual NaN sentinels that show up when a CSV was
// written from a frame with missing values.
func isNaN(s string) bool {
	return strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") || strings.EqualFold(s, "none")
}
