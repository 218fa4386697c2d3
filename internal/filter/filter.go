// Package filter narrows a normalized observation table by date, time of
// day, instrument, polarimetry, target and free-text criteria. Filtering is
// a pure conjunction: every active criterion must hold, and the output is
// always a subset of the input in input order.
package filter

import (
	"strings"
	"time"

	"github.com/lapalma/sunscan-go/internal/dataset"
)

// MatchMode selects how the instrument criterion combines multiple tags.
type MatchMode string

const (
	// MatchAny keeps rows observed with at least one of the selected
	// instruments.
	MatchAny MatchMode = "any"
	// MatchAll keeps only rows observed with every selected instrument.
	MatchAll MatchMode = "all"
)

// ParseMatchMode maps the wire form of a match mode to its constant,
// defaulting to MatchAny for anything unrecognized.
func ParseMatchMode(s string) MatchMode {
	if strings.EqualFold(s, string(MatchAll)) {
		return MatchAll
	}
	return MatchAny
}

// Polarimetry filter modes.
const (
	PolarimetryAll   = "All"
	PolarimetryTrue  = "True"
	PolarimetryFalse = "False"
)

// ParsePolarimetryMode normalizes the wire form of a polarimetry mode.
// Empty input and "All" mean no filtering. Anything other than the three
// modes, in any case, is rejected.
func ParsePolarimetryMode(s string) (string, bool) {
	switch {
	case strings.TrimSpace(s) == "", strings.EqualFold(s, PolarimetryAll):
		return PolarimetryAll, true
	case strings.EqualFold(s, PolarimetryTrue):
		return PolarimetryTrue, true
	case strings.EqualFold(s, PolarimetryFalse):
		return PolarimetryFalse, true
	}
	return "", false
}

// Criteria describes one filter request. Zero-valued fields are inactive,
// so the zero Criteria keeps everything.
type Criteria struct {
	// YearMin and YearMax bound the observation year inclusively. Rows
	// without a year are dropped while either bound is active.
	YearMin *int
	YearMax *int

	// DateStart and DateEnd bound the observation date inclusively.
	DateStart *time.Time
	DateEnd   *time.Time

	// TimeStart and TimeEnd bound the time of day inclusively, given as
	// "15:04" or "15:04:05". Rows whose time cell is absent or
	// unparseable are dropped while either bound is active.
	TimeStart string
	TimeEnd   string

	// Instruments keeps rows matching the selected canonical tags,
	// combined per InstrumentMode.
	Instruments    []string
	InstrumentMode MatchMode

	// Polarimetry keeps rows whose polarimetry flag equals the selected
	// value, PolarimetryTrue or PolarimetryFalse. Empty and
	// PolarimetryAll keep everything.
	Polarimetry string

	// Targets keeps rows whose target field contains any of the selected
	// names.
	Targets []string

	// Keyword keeps rows whose target or comments contain the phrase,
	// case-insensitively. A keyword no row matches is treated as a no-op
	// so an over-specific search never empties the view.
	Keyword string
}

// Apply returns the rows satisfying every active criterion, preserving
// input order. The input slice is never mutated.
func Apply(rows []dataset.Observation, c Criteria) []dataset.Observation {
	out := make([]dataset.Observation, 0, len(rows))
	for i := range rows {
		if c.matches(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return applyKeyword(out, c.Keyword)
}

func (c *Criteria) matches(obs *dataset.Observation) bool {
	if c.YearMin != nil || c.YearMax != nil {
		if obs.Year == nil {
			return false
		}
		if c.YearMin != nil && *obs.Year < *c.YearMin {
			return false
		}
		if c.YearMax != nil && *obs.Year > *c.YearMax {
			return false
		}
	}

	if c.DateStart != nil || c.DateEnd != nil {
		if obs.Timestamp == nil {
			return false
		}
		day := truncateToDay(*obs.Timestamp)
		if c.DateStart != nil && day.Before(truncateToDay(*c.DateStart)) {
			return false
		}
		if c.DateEnd != nil && day.After(truncateToDay(*c.DateEnd)) {
			return false
		}
	}

	if c.TimeStart != "" || c.TimeEnd != "" {
		if !c.matchesTimeOfDay(obs.TimeOfDay) {
			return false
		}
	}

	if len(c.Instruments) > 0 && !matchInstruments(obs.Instruments, c.Instruments, c.InstrumentMode) {
		return false
	}

	if !c.matchesPolarimetry(obs.Polarimetry) {
		return false
	}

	if len(c.Targets) > 0 && !matchTargets(obs.Target, c.Targets) {
		return false
	}

	return true
}

func (c *Criteria) matchesPolarimetry(value string) bool {
	switch c.Polarimetry {
	case "", PolarimetryAll:
		return true
	}
	return value == c.Polarimetry
}

func (c *Criteria) matchesTimeOfDay(raw string) bool {
	parsed, ok := dataset.ParseTimeOfDay(raw)
	if !ok {
		return false
	}
	moment := secondOfDay(parsed)

	if c.TimeStart != "" {
		start, ok := dataset.ParseTimeOfDay(c.TimeStart)
		if ok && moment < secondOfDay(start) {
			return false
		}
	}
	if c.TimeEnd != "" {
		end, ok := dataset.ParseTimeOfDay(c.TimeEnd)
		if ok && moment > secondOfDay(end) {
			return false
		}
	}
	return true
}

func matchInstruments(have, want []string, mode MatchMode) bool {
	if mode == MatchAll {
		for _, tag := range want {
			if !containsFold(have, tag) {
				return false
			}
		}
		return true
	}
	for _, tag := range want {
		if containsFold(have, tag) {
			return true
		}
	}
	return false
}

func matchTargets(target string, selected []string) bool {
	lowered := strings.ToLower(target)
	for _, name := range selected {
		if name == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// applyKeyword filters rows on a case-insensitive phrase over target and
// comments, falling back to the unfiltered rows when nothing matches.
func applyKeyword(rows []dataset.Observation, keyword string) []dataset.Observation {
	phrase := strings.ToLower(strings.TrimSpace(keyword))
	if phrase == "" {
		return rows
	}
	matched := make([]dataset.Observation, 0, len(rows))
	for i := range rows {
		if strings.Contains(strings.ToLower(rows[i].Target), phrase) ||
			strings.Contains(strings.ToLower(rows[i].Comments), phrase) {
			matched = append(matched, rows[i])
		}
	}
	if len(matched) == 0 {
		return rows
	}
	return matched
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
