// Package dataset loads the solar observation CSV and normalizes it into a
// typed in-memory table that the filter, media and stats packages consume.
package dataset

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Recognized source column names.
const (
	ColDateTime    = "date_time"
	ColYear        = "year"
	ColMonth       = "month"
	ColDay         = "day"
	ColTime        = "time"
	ColPolarimetry = "polarimetry"
	ColInstruments = "instruments"
	ColTarget      = "target"
	ColComments    = "comments"
	ColVideoLinks  = "video_links"
	ColImageLinks  = "image_links"
	ColLinks       = "links"
)

// ListColumns are the columns that often store list-like content as strings.
var ListColumns = []string{ColInstruments, ColVideoLinks, ColImageLinks, ColLinks}

// Observation represents a single normalized observation row.
type Observation struct {
	Row         int        `json:"row"`
	Timestamp   *time.Time `json:"date_time,omitempty"`
	Year        *int       `json:"year,omitempty"`
	Month       *int       `json:"month,omitempty"`
	Day         *int       `json:"day,omitempty"`
	TimeOfDay   string     `json:"time,omitempty"`
	Polarimetry string     `json:"polarimetry"`
	Instruments []string   `json:"instruments"`
	Target      string     `json:"target,omitempty"`
	Comments    string     `json:"comments,omitempty"`
	ImageLinks  []string   `json:"image_links"`
	VideoLinks  []string   `json:"video_links"`
	Links       []string   `json:"links"`

	// Extra holds unrecognized source columns verbatim so write-back
	// round-trips them untouched.
	Extra map[string]string `json:"-"`
}

// Dataset is the canonical in-memory table produced by the Loader.
// It is immutable once loaded; filtering and derivation produce new values.
type Dataset struct {
	Path    string
	Columns []string // source column order, preserved for write-back
	Rows    []Observation
}

// Empty reports whether the dataset holds no rows. An empty dataset is a
// valid terminal state, downstream consumers refuse further processing.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Rows) == 0
}

// HasColumn reports whether the source data supplied the named column.
func (d *Dataset) HasColumn(name string) bool {
	return slices.Contains(d.Columns, name)
}

// SortByTimestampDesc returns a copy of rows ordered newest first, rows
// without a timestamp last. Filtering never reorders, this is applied by
// the consuming view.
func SortByTimestampDesc(rows []Observation) []Observation {
	sorted := slices.Clone(rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Timestamp, sorted[j].Timestamp
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return sorted
}

// InstrumentOptions returns the sorted distinct instrument tags across rows,
// used to populate filter pickers.
func InstrumentOptions(rows []Observation) []string {
	seen := make(map[string]struct{})
	for i := range rows {
		for _, tag := range rows[i].Instruments {
			seen[tag] = struct{}{}
		}
	}
	options := make([]string, 0, len(seen))
	for tag := range seen {
		options = append(options, tag)
	}
	sort.Strings(options)
	return options
}

// TargetOptions returns the sorted distinct target names across rows.
// Target cells may hold several comma-separated names.
func TargetOptions(rows []Observation) []string {
	seen := make(map[string]struct{})
	for i := range rows {
		for part := range strings.SplitSeq(rows[i].Target, ",") {
			if name := strings.TrimSpace(part); name != "" {
				seen[name] = struct{}{}
			}
		}
	}
	options := make([]string, 0, len(seen))
	for name := range seen {
		options = append(options, name)
	}
	sort.Strings(options)
	return options
}
