// Package stats computes summary figures and chartable count tables from a
// filtered observation view.
package stats

import (
	"sort"

	"github.com/lapalma/sunscan-go/internal/dataset"
)

// Summary holds the headline figures for a (filtered) set of observations.
type Summary struct {
	Observations      int `json:"observations"`
	YearsCovered      int `json:"years_covered"`
	UniqueInstruments int `json:"unique_instruments"`
	WithPolarimetry   int `json:"with_polarimetry"`
}

// Summarize computes the headline figures across rows. Years are counted
// distinct over rows that carry one.
func Summarize(rows []dataset.Observation) Summary {
	years := make(map[int]struct{})
	instruments := make(map[string]struct{})
	polarimetric := 0
	for i := range rows {
		if rows[i].Year != nil {
			years[*rows[i].Year] = struct{}{}
		}
		for _, tag := range rows[i].Instruments {
			instruments[tag] = struct{}{}
		}
		if rows[i].Polarimetry == "True" {
			polarimetric++
		}
	}
	return Summary{
		Observations:      len(rows),
		YearsCovered:      len(years),
		UniqueInstruments: len(instruments),
		WithPolarimetry:   polarimetric,
	}
}

// YearInstrumentCount is one cell of the year-by-instrument table.
type YearInstrumentCount struct {
	Year       int    `json:"year"`
	Instrument string `json:"instrument"`
	Count      int    `json:"count"`
}

// YearInstrumentCounts explodes each row's instrument list and counts
// observations per (year, instrument) pair, for time-series charting.
// Rows without a year are skipped. Output is ordered by year then
// instrument so chart series are stable.
func YearInstrumentCounts(rows []dataset.Observation) []YearInstrumentCount {
	type key struct {
		year       int
		instrument string
	}
	counts := make(map[key]int)
	for i := range rows {
		if rows[i].Year == nil {
			continue
		}
		for _, tag := range rows[i].Instruments {
			counts[key{*rows[i].Year, tag}]++
		}
	}

	out := make([]YearInstrumentCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, YearInstrumentCount{Year: k.year, Instrument: k.instrument, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Instrument < out[j].Instrument
	})
	return out
}

// monthAbbrs indexes month abbreviations by time.Month value.
var monthAbbrs = []string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthAbbrs lists the twelve month column labels of the heatmap in
// calendar order.
func MonthAbbrs() []string {
	out := make([]string, 12)
	copy(out, monthAbbrs[1:])
	return out
}

// Heatmap is the year-by-month observation count table together with the
// color scale endpoints for rendering. Zero-count cells are not part of the
// gradient, so the scale starts at the smallest non-zero count.
type Heatmap struct {
	Years    []int           `json:"years"`
	Months   []string        `json:"months"`
	Counts   map[int][12]int `json:"counts"`
	ScaleMin int             `json:"scale_min"` // smallest non-zero count, 0 when the table is empty
	ScaleMax int             `json:"scale_max"`
}

// YearMonthCounts groups rows with a timestamp by (year, month) and fills a
// complete year-by-month grid, missing cells staying zero.
func YearMonthCounts(rows []dataset.Observation) Heatmap {
	counts := make(map[int][12]int)
	for i := range rows {
		ts := rows[i].Timestamp
		if ts == nil {
			continue
		}
		row := counts[ts.Year()]
		row[int(ts.Month())-1]++
		counts[ts.Year()] = row
	}

	years := make([]int, 0, len(counts))
	for year := range counts {
		years = append(years, year)
	}
	sort.Ints(years)

	minNonZero, maxCount := 0, 0
	for _, row := range counts {
		for _, n := range row {
			if n == 0 {
				continue
			}
			if minNonZero == 0 || n < minNonZero {
				minNonZero = n
			}
			if n > maxCount {
				maxCount = n
			}
		}
	}

	return Heatmap{
		Years:    years,
		Months:   MonthAbbrs(),
		Counts:   counts,
		ScaleMin: minNonZero,
		ScaleMax: maxCount,
	}
}
