package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapalma/sunscan-go/internal/dataset"
)

func intPtr(v int) *int { return &v }

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleRows() []dataset.Observation {
	ts1, _ := time.Parse("2006-01-02 15:04:05", "2017-05-25 10:00:00")
	ts2, _ := time.Parse("2006-01-02 15:04:05", "2019-08-02 08:15:00")
	ts3, _ := time.Parse("2006-01-02 15:04:05", "2019-08-10 14:30:00")
	y1, y2, y3 := 2017, 2019, 2019
	return []dataset.Observation{
		{
			Row: 0, Timestamp: &ts1, Year: &y1, TimeOfDay: "10:00:00",
			Instruments: []string{"CRISP", "IRIS"},
			Polarimetry: "True",
			Target:      "Sunspot AR12546",
			Comments:    "Good seeing",
		},
		{
			Row: 1, Timestamp: &ts2, Year: &y2, TimeOfDay: "08:15:00",
			Instruments: []string{"CHROMIS"},
			Polarimetry: "False",
			Target:      "Quiet Sun",
		},
		{
			Row: 2, Timestamp: &ts3, Year: &y3, TimeOfDay: "14:30:00",
			Instruments: []string{"CRISP", "CHROMIS"},
			Polarimetry: "False",
			Target:      "Filament, Quiet Sun",
			Comments:    "flat fields only",
		},
	}
}

func rowIDs(rows []dataset.Observation) []int {
	ids := make([]int, len(rows))
	for i := range rows {
		ids[i] = rows[i].Row
	}
	return ids
}

func TestApply_ZeroCriteriaKeepsEverything(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	assert.Equal(t, []int{0, 1, 2}, rowIDs(Apply(rows, Criteria{})))
}

func TestApply_YearRange(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	assert.Equal(t, []int{0}, rowIDs(Apply(rows, Criteria{YearMin: intPtr(2016), YearMax: intPtr(2018)})))
	assert.Equal(t, []int{1, 2}, rowIDs(Apply(rows, Criteria{YearMin: intPtr(2019)})))

	// rows without a year drop out while a year bound is active
	noYear := append(sampleRows(), dataset.Observation{Row: 3})
	assert.Equal(t, []int{1, 2}, rowIDs(Apply(noYear, Criteria{YearMin: intPtr(2019)})))
}

func TestApply_DateRange(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	got := Apply(rows, Criteria{DateStart: datePtr("2019-08-01"), DateEnd: datePtr("2019-08-05")})
	assert.Equal(t, []int{1}, rowIDs(got))

	// end date is inclusive
	got = Apply(rows, Criteria{DateEnd: datePtr("2017-05-25")})
	assert.Equal(t, []int{0}, rowIDs(got))
}

func TestApply_TimeOfDayRange(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	got := Apply(rows, Criteria{TimeStart: "09:00", TimeEnd: "12:00"})
	assert.Equal(t, []int{0}, rowIDs(got))

	got = Apply(rows, Criteria{TimeStart: "08:15:00"})
	assert.Equal(t, []int{0, 1, 2}, rowIDs(got))
}

func TestApply_Instruments(t *testing.T) {
	t.Parallel()

	rows := sampleRows()

	// any-match keeps rows with at least one selected tag
	got := Apply(rows, Criteria{Instruments: []string{"CRISP", "CHROMIS"}})
	assert.Equal(t, []int{0, 1, 2}, rowIDs(got))

	// all-match requires every selected tag
	got = Apply(rows, Criteria{Instruments: []string{"CRISP", "CHROMIS"}, InstrumentMode: MatchAll})
	assert.Equal(t, []int{2}, rowIDs(got))

	got = Apply(rows, Criteria{Instruments: []string{"IRIS"}})
	assert.Equal(t, []int{0}, rowIDs(got))
}

func TestApply_Polarimetry(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	got := Apply(rows, Criteria{Polarimetry: PolarimetryTrue})
	assert.Equal(t, []int{0}, rowIDs(got))

	// "False" is a real mode, not the absence of a filter
	got = Apply(rows, Criteria{Polarimetry: PolarimetryFalse})
	assert.Equal(t, []int{1, 2}, rowIDs(got))

	got = Apply(rows, Criteria{Polarimetry: PolarimetryAll})
	assert.Equal(t, []int{0, 1, 2}, rowIDs(got))

	got = Apply(rows, Criteria{})
	assert.Equal(t, []int{0, 1, 2}, rowIDs(got))
}

func TestApply_Targets(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	got := Apply(rows, Criteria{Targets: []string{"Quiet Sun"}})
	assert.Equal(t, []int{1, 2}, rowIDs(got))

	got = Apply(rows, Criteria{Targets: []string{"Filament", "Sunspot"}})
	assert.Equal(t, []int{0, 2}, rowIDs(got))
}

func TestApply_Keyword(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	got := Apply(rows, Criteria{Keyword: "seeing"})
	assert.Equal(t, []int{0}, rowIDs(got))

	// matching is case-insensitive over target and comments
	got = Apply(rows, Criteria{Keyword: "FLAT FIELDS"})
	assert.Equal(t, []int{2}, rowIDs(got))
}

func TestApply_KeywordWithoutMatchesIsNoOp(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	got := Apply(rows, Criteria{Keyword: "coronal mass ejection"})
	assert.Equal(t, []int{0, 1, 2}, rowIDs(got))

	// the fallback applies after the other criteria narrowed the rows
	got = Apply(rows, Criteria{YearMin: intPtr(2019), Keyword: "no such phrase"})
	assert.Equal(t, []int{1, 2}, rowIDs(got))
}

func TestApply_Conjunction(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	got := Apply(rows, Criteria{
		YearMin:     intPtr(2019),
		Instruments: []string{"CRISP"},
	})
	assert.Equal(t, []int{2}, rowIDs(got))
}

func TestApply_Monotonicity(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	criteria := []Criteria{
		{},
		{YearMin: intPtr(2019)},
		{Instruments: []string{"CRISP"}},
		{Polarimetry: PolarimetryFalse},
		{Keyword: "quiet"},
		{TimeStart: "09:00"},
	}
	for _, c := range criteria {
		got := Apply(rows, c)
		require.LessOrEqual(t, len(got), len(rows))
		// every output row is one of the input rows, in input order
		last := -1
		for _, obs := range got {
			assert.Greater(t, obs.Row, last)
			last = obs.Row
		}
	}
}

func TestParseMatchMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MatchAll, ParseMatchMode("all"))
	assert.Equal(t, MatchAll, ParseMatchMode("ALL"))
	assert.Equal(t, MatchAny, ParseMatchMode("any"))
	assert.Equal(t, MatchAny, ParseMatchMode(""))
	assert.Equal(t, MatchAny, ParseMatchMode("bogus"))
}

func TestParsePolarimetryMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", PolarimetryAll, true},
		{"All", PolarimetryAll, true},
		{"all", PolarimetryAll, true},
		{"True", PolarimetryTrue, true},
		{"true", PolarimetryTrue, true},
		{"False", PolarimetryFalse, true},
		{"FALSE", PolarimetryFalse, true},
		{"maybe", "", false},
		{"0", "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePolarimetryMode(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
