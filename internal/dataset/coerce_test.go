package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	ts := ParseTimestamp("2017-05-25 10:00:00")
	require.NotNil(t, ts)
	assert.Equal(t, 2017, ts.Year())
	assert.Equal(t, 5, int(ts.Month()))
	assert.Equal(t, 25, ts.Day())
	assert.Equal(t, 10, ts.Hour())

	dateOnly := ParseTimestamp("2019-08-02")
	require.NotNil(t, dateOnly)
	assert.Equal(t, 2019, dateOnly.Year())
}

func TestParseTimestamp_UnparseableBecomesNil(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "NaN", "NaT", "not a date", "25 May maybe"} {
		assert.Nil(t, ParseTimestamp(raw), "raw=%q", raw)
	}
}

func TestCoerceBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"True", "True"},
		{"true", "True"},
		{"TRUE", "True"},
		{" true ", "True"},
		{"False", "False"},
		{"false", "False"},
		{"NaN", "False"},
		{"nan", "False"},
		{"", "False"},
		{"yes", "False"}, // unrecognized values clamp to False
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoerceBool(tt.raw), "raw=%q", tt.raw)
	}
}

func TestCoerceList_LiteralSyntax(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"CRISP", "IRIS"}, CoerceList("['CRISP','IRIS']"))
	assert.Equal(t, []string{"a", "b"}, CoerceList(`("a", "b")`))
	assert.Equal(t, []string{"v1", "v2"}, CoerceList(`{'k1': 'v1', 'k2': 'v2'}`))
	assert.Equal(t, []string{"x", "y", "z"}, CoerceList(`['x', ['y', 'z']]`))
}

func TestCoerceList_DelimiterFallback(t *testing.T) {
	t.Parallel()

	// semicolon preferred over comma
	assert.Equal(t, []string{"a,b", "c"}, CoerceList("a,b;c"))
	assert.Equal(t, []string{"a", "b"}, CoerceList("a, b"))
	assert.Equal(t, []string{"single"}, CoerceList("single"))
	assert.Empty(t, CoerceList(""))
	assert.Empty(t, CoerceList("NaN"))
}

func TestCoerceList_MalformedLiteralDowngradesToSplitting(t *testing.T) {
	t.Parallel()

	// unterminated literal falls through to delimiter splitting
	assert.Equal(t, []string{"['a'", "'b'"}, CoerceList("['a', 'b'"))
	assert.Equal(t, []string{"[oops]"}, CoerceList("[oops]"))
}

func TestCoerceList_Idempotence(t *testing.T) {
	t.Parallel()

	// joining with ";" and re-splitting yields the same content for
	// elements without embedded delimiters
	original := []string{"a.jpg", "b.png", "c.gif"}
	joined := strings.Join(original, ";")
	assert.Equal(t, original, CoerceList(joined))
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	parsed, ok := ParseTimeOfDay("10:30:00")
	require.True(t, ok)
	assert.Equal(t, 10, parsed.Hour())
	assert.Equal(t, 30, parsed.Minute())

	_, ok = ParseTimeOfDay("not a time")
	assert.False(t, ok)
	_, ok = ParseTimeOfDay("")
	assert.False(t, ok)
}

func TestParseIntCell(t *testing.T) {
	t.Parallel()

	v := parseIntCell("2017")
	require.NotNil(t, v)
	assert.Equal(t, 2017, *v)

	// pandas float spelling
	f := parseIntCell("2017.0")
	require.NotNil(t, f)
	assert.Equal(t, 2017, *f)

	assert.Nil(t, parseIntCell(""))
	assert.Nil(t, parseIntCell("NaN"))
	assert.Nil(t, parseIntCell("year"))
}
