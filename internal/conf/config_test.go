package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestSettings() *Settings {
	s := &Settings{}
	s.Dataset.Path = "data/la_palma_obs_data.csv"
	s.Dataset.MaxAdditionalSources = 2
	s.ADS.Timeout = 30
	s.ADS.MaxRows = 100
	return s
}

func TestValidateSettings_Valid(t *testing.T) {
	require.NoError(t, ValidateSettings(validTestSettings()))
}

func TestValidateSettings_MissingDatasetPath(t *testing.T) {
	s := validTestSettings()
	s.Dataset.Path = ""

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset.path")
}

func TestValidateSettings_BadMaxAdditionalSources(t *testing.T) {
	s := validTestSettings()
	s.Dataset.MaxAdditionalSources = 0

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxadditionalsources")
}

func TestValidateSettings_ADSRowsOutOfRange(t *testing.T) {
	s := validTestSettings()
	s.ADS.MaxRows = 1000

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ads.maxrows")
}
