package layers

import (
	"testing"
	"time"

	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultAutocompleteSettings() *AutocompleteSettings {
	return &AutocompleteSettings{
		Polling:      true,
		PollInterval: 60,
		Fields:       "true",
		Indices:      "true",
		Templates:    "true",
	}
}

func TestAutocompleteSettingsToRetrieve(t *testing.T) {
	s := &AutocompleteSettings{Fields: "true", Indices: "false", Templates: "unset"}
	toRetrieve, err := s.ToRetrieve()
	require.NoError(t, err)
	assert.Equal(t, autocomplete.SettingsToRetrieve{
		Fields:    autocomplete.RetrieveFetch,
		Indices:   autocomplete.RetrieveClear,
		Templates: autocomplete.RetrieveSkip,
	}, toRetrieve)

	s.Templates = "sometimes"
	_, err = s.ToRetrieve()
	assert.Error(t, err)
}

func TestAutocompleteSettingsInterval(t *testing.T) {
	s := &AutocompleteSettings{PollInterval: 5}
	assert.Equal(t, 5*time.Second, s.Interval())

	s.PollInterval = 0
	assert.Equal(t, autocomplete.DefaultPollInterval, s.Interval())

	s.PollInterval = -3
	assert.Equal(t, autocomplete.DefaultPollInterval, s.Interval())
}

func TestViperSettingsFallsBackToDefaults(t *testing.T) {
	s := NewViperSettings(viper.New(), defaultAutocompleteSettings())
	assert.True(t, s.GetPolling())
	assert.Equal(t, autocomplete.RetrieveAll, s.GetAutocomplete())
}

func TestViperSettingsFollowsViper(t *testing.T) {
	v := viper.New()
	s := NewViperSettings(v, defaultAutocompleteSettings())

	v.Set("polling", false)
	v.Set("retrieve-fields", false)
	v.Set("retrieve-templates", "unset")
	assert.False(t, s.GetPolling())
	assert.Equal(t, autocomplete.SettingsToRetrieve{
		Fields:    autocomplete.RetrieveClear,
		Indices:   autocomplete.RetrieveFetch,
		Templates: autocomplete.RetrieveSkip,
	}, s.GetAutocomplete())

	v.Set("polling", true)
	assert.True(t, s.GetPolling())
}

func TestViperSettingsIgnoresInvalidValues(t *testing.T) {
	v := viper.New()
	v.Set("retrieve-indices", "maybe")
	s := NewViperSettings(v, defaultAutocompleteSettings())
	assert.Equal(t, autocomplete.RetrieveAll, s.GetAutocomplete())
}
