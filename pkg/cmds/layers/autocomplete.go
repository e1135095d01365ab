package layers

import (
	"time"

	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const AutocompleteSlug = "autocomplete"

var retrieveChoices = []string{"true", "false", "unset"}

type AutocompleteSettings struct {
	Polling      bool   `glazed.parameter:"polling"`
	PollInterval int    `glazed.parameter:"poll-interval"`
	Fields       string `glazed.parameter:"retrieve-fields"`
	Indices      string `glazed.parameter:"retrieve-indices"`
	Templates    string `glazed.parameter:"retrieve-templates"`
	DataSourceID string `glazed.parameter:"data-source-id"`
}

func NewAutocompleteParameterLayer(
	options ...layers.ParameterLayerOptions,
) (*layers.ParameterLayerImpl, error) {
	options_ := append(options, layers.WithParameterDefinitions(
		parameters.NewParameterDefinition(
			"polling",
			parameters.ParameterTypeBool,
			parameters.WithHelp("Keep refreshing the autocomplete info"),
			parameters.WithDefault(true),
		),
		parameters.NewParameterDefinition(
			"poll-interval",
			parameters.ParameterTypeInteger,
			parameters.WithHelp("Seconds between two refreshes"),
			parameters.WithDefault(int(autocomplete.DefaultPollInterval/time.Second)),
		),
		parameters.NewParameterDefinition(
			"retrieve-fields",
			parameters.ParameterTypeChoice,
			parameters.WithHelp("Retrieve index mappings (true), clear them (false) or leave them alone (unset)"),
			parameters.WithChoices(retrieveChoices...),
			parameters.WithDefault("true"),
		),
		parameters.NewParameterDefinition(
			"retrieve-indices",
			parameters.ParameterTypeChoice,
			parameters.WithHelp("Retrieve index aliases (true), clear them (false) or leave them alone (unset)"),
			parameters.WithChoices(retrieveChoices...),
			parameters.WithDefault("true"),
		),
		parameters.NewParameterDefinition(
			"retrieve-templates",
			parameters.ParameterTypeChoice,
			parameters.WithHelp("Retrieve index templates (true), clear them (false) or leave them alone (unset)"),
			parameters.WithChoices(retrieveChoices...),
			parameters.WithDefault("true"),
		),
		parameters.NewParameterDefinition(
			"data-source-id",
			parameters.ParameterTypeString,
			parameters.WithHelp("Identifier sent along with every metadata request"),
		),
	))
	ret, err := layers.NewParameterLayer(AutocompleteSlug, "Autocomplete", options_...)
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func NewAutocompleteSettingsFromParsedLayers(parsedLayers *layers.ParsedLayers) (*AutocompleteSettings, error) {
	ret := &AutocompleteSettings{}
	err := parsedLayers.InitializeStruct(AutocompleteSlug, ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *AutocompleteSettings) ToRetrieve() (autocomplete.SettingsToRetrieve, error) {
	fields, err := autocomplete.ParseRetrieve(s.Fields)
	if err != nil {
		return autocomplete.SettingsToRetrieve{}, errors.Wrap(err, "invalid retrieve-fields setting")
	}
	indices, err := autocomplete.ParseRetrieve(s.Indices)
	if err != nil {
		return autocomplete.SettingsToRetrieve{}, errors.Wrap(err, "invalid retrieve-indices setting")
	}
	templates, err := autocomplete.ParseRetrieve(s.Templates)
	if err != nil {
		return autocomplete.SettingsToRetrieve{}, errors.Wrap(err, "invalid retrieve-templates setting")
	}
	return autocomplete.SettingsToRetrieve{
		Fields:    fields,
		Indices:   indices,
		Templates: templates,
	}, nil
}

func (s *AutocompleteSettings) Interval() time.Duration {
	if s.PollInterval <= 0 {
		return autocomplete.DefaultPollInterval
	}
	return time.Duration(s.PollInterval) * time.Second
}

func (s *AutocompleteSettings) PollerOptions() []autocomplete.PollerOption {
	return []autocomplete.PollerOption{
		autocomplete.WithPollInterval(s.Interval()),
		autocomplete.WithDataSourceID(s.DataSourceID),
	}
}

// ViperSettings reads the polling settings from viper every time it is
// asked, so that edits to the config file take effect on the next poll.
// Keys that are not set in viper fall back to the parsed command settings.
type ViperSettings struct {
	v        *viper.Viper
	defaults *AutocompleteSettings
}

var _ autocomplete.Settings = (*ViperSettings)(nil)

func NewViperSettings(v *viper.Viper, defaults *AutocompleteSettings) *ViperSettings {
	return &ViperSettings{v: v, defaults: defaults}
}

func (s *ViperSettings) GetPolling() bool {
	if s.v.IsSet("polling") {
		return s.v.GetBool("polling")
	}
	return s.defaults.Polling
}

func (s *ViperSettings) GetAutocomplete() autocomplete.SettingsToRetrieve {
	current := *s.defaults
	if s.v.IsSet("retrieve-fields") {
		current.Fields = s.v.GetString("retrieve-fields")
	}
	if s.v.IsSet("retrieve-indices") {
		current.Indices = s.v.GetString("retrieve-indices")
	}
	if s.v.IsSet("retrieve-templates") {
		current.Templates = s.v.GetString("retrieve-templates")
	}

	ret, err := current.ToRetrieve()
	if err != nil {
		log.Warn().Err(err).Msg("Invalid autocomplete settings, using command line values")
		ret, err = s.defaults.ToRetrieve()
		if err != nil {
			return autocomplete.SettingsToRetrieve{}
		}
	}
	return ret
}
