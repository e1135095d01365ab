package layers

import (
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

const ESHelpersSlug = "es-helpers"

// ESHelperSettings narrows metadata lookups down to some indices and types.
// Empty lists mean everything.
type ESHelperSettings struct {
	Indices []string `glazed.parameter:"es-index"`
	Types   []string `glazed.parameter:"es-type"`
}

func NewESHelpersParameterLayer(
	options ...layers.ParameterLayerOptions,
) (*layers.ParameterLayerImpl, error) {
	options_ := append(options, layers.WithParameterDefinitions(
		parameters.NewParameterDefinition(
			"es-index",
			parameters.ParameterTypeStringList,
			parameters.WithHelp("Indices or aliases to look at (default: all)"),
			parameters.WithDefault([]string{}),
		),
		parameters.NewParameterDefinition(
			"es-type",
			parameters.ParameterTypeStringList,
			parameters.WithHelp("Mapping types to look at (default: all)"),
			parameters.WithDefault([]string{}),
		),
	))
	ret, err := layers.NewParameterLayer(ESHelpersSlug, "ES Helpers", options_...)
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func NewESHelperSettingsFromParsedLayers(parsedLayers *layers.ParsedLayers) (*ESHelperSettings, error) {
	ret := &ESHelperSettings{}
	err := parsedLayers.InitializeStruct(ESHelpersSlug, ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}
