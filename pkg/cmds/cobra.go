package cmds

import (
	"fmt"
	"os"

	"github.com/go-go-golems/esmeta/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	layers2 "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/middlewares"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/spf13/cobra"
)

// ViperLayers are the layers that can be set from the config file and the
// environment.
var ViperLayers = []string{
	layers.EsConnectionSlug,
	layers.AutocompleteSlug,
}

func BuildCobraCommandWithEsmetaMiddlewares(
	cmd cmds.Command,
	options ...cli.CobraOption,
) (*cobra.Command, error) {
	options_ := append([]cli.CobraOption{
		cli.WithCobraMiddlewaresFunc(GetCobraCommandEsmetaMiddlewares),
		cli.WithCobraShortHelpLayers(layers2.DefaultSlug, layers.EsConnectionSlug, layers.AutocompleteSlug),
		cli.WithProfileSettingsLayer(),
		cli.WithCreateCommandSettingsLayer(),
	}, options...)

	return cli.BuildCobraCommandFromCommand(cmd, options_...)
}

// GetCobraCommandEsmetaMiddlewares resolves parameters in the order flags,
// arguments, parameter file, profile, viper and finally defaults.
func GetCobraCommandEsmetaMiddlewares(
	parsedCommandLayers *layers2.ParsedLayers,
	cmd *cobra.Command,
	args []string,
) ([]middlewares.Middleware, error) {
	commandSettings := &cli.CommandSettings{}
	err := parsedCommandLayers.InitializeStruct(cli.CommandSettingsSlug, commandSettings)
	if err != nil {
		return nil, err
	}

	middlewares_ := []middlewares.Middleware{
		middlewares.ParseFromCobraCommand(cmd,
			parameters.WithParseStepSource("cobra"),
		),
		middlewares.GatherArguments(args,
			parameters.WithParseStepSource("arguments"),
		),
	}

	if commandSettings.LoadParametersFromFile != "" {
		middlewares_ = append(middlewares_,
			middlewares.LoadParametersFromFile(commandSettings.LoadParametersFromFile))
	}

	profileMiddleware, err := getProfileMiddleware(parsedCommandLayers)
	if err != nil {
		return nil, err
	}

	middlewares_ = append(middlewares_,
		profileMiddleware,
		middlewares.WrapWithWhitelistedLayers(
			ViperLayers,
			middlewares.GatherFlagsFromViper(parameters.WithParseStepSource("viper")),
		),
		middlewares.SetFromDefaults(parameters.WithParseStepSource("defaults")),
	)

	return middlewares_, nil
}

// profiles live in $XDG_CONFIG_HOME/esmeta/profiles.yaml unless
// --profile-file says otherwise.
func getProfileMiddleware(parsedCommandLayers *layers2.ParsedLayers) (middlewares.Middleware, error) {
	profileSettings := &cli.ProfileSettings{}
	err := parsedCommandLayers.InitializeStruct(cli.ProfileSettingsSlug, profileSettings)
	if err != nil {
		return nil, err
	}

	xdgConfigPath, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}

	defaultProfileFile := fmt.Sprintf("%s/esmeta/profiles.yaml", xdgConfigPath)
	if profileSettings.ProfileFile == "" {
		profileSettings.ProfileFile = defaultProfileFile
	}
	if profileSettings.Profile == "" {
		profileSettings.Profile = "default"
	}

	return middlewares.GatherFlagsFromProfiles(
		defaultProfileFile,
		profileSettings.ProfileFile,
		profileSettings.Profile,
		parameters.WithParseStepSource("profiles"),
	), nil
}
