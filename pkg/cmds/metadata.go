package cmds

import (
	"context"

	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	"github.com/go-go-golems/esmeta/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds"
	layers2 "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NewMetadataLayers returns the layers shared by all commands that read the
// cluster metadata: output formatting, connection, autocomplete and filters.
func NewMetadataLayers() ([]layers2.ParameterLayer, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create Glazed parameter layer")
	}

	esParameterLayer, err := layers.NewESParameterLayer()
	if err != nil {
		return nil, errors.Wrap(err, "could not create ES parameter layer")
	}

	autocompleteLayer, err := layers.NewAutocompleteParameterLayer()
	if err != nil {
		return nil, errors.Wrap(err, "could not create autocomplete parameter layer")
	}

	helpersLayer, err := layers.NewESHelpersParameterLayer()
	if err != nil {
		return nil, errors.Wrap(err, "could not create ES helpers parameter layer")
	}

	return []layers2.ParameterLayer{
		glazedParameterLayer,
		esParameterLayer,
		autocompleteLayer,
		helpersLayer,
	}, nil
}

func WithMetadataLayers() (cmds.CommandDescriptionOption, error) {
	layers_, err := NewMetadataLayers()
	if err != nil {
		return nil, err
	}
	return cmds.WithLayersList(layers_...), nil
}

// NewPollerFromParsedLayers creates a poller on a fresh store, talking to
// the cluster configured in the es-connection layer.
func NewPollerFromParsedLayers(
	parsedLayers *layers2.ParsedLayers,
	options ...autocomplete.PollerOption,
) (*autocomplete.Poller, *layers.AutocompleteSettings, error) {
	client, err := layers.NewSearchClientFromParsedLayers(parsedLayers)
	if err != nil {
		return nil, nil, err
	}

	autocompleteSettings, err := layers.NewAutocompleteSettingsFromParsedLayers(parsedLayers)
	if err != nil {
		return nil, nil, err
	}

	options_ := append(autocompleteSettings.PollerOptions(), options...)
	poller := autocomplete.NewPoller(autocomplete.NewStore(), client, options_...)
	return poller, autocompleteSettings, nil
}

// StoreLoader provides the store a metadata command reads from.
type StoreLoader func(ctx context.Context, parsedLayers *layers2.ParsedLayers) (*autocomplete.Store, error)

// StaticStore always answers with store, typically the one kept up to date
// by a running poller.
func StaticStore(store *autocomplete.Store) StoreLoader {
	return func(ctx context.Context, parsedLayers *layers2.ParsedLayers) (*autocomplete.Store, error) {
		return store, nil
	}
}

// LoadStore retrieves the metadata once. Unlike the background poller, a
// section that fails to load is reported as an error.
func LoadStore(ctx context.Context, parsedLayers *layers2.ParsedLayers) (*autocomplete.Store, error) {
	poller, autocompleteSettings, err := NewPollerFromParsedLayers(parsedLayers)
	if err != nil {
		return nil, err
	}

	toRetrieve, err := autocompleteSettings.ToRetrieve()
	if err != nil {
		return nil, err
	}

	update := poller.Fetch(ctx, toRetrieve)
	if err := UpdateError(update); err != nil {
		return nil, err
	}

	log.Debug().Interface("stats", poller.Store().Stats()).Msg("Loaded autocomplete metadata")
	return poller.Store(), nil
}

// UpdateError returns the first section error of an update.
func UpdateError(update autocomplete.Update) error {
	for _, section := range []autocomplete.SectionResult{update.Mappings, update.Aliases, update.Templates} {
		if section.Err != nil {
			return errors.Wrapf(section.Err, "could not load %s", section.Endpoint)
		}
	}
	return nil
}
