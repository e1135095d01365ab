package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	es_layers "github.com/go-go-golems/esmeta/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// WatchCommand keeps the autocomplete metadata of a cluster up to date and
// reports every poll cycle. The polling and retrieve-* keys of the config
// file are re-read before each cycle.
type WatchCommand struct {
	*cmds.CommandDescription
	out io.Writer
}

var _ cmds.BareCommand = &WatchCommand{}

func NewWatchCommand(options ...cmds.CommandDescriptionOption) (*WatchCommand, error) {
	esParameterLayer, err := es_layers.NewESParameterLayer()
	if err != nil {
		return nil, errors.Wrap(err, "could not create ES connection layer")
	}

	autocompleteLayer, err := es_layers.NewAutocompleteParameterLayer()
	if err != nil {
		return nil, errors.Wrap(err, "could not create autocomplete layer")
	}

	options_ := append(options,
		cmds.WithShort("Poll the cluster metadata and report every update"),
		cmds.WithLayersList(esParameterLayer, autocompleteLayer),
	)

	return &WatchCommand{
		CommandDescription: cmds.NewCommandDescription(
			"watch",
			options_...,
		),
		out: os.Stdout,
	}, nil
}

func (w *WatchCommand) Run(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
) error {
	var poller *autocomplete.Poller
	poller, autocompleteSettings, err := es_cmds.NewPollerFromParsedLayers(
		parsedLayers,
		autocomplete.WithOnUpdate(func(update autocomplete.Update) {
			w.report(poller.Store(), update)
		}),
	)
	if err != nil {
		return err
	}

	settings := watchConfig(autocompleteSettings)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		return poller.Run(ctx, settings)
	})

	return errGroup.Wait()
}

func (w *WatchCommand) report(store *autocomplete.Store, update autocomplete.Update) {
	stats := store.Stats()
	failed := []string{}
	for _, section := range []autocomplete.SectionResult{update.Mappings, update.Aliases, update.Templates} {
		if section.Err != nil {
			failed = append(failed, string(section.Endpoint))
		}
	}

	log.Info().
		Int("indices", stats.Indices).
		Int("aliases", stats.Aliases).
		Int("templates", stats.Templates).
		Int("fields", stats.Fields).
		Strs("failed", failed).
		Msg("Autocomplete metadata refreshed")

	_, _ = fmt.Fprintf(w.out, "%s indices=%d aliases=%d templates=%d fields=%d failed=%v\n",
		time.Now().Format(time.RFC3339),
		stats.Indices, stats.Aliases, stats.Templates, stats.Fields, failed)
}

// watchConfig returns poll settings backed by the viper config, reloading
// the config file whenever it changes.
func watchConfig(defaults *es_layers.AutocompleteSettings) *es_layers.ViperSettings {
	settings := es_layers.NewViperSettings(viper.GetViper(), defaults)

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Info().Str("file", e.Name).
				Bool("polling", settings.GetPolling()).
				Msg("Config changed, new settings apply from the next poll")
		})
		viper.WatchConfig()
	}

	return settings
}
