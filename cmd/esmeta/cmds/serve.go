package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/esmeta/cmd/esmeta/cmds/metadata"
	"github.com/go-go-golems/esmeta/pkg/api"
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	es_layers "github.com/go-go-golems/esmeta/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/parka/pkg/server"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ServeCommand polls the cluster metadata in the background and serves the
// metadata commands over HTTP, answering from the live store.
type ServeCommand struct {
	*cmds.CommandDescription
}

var _ cmds.BareCommand = &ServeCommand{}

type ServeSettings struct {
	Debug     bool   `glazed.parameter:"debug"`
	ServePort int    `glazed.parameter:"serve-port"`
	ServeHost string `glazed.parameter:"serve-host"`
}

func NewServeCommand(options ...cmds.CommandDescriptionOption) (*ServeCommand, error) {
	esParameterLayer, err := es_layers.NewESParameterLayer()
	if err != nil {
		return nil, errors.Wrap(err, "could not create ES connection layer")
	}

	autocompleteLayer, err := es_layers.NewAutocompleteParameterLayer()
	if err != nil {
		return nil, errors.Wrap(err, "could not create autocomplete layer")
	}

	options_ := append(options,
		cmds.WithShort("Serve the autocomplete metadata over HTTP"),
		cmds.WithLong("Polls the cluster metadata and serves fields, types, indices, templates and expand under /api/<command>. Query parameters map to command flags."),
		cmds.WithFlags(
			parameters.NewParameterDefinition(
				"serve-port",
				parameters.ParameterTypeInteger,
				parameters.WithShortFlag("p"),
				parameters.WithHelp("Port to serve the API on"),
				parameters.WithDefault(8080),
			),
			parameters.NewParameterDefinition(
				"serve-host",
				parameters.ParameterTypeString,
				parameters.WithHelp("Host to serve the API on"),
				parameters.WithDefault("localhost"),
			),
			parameters.NewParameterDefinition(
				"debug",
				parameters.ParameterTypeBool,
				parameters.WithHelp("Run in debug mode (expose /debug/pprof routes)"),
				parameters.WithDefault(false),
			),
		),
		cmds.WithLayersList(esParameterLayer, autocompleteLayer),
	)

	return &ServeCommand{
		CommandDescription: cmds.NewCommandDescription(
			"serve",
			options_...,
		),
	}, nil
}

func (s *ServeCommand) Run(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
) error {
	ss := &ServeSettings{}
	err := parsedLayers.InitializeStruct(layers.DefaultSlug, ss)
	if err != nil {
		return err
	}

	poller, autocompleteSettings, err := es_cmds.NewPollerFromParsedLayers(parsedLayers)
	if err != nil {
		return err
	}
	settings := watchConfig(autocompleteSettings)

	commands, err := metadata.NewCommands(es_cmds.StaticStore(poller.Store()))
	if err != nil {
		return err
	}

	server_, err := server.NewServer(
		server.WithPort(uint16(ss.ServePort)),
		server.WithAddress(ss.ServeHost),
		server.WithGzip(),
	)
	if err != nil {
		return err
	}

	if ss.Debug {
		server_.RegisterDebugRoutes()
	}

	api.Register(server_.Router, "/api", commands...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("host", ss.ServeHost).Int("port", ss.ServePort).Msg("Serving autocomplete metadata")

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		return poller.Run(ctx, settings)
	})
	errGroup.Go(func() error {
		return server_.Run(ctx)
	})

	return errGroup.Wait()
}
