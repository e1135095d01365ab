package cmds

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	es_layers "github.com/go-go-golems/esmeta/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/middlewares/row"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"
)

type InfoCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = &InfoCommand{}

type InfoSettings struct {
	Full bool `glazed.parameter:"full"`
}

func NewInfoCommand() (*InfoCommand, error) {
	metadataLayers, err := es_cmds.WithMetadataLayers()
	if err != nil {
		return nil, err
	}

	return &InfoCommand{
		CommandDescription: cmds.NewCommandDescription(
			"info",
			cmds.WithShort("Prints information about the cluster and its autocomplete metadata"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"full",
					parameters.ParameterTypeBool,
					parameters.WithHelp("Prints the full version response"),
					parameters.WithDefault(false),
				),
			),
			metadataLayers,
		),
	}, nil
}

func (i *InfoCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &InfoSettings{}
	err := parsedLayers.InitializeStruct(layers.DefaultSlug, s)
	if err != nil {
		return err
	}

	client, err := es_layers.NewSearchClientFromParsedLayers(parsedLayers)
	if err != nil {
		return err
	}

	if tp, ok := gp.(*middlewares.TableProcessor); ok {
		tp.AddRowMiddleware(
			row.NewReorderColumnOrderMiddleware(
				[]string{"client_version", "version", "cluster_name"},
			),
		)
	}

	body, err := client.Send(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return err
	}

	info := types.NewRow()
	err = json.Unmarshal(body, &info)
	if err != nil {
		return errors.Wrap(err, "could not parse cluster info")
	}
	if !s.Full {
		if version, ok := info.Get("version"); ok {
			if version_, ok := version.(map[string]interface{}); ok {
				info.Set("version", version_["number"])
			}
		}
	}
	info.Set("client_version", elasticsearch.Version)

	store, err := es_cmds.LoadStore(ctx, parsedLayers)
	if err != nil {
		return err
	}
	stats := store.Stats()
	info.Set("indices", stats.Indices)
	info.Set("aliases", stats.Aliases)
	info.Set("templates", stats.Templates)
	info.Set("fields", stats.Fields)

	return gp.AddRow(ctx, info)
}
