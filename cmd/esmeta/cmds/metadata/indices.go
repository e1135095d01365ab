package metadata

import (
	"context"
	"slices"

	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds"
	layers2 "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/types"
)

type IndicesCommand struct {
	*cmds.CommandDescription
	loadStore es_cmds.StoreLoader
}

var _ cmds.GlazeCommand = &IndicesCommand{}

type IndicesSettings struct {
	Aliases bool `glazed.parameter:"aliases"`
}

func NewIndicesCommand(loadStore es_cmds.StoreLoader) (*IndicesCommand, error) {
	metadataLayers, err := es_cmds.WithMetadataLayers()
	if err != nil {
		return nil, err
	}

	return &IndicesCommand{
		CommandDescription: cmds.NewCommandDescription(
			"indices",
			cmds.WithShort("Lists the known index names, optionally with aliases"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"aliases",
					parameters.ParameterTypeBool,
					parameters.WithHelp("Include alias names"),
					parameters.WithDefault(true),
				),
			),
			metadataLayers,
		),
		loadStore: loadStore,
	}, nil
}

func (c *IndicesCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers2.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &IndicesSettings{}
	err := parsedLayers.InitializeStruct(layers2.DefaultSlug, s)
	if err != nil {
		return err
	}

	store, err := c.loadStore(ctx, parsedLayers)
	if err != nil {
		return err
	}

	indices := store.GetIndices(false)
	for _, name := range store.GetIndices(s.Aliases) {
		kind := "alias"
		switch {
		case name == autocomplete.AllAlias:
			kind = "all"
		case slices.Contains(indices, name):
			kind = "index"
		}

		row := types.NewRow(
			types.MRP("name", name),
			types.MRP("kind", kind),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}

	return nil
}
