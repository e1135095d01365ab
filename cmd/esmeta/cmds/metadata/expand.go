package metadata

import (
	"context"

	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds"
	layers2 "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/types"
)

type ExpandCommand struct {
	*cmds.CommandDescription
	loadStore es_cmds.StoreLoader
}

var _ cmds.GlazeCommand = &ExpandCommand{}

type ExpandSettings struct {
	Names []string `glazed.parameter:"names"`
}

func NewExpandCommand(loadStore es_cmds.StoreLoader) (*ExpandCommand, error) {
	metadataLayers, err := es_cmds.WithMetadataLayers()
	if err != nil {
		return nil, err
	}

	return &ExpandCommand{
		CommandDescription: cmds.NewCommandDescription(
			"expand",
			cmds.WithShort("Resolves index and alias names to concrete indices"),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"names",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Index or alias names, _all for every index"),
					parameters.WithRequired(true),
				),
			),
			metadataLayers,
		),
		loadStore: loadStore,
	}, nil
}

func (c *ExpandCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers2.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &ExpandSettings{}
	err := parsedLayers.InitializeStruct(layers2.DefaultSlug, s)
	if err != nil {
		return err
	}

	store, err := c.loadStore(ctx, parsedLayers)
	if err != nil {
		return err
	}

	for _, index := range store.ExpandAliases(s.Names...) {
		if err := gp.AddRow(ctx, types.NewRow(types.MRP("index", index))); err != nil {
			return err
		}
	}
	return nil
}
