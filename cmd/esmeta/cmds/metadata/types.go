package metadata

import (
	"context"

	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/go-go-golems/esmeta/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds"
	layers2 "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/types"
)

type TypesCommand struct {
	*cmds.CommandDescription
	loadStore es_cmds.StoreLoader
}

var _ cmds.GlazeCommand = &TypesCommand{}

func NewTypesCommand(loadStore es_cmds.StoreLoader) (*TypesCommand, error) {
	metadataLayers, err := es_cmds.WithMetadataLayers()
	if err != nil {
		return nil, err
	}

	return &TypesCommand{
		CommandDescription: cmds.NewCommandDescription(
			"types",
			cmds.WithShort("Lists the mapping types of the given indices"),
			cmds.WithLong("Lists the mapping types of the given indices. Typeless mappings show up as \"properties\"."),
			metadataLayers,
		),
		loadStore: loadStore,
	}, nil
}

func (c *TypesCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers2.ParsedLayers,
	gp middlewares.Processor,
) error {
	s, err := layers.NewESHelperSettingsFromParsedLayers(parsedLayers)
	if err != nil {
		return err
	}

	store, err := c.loadStore(ctx, parsedLayers)
	if err != nil {
		return err
	}

	for _, type_ := range store.GetTypes(s.Indices) {
		if err := gp.AddRow(ctx, types.NewRow(types.MRP("type", type_))); err != nil {
			return err
		}
	}

	return nil
}
