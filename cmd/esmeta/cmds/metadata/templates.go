package metadata

import (
	"context"

	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds"
	layers2 "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/types"
)

type TemplatesCommand struct {
	*cmds.CommandDescription
	loadStore es_cmds.StoreLoader
}

var _ cmds.GlazeCommand = &TemplatesCommand{}

func NewTemplatesCommand(loadStore es_cmds.StoreLoader) (*TemplatesCommand, error) {
	metadataLayers, err := es_cmds.WithMetadataLayers()
	if err != nil {
		return nil, err
	}

	return &TemplatesCommand{
		CommandDescription: cmds.NewCommandDescription(
			"templates",
			cmds.WithShort("Lists the index template names"),
			metadataLayers,
		),
		loadStore: loadStore,
	}, nil
}

func (c *TemplatesCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers2.ParsedLayers,
	gp middlewares.Processor,
) error {
	store, err := c.loadStore(ctx, parsedLayers)
	if err != nil {
		return err
	}

	for _, name := range store.GetTemplates() {
		if err := gp.AddRow(ctx, types.NewRow(types.MRP("name", name))); err != nil {
			return err
		}
	}
	return nil
}
