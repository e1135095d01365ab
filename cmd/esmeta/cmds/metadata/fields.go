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

type FieldsCommand struct {
	*cmds.CommandDescription
	loadStore es_cmds.StoreLoader
}

var _ cmds.GlazeCommand = &FieldsCommand{}

func NewFieldsCommand(loadStore es_cmds.StoreLoader) (*FieldsCommand, error) {
	metadataLayers, err := es_cmds.WithMetadataLayers()
	if err != nil {
		return nil, err
	}

	return &FieldsCommand{
		CommandDescription: cmds.NewCommandDescription(
			"fields",
			cmds.WithShort("Lists the fields known for the given indices and types"),
			metadataLayers,
		),
		loadStore: loadStore,
	}, nil
}

func (c *FieldsCommand) RunIntoGlazeProcessor(
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

	for _, field := range store.GetFields(s.Indices, s.Types) {
		row := types.NewRow(
			types.MRP("name", field.Name),
			types.MRP("type", field.Type),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}

	return nil
}
