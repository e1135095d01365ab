package indices

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/go-go-golems/esmeta/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds"
	layers2 "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/middlewares/row"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"
)

var catIndicesColumns = []string{
	"health", "status", "index", "aliases", "fields", "uuid", "pri", "rep",
	"docs.count", "docs.deleted", "store.size", "pri.store.size",
}

// IndicesListCommand lists _cat/indices, optionally joined with the
// autocomplete metadata of each index.
type IndicesListCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = &IndicesListCommand{}

type IndicesListSettings struct {
	Full     bool `glazed.parameter:"full"`
	Metadata bool `glazed.parameter:"metadata"`
}

func NewIndicesListCommand() (*IndicesListCommand, error) {
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

	return &IndicesListCommand{
		CommandDescription: cmds.NewCommandDescription(
			"ls",
			cmds.WithShort("Lists the indices of the cluster as reported by _cat/indices"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"full",
					parameters.ParameterTypeBool,
					parameters.WithHelp("Print every _cat/indices column instead of health, status and index"),
					parameters.WithDefault(false),
				),
				parameters.NewParameterDefinition(
					"metadata",
					parameters.ParameterTypeBool,
					parameters.WithHelp("Add the aliases and field count of each index from the autocomplete metadata"),
					parameters.WithDefault(false),
				),
			),
			cmds.WithLayersList(
				glazedParameterLayer,
				esParameterLayer,
				autocompleteLayer,
			),
		),
	}, nil
}

func (i *IndicesListCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers2.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &IndicesListSettings{}
	err := parsedLayers.InitializeStruct(layers2.DefaultSlug, s)
	if err != nil {
		return err
	}

	client, err := layers.NewSearchClientFromParsedLayers(parsedLayers)
	if err != nil {
		return err
	}

	rows, err := catIndices(ctx, client)
	if err != nil {
		return err
	}

	var store *autocomplete.Store
	if s.Metadata {
		store, err = es_cmds.LoadStore(ctx, parsedLayers)
		if err != nil {
			return err
		}
	}
	aliases := aliasesByIndex(store)

	if tp, ok := gp.(*middlewares.TableProcessor); ok {
		tp.AddRowMiddleware(row.NewReorderColumnOrderMiddleware(catIndicesColumns))
	}

	for _, index := range rows {
		if !s.Full {
			index = shortRow(index)
		}
		if store != nil {
			name := indexName(index)
			index.Set("aliases", strings.Join(aliases[name], ","))
			index.Set("fields", len(store.GetFields([]string{name}, nil)))
		}
		err = gp.AddRow(ctx, index)
		if err != nil {
			return err
		}
	}
	return nil
}

func catIndices(ctx context.Context, client layers.SearchClient) ([]types.Row, error) {
	body, err := client.ListIndices(ctx)
	if err != nil {
		return nil, err
	}

	rows := []types.Row{}
	err = json.Unmarshal(body, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse _cat/indices response")
	}
	return rows, nil
}

// aliasesByIndex inverts the alias table of store. A nil store has no aliases.
func aliasesByIndex(store *autocomplete.Store) map[string][]string {
	ret := map[string][]string{}
	if store == nil {
		return ret
	}

	indices := store.GetIndices(false)
	for _, name := range store.GetIndices(true) {
		if name == autocomplete.AllAlias || slices.Contains(indices, name) {
			continue
		}
		for _, index := range store.ExpandAliases(name) {
			ret[index] = append(ret[index], name)
		}
	}
	return ret
}

func indexName(index types.Row) string {
	name, _ := index.Get("index")
	s, _ := name.(string)
	return s
}

func shortRow(index types.Row) types.Row {
	health, _ := index.Get("health")
	status, _ := index.Get("status")

	return types.NewRow(
		types.MRP("health", health),
		types.MRP("status", status),
		types.MRP("index", indexName(index)),
	)
}
