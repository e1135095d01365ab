package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoSettings struct {
	Names  []string `glazed.parameter:"names"`
	Prefix string   `glazed.parameter:"prefix"`
}

type echoCommand struct {
	*cmds.CommandDescription
}

func newEchoCommand(t *testing.T) *echoCommand {
	glazedLayer, err := settings.NewGlazedParameterLayers()
	require.NoError(t, err)

	return &echoCommand{
		CommandDescription: cmds.NewCommandDescription(
			"echo",
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"names",
					parameters.ParameterTypeStringList,
					parameters.WithDefault([]string{"default"}),
				),
				parameters.NewParameterDefinition(
					"prefix",
					parameters.ParameterTypeString,
					parameters.WithDefault(""),
				),
			),
			cmds.WithLayersList(glazedLayer),
		),
	}
}

func (c *echoCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &echoSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return err
	}
	for _, name := range s.Names {
		if err := gp.AddRow(ctx, types.NewRow(types.MRP("name", s.Prefix+name))); err != nil {
			return err
		}
	}
	return nil
}

func serve(t *testing.T, target string) *httptest.ResponseRecorder {
	e := echo.New()
	Register(e, "/api/", newEchoCommand(t))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeRows(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	rows := []map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	return rows
}

func TestCommandHandlerDefaults(t *testing.T) {
	rec := serve(t, "/api/echo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")

	rows := decodeRows(t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "default", rows[0]["name"])
}

func TestCommandHandlerQueryParameters(t *testing.T) {
	rec := serve(t, "/api/echo?names=a&names=b&prefix=x-")
	require.Equal(t, http.StatusOK, rec.Code)

	rows := decodeRows(t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "x-a", rows[0]["name"])
	assert.Equal(t, "x-b", rows[1]["name"])
}

func TestCommandHandlerOutputFormat(t *testing.T) {
	rec := serve(t, "/api/echo?output=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Body.String(), "default")
}

func TestRegisterListsCommands(t *testing.T) {
	rec := serve(t, "/api")
	require.Equal(t, http.StatusOK, rec.Code)

	body := map[string][]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"echo"}, body["commands"])
}

func TestCommandHandlerUnknownRoute(t *testing.T) {
	rec := serve(t, "/api/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
