package api

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/middlewares"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/cmds/runner"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// UpdateFromQuery sets every parameter named in the query string. List
// parameters take repeated keys (?es-index=a&es-index=b).
func UpdateFromQuery(values url.Values, options ...parameters.ParseStepOption) middlewares.Middleware {
	return func(next middlewares.HandlerFunc) middlewares.HandlerFunc {
		return func(layers_ *layers.ParameterLayers, parsedLayers *layers.ParsedLayers) error {
			err := next(layers_, parsedLayers)
			if err != nil {
				return err
			}

			return layers_.ForEachE(func(key string, l layers.ParameterLayer) error {
				parsedLayer := parsedLayers.GetOrCreate(l)
				return l.GetParameterDefinitions().ForEachE(func(p *parameters.ParameterDefinition) error {
					v, ok := values[p.Name]
					if !ok {
						return nil
					}
					options_ := append([]parameters.ParseStepOption{
						parameters.WithParseStepSource("query"),
					}, options...)
					pp, err := p.ParseParameter(v, options_...)
					if err != nil {
						return errors.Wrapf(err, "invalid value for %s", p.Name)
					}
					parsedLayer.Parameters.Update(p.Name, pp)
					return nil
				})
			})
		}
	}
}

// NewCommandHandler runs cmd with the parameters of the request query and
// renders its rows. The output format defaults to json.
func NewCommandHandler(cmd cmds.GlazeCommand) echo.HandlerFunc {
	return func(c echo.Context) error {
		parsedLayers := layers.NewParsedLayers()
		err := middlewares.ExecuteMiddlewares(
			cmd.Description().Layers,
			parsedLayers,
			UpdateFromQuery(c.QueryParams()),
			middlewares.UpdateFromMap(map[string]map[string]interface{}{
				settings.GlazedSlug: {"output": "json"},
			}),
			middlewares.SetFromDefaults(parameters.WithParseStepSource(parameters.SourceDefaults)),
		)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		buf := &bytes.Buffer{}
		err = runner.RunCommand(c.Request().Context(), cmd, parsedLayers, runner.WithWriter(buf))
		if err != nil {
			log.Warn().Err(err).Str("command", cmd.Description().Name).Msg("Could not run command")
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		return c.Blob(http.StatusOK, contentType(parsedLayers), buf.Bytes())
	}
}

func contentType(parsedLayers *layers.ParsedLayers) string {
	output, ok := parsedLayers.GetParameter(settings.GlazedSlug, "output")
	if !ok {
		return echo.MIMEApplicationJSONCharsetUTF8
	}
	switch output.Value {
	case "json":
		return echo.MIMEApplicationJSONCharsetUTF8
	case "yaml":
		return "application/yaml"
	case "csv":
		return "text/csv; charset=UTF-8"
	default:
		return echo.MIMETextPlainCharsetUTF8
	}
}

// Register mounts every command under prefix, one GET route per command name.
func Register(router *echo.Echo, prefix string, commands ...cmds.GlazeCommand) {
	prefix = strings.TrimSuffix(prefix, "/")
	names := []string{}
	for _, cmd := range commands {
		name := cmd.Description().Name
		router.GET(prefix+"/"+name, NewCommandHandler(cmd))
		names = append(names, name)
	}
	router.GET(prefix, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"commands": names})
	})
}
