package layers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	"github.com/go-go-golems/esmeta/pkg/helpers"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SearchClient is the narrow view of a cluster the autocomplete poller and
// the commands need.
type SearchClient interface {
	autocomplete.Transport
	// ListIndices returns the JSON output of _cat/indices.
	ListIndices(ctx context.Context) ([]byte, error)
}

// OpaqueIdHeader carries the data source id so that requests can be traced
// in the cluster's slow and audit logs.
const OpaqueIdHeader = "X-Opaque-Id"

type performer interface {
	Perform(*http.Request) (*http.Response, error)
}

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

var _ SearchClient = (*ElasticsearchClient)(nil)

func NewElasticsearchClient(settings *EsClientSettings) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(settings.ElasticsearchConfig())
	if err != nil {
		return nil, errors.Wrap(err, "could not create elasticsearch client")
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Send(
	ctx context.Context,
	method string,
	path string,
	body io.Reader,
	dataSourceID string,
) ([]byte, error) {
	return send(ctx, c.Client, method, path, body, dataSourceID)
}

func (c *ElasticsearchClient) ListIndices(ctx context.Context) ([]byte, error) {
	res, err := c.Client.Cat.Indices(
		c.Client.Cat.Indices.WithContext(ctx),
		c.Client.Cat.Indices.WithFormat("json"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not list indices")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if res.IsError() {
		return nil, responseError(res.StatusCode, body)
	}
	return body, nil
}

type OpenSearchClient struct {
	Client *opensearch.Client
}

var _ SearchClient = (*OpenSearchClient)(nil)

func NewOpenSearchClient(settings *EsClientSettings) (*OpenSearchClient, error) {
	client, err := opensearch.NewClient(settings.OpenSearchConfig())
	if err != nil {
		return nil, errors.Wrap(err, "could not create opensearch client")
	}
	return &OpenSearchClient{Client: client}, nil
}

func (c *OpenSearchClient) Send(
	ctx context.Context,
	method string,
	path string,
	body io.Reader,
	dataSourceID string,
) ([]byte, error) {
	return send(ctx, c.Client, method, path, body, dataSourceID)
}

func (c *OpenSearchClient) ListIndices(ctx context.Context) ([]byte, error) {
	return send(ctx, c.Client, http.MethodGet, "_cat/indices?format=json", nil, "")
}

func send(
	ctx context.Context,
	client performer,
	method string,
	path string,
	body io.Reader,
	dataSourceID string,
) ([]byte, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create request %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if dataSourceID != "" {
		req.Header.Set(OpaqueIdHeader, dataSourceID)
	}

	log.Debug().Str("method", method).Str("path", path).Str("dataSourceId", dataSourceID).Msg("Sending request")
	res, err := client.Perform(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s %s failed", method, path)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	log.Debug().Int("statusCode", res.StatusCode).Int("bodySize", len(data)).Msg("Received response")

	if res.StatusCode > 299 {
		return nil, responseError(res.StatusCode, data)
	}
	return data, nil
}

func responseError(statusCode int, body []byte) error {
	if esError, ok := helpers.ParseErrorResponse(body); ok {
		return esError
	}
	return errors.Errorf("cluster returned status %d: %s", statusCode, string(body))
}

func NewSearchClient(settings *EsClientSettings) (SearchClient, error) {
	switch settings.ClientType {
	case ClientTypeOpenSearch:
		return NewOpenSearchClient(settings)
	case ClientTypeFile:
		if settings.FixturesDir == "" {
			return nil, errors.New("fixtures-dir is required for the file client")
		}
		return NewFileClient(settings.FixturesDir), nil
	case ClientTypeElasticsearch, "":
		return NewElasticsearchClient(settings)
	default:
		return nil, errors.Errorf("unknown client type %s", settings.ClientType)
	}
}

func NewSearchClientFromParsedLayers(parsedLayers *layers.ParsedLayers) (SearchClient, error) {
	settings, err := NewESClientSettingsFromParsedLayers(parsedLayers)
	if err != nil {
		return nil, err
	}
	return NewSearchClient(settings)
}
