package layers

import (
	"crypto/tls"
	_ "embed"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/opensearch-project/opensearch-go/v4"
)

//go:embed "flags/es.yaml"
var esFlagsYaml []byte

const EsConnectionSlug = "es-connection"

const (
	ClientTypeElasticsearch = "elasticsearch"
	ClientTypeOpenSearch    = "opensearch"
	ClientTypeFile          = "file"
)

type EsParameterLayer struct {
	*layers.ParameterLayerImpl `yaml:",inline"`
}

type EsClientSettings struct {
	ClientType              string               `glazed.parameter:"client-type"`
	FixturesDir             string               `glazed.parameter:"fixtures-dir"`
	Addresses               []string             `glazed.parameter:"addresses"`
	Username                string               `glazed.parameter:"username"`
	Password                string               `glazed.parameter:"password"`
	CloudId                 string               `glazed.parameter:"cloud-id"`
	ApiKey                  string               `glazed.parameter:"api-key"`
	ServiceToken            string               `glazed.parameter:"service-token"`
	CertificateFingerprint  string               `glazed.parameter:"certificate-fingerprint"`
	RetryOnStatus           []int                `glazed.parameter:"retry-on-status"`
	DisableRetry            bool                 `glazed.parameter:"disable-retry"`
	MaxRetries              int                  `glazed.parameter:"max-retries"`
	EnableMetrics           bool                 `glazed.parameter:"enable-metrics"`
	EnableDebugLogger       bool                 `glazed.parameter:"enable-debug-logger"`
	EnableCompatibilityMode bool                 `glazed.parameter:"enable-compatibility-mode"`
	InsecureSkipVerify      bool                 `glazed.parameter:"insecure-skip-verify"`
	CACert                  *parameters.FileData `glazed.parameter:"ca-cert"`
	RetryBackoff            *int                 `glazed.parameter:"retry-backoff"`
	CompressRequestBody     bool                 `glazed.parameter:"compress-request-body"`
	DiscoverNodesOnStart    bool                 `glazed.parameter:"discover-nodes-on-start"`
	DiscoverNodesInterval   *int                 `glazed.parameter:"discover-nodes-interval"`
	DisableMetaHeader       bool                 `glazed.parameter:"disable-meta-header"`
}

func NewESParameterLayer(options ...layers.ParameterLayerOptions) (*EsParameterLayer, error) {
	ret, err := layers.NewParameterLayerFromYAML(esFlagsYaml, options...)
	if err != nil {
		return nil, err
	}
	return &EsParameterLayer{ParameterLayerImpl: ret}, nil
}

func NewESClientSettingsFromParsedLayers(parsedLayers *layers.ParsedLayers) (*EsClientSettings, error) {
	ret := &EsClientSettings{}
	err := parsedLayers.InitializeStruct(EsConnectionSlug, ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *EsClientSettings) httpTransport() *http.Transport {
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: s.InsecureSkipVerify,
		},
	}
}

func (s *EsClientSettings) caCert() []byte {
	if s.CACert == nil {
		return nil
	}
	return s.CACert.RawContent
}

func (s *EsClientSettings) retryBackoff() func(int) time.Duration {
	if s.RetryBackoff == nil {
		return nil
	}
	backoff := *s.RetryBackoff
	return func(attempt int) time.Duration {
		return time.Duration(backoff) * time.Second
	}
}

func (s *EsClientSettings) discoverNodesInterval() time.Duration {
	if s.DiscoverNodesInterval == nil {
		return 0
	}
	return time.Duration(*s.DiscoverNodesInterval) * time.Second
}

func (s *EsClientSettings) ElasticsearchConfig() elasticsearch.Config {
	return elasticsearch.Config{
		Addresses:               s.Addresses,
		Username:                s.Username,
		Password:                s.Password,
		CloudID:                 s.CloudId,
		APIKey:                  s.ApiKey,
		ServiceToken:            s.ServiceToken,
		CertificateFingerprint:  s.CertificateFingerprint,
		RetryOnStatus:           s.RetryOnStatus,
		DisableRetry:            s.DisableRetry,
		MaxRetries:              s.MaxRetries,
		EnableMetrics:           s.EnableMetrics,
		EnableDebugLogger:       s.EnableDebugLogger,
		EnableCompatibilityMode: s.EnableCompatibilityMode,
		Transport:               s.httpTransport(),
		CACert:                  s.caCert(),
		RetryBackoff:            s.retryBackoff(),
		CompressRequestBody:     s.CompressRequestBody,
		DiscoverNodesOnStart:    s.DiscoverNodesOnStart,
		DiscoverNodesInterval:   s.discoverNodesInterval(),
		DisableMetaHeader:       s.DisableMetaHeader,
	}
}

// OpenSearchConfig maps the connection settings that have an OpenSearch
// counterpart. Elastic Cloud ids, API keys and service tokens have none.
func (s *EsClientSettings) OpenSearchConfig() opensearch.Config {
	return opensearch.Config{
		Addresses:             s.Addresses,
		Username:              s.Username,
		Password:              s.Password,
		RetryOnStatus:         s.RetryOnStatus,
		DisableRetry:          s.DisableRetry,
		MaxRetries:            s.MaxRetries,
		EnableMetrics:         s.EnableMetrics,
		EnableDebugLogger:     s.EnableDebugLogger,
		Transport:             s.httpTransport(),
		CACert:                s.caCert(),
		RetryBackoff:          s.retryBackoff(),
		CompressRequestBody:   s.CompressRequestBody,
		DiscoverNodesOnStart:  s.DiscoverNodesOnStart,
		DiscoverNodesInterval: s.discoverNodesInterval(),
	}
}
