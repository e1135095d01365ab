package layers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// FileClient answers GET requests from fixture files, which makes it
// possible to work with a captured cluster state offline. A request for
// _mapping is served from _mapping.json, _mapping.yaml or _mapping.yml in
// Dir. Missing fixtures answer with an empty object.
type FileClient struct {
	Dir string
}

var _ SearchClient = (*FileClient)(nil)

// RootFixture answers requests for "/", the cluster info endpoint.
const RootFixture = "_root"

func NewFileClient(dir string) *FileClient {
	return &FileClient{Dir: dir}
}

func (c *FileClient) Send(
	ctx context.Context,
	method string,
	path string,
	body io.Reader,
	dataSourceID string,
) ([]byte, error) {
	if method != http.MethodGet {
		return nil, errors.Errorf("file client only supports GET, got %s", method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.Trim(path, "/")
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if strings.Contains(name, "..") {
		return nil, errors.Errorf("invalid fixture path %q", path)
	}
	if name == "" {
		name = RootFixture
	}
	name = strings.ReplaceAll(name, "/", "_")

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		fileName := filepath.Join(c.Dir, name+ext)
		data, err := os.ReadFile(fileName)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "could not read fixture %s", fileName)
		}
		log.Debug().Str("file", fileName).Str("dataSourceId", dataSourceID).Msg("Serving fixture")
		if ext == ".json" {
			return data, nil
		}
		return YAMLToJSON(data)
	}

	log.Debug().Str("dir", c.Dir).Str("path", path).Msg("No fixture found, answering with an empty object")
	return []byte("{}"), nil
}

// ListIndices lists the indices of the mapping fixture in the shape of
// _cat/indices.
func (c *FileClient) ListIndices(ctx context.Context) ([]byte, error) {
	data, err := c.Send(ctx, http.MethodGet, string(autocomplete.EndpointMappings), nil, "")
	if err != nil {
		return nil, err
	}

	store := autocomplete.NewStore()
	if err := store.LoadMappings(data); err != nil {
		return nil, err
	}

	rows := []map[string]string{}
	for _, index := range store.GetIndices(false) {
		rows = append(rows, map[string]string{
			"health": "green",
			"status": "open",
			"index":  index,
		})
	}
	return json.Marshal(rows)
}

// YAMLToJSON converts a YAML document to JSON, keeping the order of mapping
// keys.
func YAMLToJSON(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "could not parse YAML")
	}
	v, err := convertYAMLNode(&node)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func convertYAMLNode(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return convertYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return convertYAMLNode(node.Alias)
	case yaml.MappingNode:
		ret := orderedmap.New[string, interface{}]()
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := convertYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			ret.Set(node.Content[i].Value, v)
		}
		return ret, nil
	case yaml.SequenceNode:
		ret := make([]interface{}, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := convertYAMLNode(n)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
		return ret, nil
	case yaml.ScalarNode:
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "could not decode YAML value at line %d", node.Line)
		}
		return v, nil
	default:
		return nil, errors.Errorf("unsupported YAML node kind %d", node.Kind)
	}
}
