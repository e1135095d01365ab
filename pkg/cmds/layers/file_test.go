package layers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-go-golems/esmeta/pkg/autocomplete"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileClientServesFixtures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "_mapping.json", `{"logs-1": {"mappings": {"properties": {"b": {"type": "keyword"}, "a": {"type": "text"}}}}}`)
	writeFixture(t, dir, "_aliases.yaml", `
logs-1:
  aliases:
    logs: {}
`)
	writeFixture(t, dir, "_cat_indices.yml", `
- index: logs-1
  health: yellow
`)

	c := NewFileClient(dir)

	body, err := c.Send(context.Background(), http.MethodGet, "/_mapping", nil, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"logs-1": {"mappings": {"properties": {"b": {"type": "keyword"}, "a": {"type": "text"}}}}}`, string(body))

	body, err = c.Send(context.Background(), http.MethodGet, "_aliases", nil, "console-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"logs-1": {"aliases": {"logs": {}}}}`, string(body))

	body, err = c.Send(context.Background(), http.MethodGet, "_cat/indices?format=json", nil, "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"index": "logs-1", "health": "yellow"}]`, string(body))

	body, err = c.Send(context.Background(), http.MethodGet, "_template", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
}

func TestFileClientRejectsRequests(t *testing.T) {
	c := NewFileClient(t.TempDir())

	_, err := c.Send(context.Background(), http.MethodPost, "_mapping", nil, "")
	assert.Error(t, err)

	_, err = c.Send(context.Background(), http.MethodGet, "../secrets", nil, "")
	assert.Error(t, err)

	body, err := c.Send(context.Background(), http.MethodGet, "/", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Send(ctx, http.MethodGet, "_mapping", nil, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileClientListIndices(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "_mapping.yaml", `
zeta:
  mappings:
    properties:
      a: {type: text}
alpha:
  mappings:
    properties:
      b: {type: keyword}
`)

	c := NewFileClient(dir)
	body, err := c.ListIndices(context.Background())
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "zeta", rows[0]["index"])
	assert.Equal(t, "alpha", rows[1]["index"])
}

func TestYAMLToJSONKeepsKeyOrder(t *testing.T) {
	body, err := YAMLToJSON([]byte(`
idx:
  mappings:
    properties:
      zebra: {type: keyword}
      apple: {type: long}
      mango:
        type: text
        fields:
          raw: {type: keyword}
`))
	require.NoError(t, err)

	s := autocomplete.NewStore()
	require.NoError(t, s.LoadMappings(body))
	assert.Equal(t, []autocomplete.Field{
		{Name: "zebra", Type: "keyword"},
		{Name: "apple", Type: "long"},
		{Name: "mango", Type: "text"},
		{Name: "mango.raw", Type: "keyword"},
	}, s.GetFields(nil, nil))
}

func TestYAMLToJSONEdgeCases(t *testing.T) {
	body, err := YAMLToJSON([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	body, err = YAMLToJSON([]byte("base: &base {type: keyword}\ncopy: *base\n"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"base": {"type": "keyword"}, "copy": {"type": "keyword"}}`, string(body))

	_, err = YAMLToJSON([]byte("a: [b"))
	assert.Error(t, err)
}
