package autocomplete

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field is a single suggestion candidate. An empty Type means the mapping
// did not declare one.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Properties maps field names to their mapping, in the order the cluster
// returned them.
type Properties = orderedmap.OrderedMap[string, *FieldMapping]

// FieldMapping is the part of a field mapping that matters for suggestions.
//
// Decoding sniffs the shape of every key: a value of an unexpected JSON type
// is ignored instead of failing the whole mapping.
type FieldMapping struct {
	Type       string
	IndexName  string
	Path       string
	Enabled    *bool
	Properties *Properties
	Fields     *Properties
}

func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	*m = FieldMapping{}
	if !isJSONObject(data) {
		return nil
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}

	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case "type":
			m.Type = sniffString(pair.Value)
		case "index_name":
			m.IndexName = sniffString(pair.Value)
		case "path":
			m.Path = sniffString(pair.Value)
		case "enabled":
			var enabled bool
			if err := json.Unmarshal(pair.Value, &enabled); err == nil {
				m.Enabled = &enabled
			}
		case "properties":
			props, err := decodeProperties(pair.Value)
			if err != nil {
				return err
			}
			m.Properties = props
		case "fields":
			props, err := decodeProperties(pair.Value)
			if err != nil {
				return err
			}
			m.Fields = props
		}
	}

	return nil
}

func isJSONObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func sniffString(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s
}

// decodeProperties returns nil for anything but a JSON object.
func decodeProperties(data json.RawMessage) (*Properties, error) {
	if !isJSONObject(data) {
		return nil, nil
	}
	props := orderedmap.New[string, *FieldMapping]()
	if err := json.Unmarshal(data, props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetFieldNamesFromProperties flattens a properties object into a list of
// fields without duplicate (name, type) pairs.
func GetFieldNamesFromProperties(properties *Properties) []Field {
	if properties == nil {
		return []Field{}
	}

	ret := []Field{}
	for pair := properties.Oldest(); pair != nil; pair = pair.Next() {
		ret = append(ret, GetFieldNamesFromFieldMapping(pair.Key, pair.Value)...)
	}

	return DedupFields(ret)
}

// GetFieldNamesFromFieldMapping returns the fields contributed by a single
// field mapping, including object sub-properties and multi-fields.
func GetFieldNamesFromFieldMapping(fieldName string, mapping *FieldMapping) []Field {
	if mapping == nil {
		return []Field{{Name: fieldName}}
	}
	if mapping.Enabled != nil && !*mapping.Enabled {
		return []Field{}
	}

	if mapping.Properties != nil {
		// object fields have no descriptor of their own
		nested := GetFieldNamesFromProperties(mapping.Properties)
		return applyPathSettings(fieldName, mapping, nested)
	}

	ret := Field{Name: fieldName, Type: mapping.Type}
	if mapping.IndexName != "" {
		ret.Name = mapping.IndexName
	}

	if mapping.Fields != nil {
		nested := []Field{}
		for pair := mapping.Fields.Oldest(); pair != nil; pair = pair.Next() {
			nested = append(nested, GetFieldNamesFromFieldMapping(pair.Key, pair.Value)...)
		}
		nested = applyPathSettings(fieldName, mapping, nested)
		return append([]Field{ret}, nested...)
	}

	return []Field{ret}
}

// applyPathSettings prefixes nested names with the parent name unless the
// mapping sets a path other than "full".
func applyPathSettings(fieldName string, mapping *FieldMapping, nested []Field) []Field {
	pathType := mapping.Path
	if pathType == "" {
		pathType = "full"
	}
	if pathType != "full" {
		return nested
	}

	for i := range nested {
		nested[i].Name = fieldName + "." + nested[i].Name
	}
	return nested
}

// DedupFields drops every field whose (name, type) pair was already seen,
// keeping the first occurrence.
func DedupFields(fields []Field) []Field {
	seen := make(map[Field]struct{}, len(fields))
	ret := make([]Field, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		ret = append(ret, f)
	}
	return ret
}
