package autocomplete

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AllAlias is the reserved alias resolving to every known index.
const AllAlias = "_all"

// TypeMap maps a type name to the fields it declares. Mappings without
// types store their fields under the "properties" key.
type TypeMap = orderedmap.OrderedMap[string, []Field]

type rawObject = orderedmap.OrderedMap[string, json.RawMessage]

// Store holds the normalized metadata of a single cluster.
//
// Every Load* call replaces its section wholesale. Lookups never fail:
// unknown indices, aliases and types simply produce empty results.
type Store struct {
	mu              sync.RWMutex
	perIndexTypes   *orderedmap.OrderedMap[string, *TypeMap]
	perAliasIndices *orderedmap.OrderedMap[string, []string]
	templates       []string
}

func NewStore() *Store {
	return &Store{
		perIndexTypes:   orderedmap.New[string, *TypeMap](),
		perAliasIndices: orderedmap.New[string, []string](),
		templates:       []string{},
	}
}

// Stats summarizes what the store currently knows.
type Stats struct {
	Indices   int
	Aliases   int
	Templates int
	Fields    int
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := Stats{
		Indices:   s.perIndexTypes.Len(),
		Aliases:   s.perAliasIndices.Len(),
		Templates: len(s.templates),
	}
	for pair := s.perIndexTypes.Oldest(); pair != nil; pair = pair.Next() {
		for t := pair.Value.Oldest(); t != nil; t = t.Next() {
			ret.Fields += len(t.Value)
		}
	}
	return ret
}

func parseObject(data []byte) (*rawObject, error) {
	ret := orderedmap.New[string, json.RawMessage]()
	if len(data) == 0 || !isJSONObject(data) {
		return ret, nil
	}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadMappings replaces the per-index type maps with the content of a
// _mapping response.
//
// An index entry consisting of a single "mappings" key is unwrapped first.
// Only the "properties" key is normalized into fields. Any other top-level
// key (a type name in multi-type mappings, "dynamic", "_source", ...) is kept
// as a type with no fields.
func (s *Store) LoadMappings(data []byte) error {
	mappings, err := parseObject(data)
	if err != nil {
		return errors.Wrap(err, "could not parse mappings")
	}

	perIndexTypes := orderedmap.New[string, *TypeMap]()
	for pair := mappings.Oldest(); pair != nil; pair = pair.Next() {
		indexMapping, err := parseObject(pair.Value)
		if err != nil {
			return errors.Wrapf(err, "could not parse mapping of index %s", pair.Key)
		}

		if indexMapping.Len() == 1 {
			if wrapped, ok := indexMapping.Get("mappings"); ok && isJSONObject(wrapped) {
				indexMapping, err = parseObject(wrapped)
				if err != nil {
					return errors.Wrapf(err, "could not parse mapping of index %s", pair.Key)
				}
			}
		}

		types := orderedmap.New[string, []Field]()
		for t := indexMapping.Oldest(); t != nil; t = t.Next() {
			if t.Key != "properties" {
				types.Set(t.Key, []Field{})
				continue
			}
			props, err := decodeProperties(t.Value)
			if err != nil {
				return errors.Wrapf(err, "could not parse properties of index %s", pair.Key)
			}
			types.Set(t.Key, GetFieldNamesFromProperties(props))
		}
		perIndexTypes.Set(pair.Key, types)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.perIndexTypes = perIndexTypes
	return nil
}

// LoadAliases replaces the alias table with the content of an _aliases
// response. Indices only known through this response get an empty type map,
// and AllAlias is recomputed from the full index list.
func (s *Store) LoadAliases(data []byte) error {
	aliases, err := parseObject(data)
	if err != nil {
		return errors.Wrap(err, "could not parse aliases")
	}

	type indexAliases struct {
		index   string
		aliases []string
	}
	parsed := make([]indexAliases, 0, aliases.Len())
	for pair := aliases.Oldest(); pair != nil; pair = pair.Next() {
		entry, err := parseObject(pair.Value)
		if err != nil {
			return errors.Wrapf(err, "could not parse aliases of index %s", pair.Key)
		}
		ia := indexAliases{index: pair.Key}
		if raw, ok := entry.Get("aliases"); ok {
			names, err := parseObject(raw)
			if err != nil {
				return errors.Wrapf(err, "could not parse aliases of index %s", pair.Key)
			}
			for a := names.Oldest(); a != nil; a = a.Next() {
				ia.aliases = append(ia.aliases, a.Key)
			}
		}
		parsed = append(parsed, ia)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perAliasIndices := orderedmap.New[string, []string]()
	for _, ia := range parsed {
		if _, ok := s.perIndexTypes.Get(ia.index); !ok {
			s.perIndexTypes.Set(ia.index, orderedmap.New[string, []Field]())
		}
		for _, alias := range ia.aliases {
			// an alias named like its index is the index itself
			if alias == ia.index {
				continue
			}
			indices, _ := perAliasIndices.Get(alias)
			perAliasIndices.Set(alias, append(indices, ia.index))
		}
	}
	perAliasIndices.Set(AllAlias, s.indicesLocked(false))
	s.perAliasIndices = perAliasIndices

	return nil
}

// LoadTemplates keeps the names of the templates in a _template response.
func (s *Store) LoadTemplates(data []byte) error {
	templates, err := parseObject(data)
	if err != nil {
		return errors.Wrap(err, "could not parse templates")
	}

	names := make([]string, 0, templates.Len())
	for pair := templates.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = names
	return nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.perIndexTypes = orderedmap.New[string, *TypeMap]()
	s.perAliasIndices = orderedmap.New[string, []string]()
	s.templates = []string{}
}

// ExpandAliases resolves a list of index and alias names to the sorted,
// deduplicated list of concrete index names. Names that are not aliases are
// kept as is. An empty input yields nil, which lookups read as "all indices".
func (s *Store) ExpandAliases(indicesOrAliases ...string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expandAliasesLocked(indicesOrAliases)
}

func (s *Store) expandAliasesLocked(indicesOrAliases []string) []string {
	if len(indicesOrAliases) == 0 {
		return nil
	}

	expanded := []string{}
	for _, name := range indicesOrAliases {
		if indices, ok := s.perAliasIndices.Get(name); ok {
			expanded = append(expanded, indices...)
			continue
		}
		expanded = append(expanded, name)
	}
	slices.Sort(expanded)

	ret := make([]string, 0, len(expanded))
	for _, v := range expanded {
		if len(ret) > 0 && ret[len(ret)-1] == v {
			continue
		}
		ret = append(ret, v)
	}
	return ret
}

// GetFields returns the fields of the given indices (or aliases) restricted
// to the given types. Empty indices or types mean all of them.
func (s *Store) GetFields(indices []string, types []string) []Field {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expanded := s.expandAliasesLocked(indices)
	ret := []Field{}
	for pair := s.perIndexTypes.Oldest(); pair != nil; pair = pair.Next() {
		if len(expanded) > 0 && !slices.Contains(expanded, pair.Key) {
			continue
		}
		for t := pair.Value.Oldest(); t != nil; t = t.Next() {
			if len(types) > 0 && !slices.Contains(types, t.Key) {
				continue
			}
			ret = append(ret, t.Value...)
		}
	}

	return DedupFields(ret)
}

// GetTypes returns the type names of the given indices (or aliases), without
// duplicates. Empty indices mean all of them.
func (s *Store) GetTypes(indices []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expanded := s.expandAliasesLocked(indices)
	ret := []string{}
	seen := map[string]struct{}{}
	for pair := s.perIndexTypes.Oldest(); pair != nil; pair = pair.Next() {
		if len(expanded) > 0 && !slices.Contains(expanded, pair.Key) {
			continue
		}
		for t := pair.Value.Oldest(); t != nil; t = t.Next() {
			if _, ok := seen[t.Key]; ok {
				continue
			}
			seen[t.Key] = struct{}{}
			ret = append(ret, t.Key)
		}
	}
	return ret
}

// GetIndices returns every known index name, followed by every alias name
// when includeAliases is set. Names are not deduplicated across the two.
func (s *Store) GetIndices(includeAliases bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indicesLocked(includeAliases)
}

func (s *Store) indicesLocked(includeAliases bool) []string {
	ret := make([]string, 0, s.perIndexTypes.Len()+s.perAliasIndices.Len())
	for pair := s.perIndexTypes.Oldest(); pair != nil; pair = pair.Next() {
		ret = append(ret, pair.Key)
	}
	if includeAliases {
		for pair := s.perAliasIndices.Oldest(); pair != nil; pair = pair.Next() {
			ret = append(ret, pair.Key)
		}
	}
	return ret
}

func (s *Store) GetTemplates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]string, len(s.templates))
	copy(ret, s.templates)
	return ret
}
