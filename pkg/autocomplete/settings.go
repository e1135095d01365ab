package autocomplete

import (
	"strings"

	"github.com/pkg/errors"
)

// Retrieve tells the poller what to do with one section of the metadata.
type Retrieve int

const (
	// RetrieveSkip leaves the section as it is.
	RetrieveSkip Retrieve = iota
	// RetrieveFetch fetches the section from the cluster and reloads it.
	RetrieveFetch
	// RetrieveClear empties the section without talking to the cluster.
	RetrieveClear
)

func (r Retrieve) String() string {
	switch r {
	case RetrieveFetch:
		return "true"
	case RetrieveClear:
		return "false"
	default:
		return "unset"
	}
}

// ParseRetrieve accepts the boolean spelling used in settings files ("true",
// "false") as well as "fetch", "clear" and "skip". An empty string or "unset"
// is RetrieveSkip.
func ParseRetrieve(s string) (Retrieve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "fetch", "on", "yes":
		return RetrieveFetch, nil
	case "false", "clear", "off", "no":
		return RetrieveClear, nil
	case "", "unset", "skip":
		return RetrieveSkip, nil
	default:
		return RetrieveSkip, errors.Errorf("invalid autocomplete setting %q", s)
	}
}

// SettingsToRetrieve selects which sections a poll cycle refreshes.
type SettingsToRetrieve struct {
	Fields    Retrieve
	Indices   Retrieve
	Templates Retrieve
}

// RetrieveAll fetches every section.
var RetrieveAll = SettingsToRetrieve{
	Fields:    RetrieveFetch,
	Indices:   RetrieveFetch,
	Templates: RetrieveFetch,
}

// Settings is read again every time the poller decides whether to run the
// next cycle, so implementations should return live values.
type Settings interface {
	GetPolling() bool
	GetAutocomplete() SettingsToRetrieve
}

type StaticSettings struct {
	Polling      bool
	Autocomplete SettingsToRetrieve
}

var _ Settings = (*StaticSettings)(nil)

func (s *StaticSettings) GetPolling() bool {
	return s.Polling
}

func (s *StaticSettings) GetAutocomplete() SettingsToRetrieve {
	return s.Autocomplete
}
