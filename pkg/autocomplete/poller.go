package autocomplete

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Endpoint is the path of one of the metadata APIs the poller reads.
type Endpoint string

const (
	EndpointMappings  Endpoint = "_mapping"
	EndpointAliases   Endpoint = "_aliases"
	EndpointTemplates Endpoint = "_template"
)

const (
	DefaultPollInterval = time.Minute
	// MaxMappingSize is the largest _mapping response body that gets loaded.
	MaxMappingSize = 10 * 1024 * 1024
)

var emptyObject = []byte("{}")

// Transport sends a request to the cluster and returns the response body.
type Transport interface {
	Send(ctx context.Context, method string, path string, body io.Reader, dataSourceID string) ([]byte, error)
}

// SectionResult is what happened to one section during a poll cycle.
type SectionResult struct {
	Endpoint Endpoint
	Retrieve Retrieve
	// Loaded is set when the store section was replaced.
	Loaded bool
	Err    error
}

type Update struct {
	Mappings  SectionResult
	Aliases   SectionResult
	Templates SectionResult
}

type Poller struct {
	store        *Store
	transport    Transport
	interval     time.Duration
	dataSourceID string
	onUpdate     func(Update)

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
}

type PollerOption func(*Poller)

func WithPollInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = interval
	}
}

func WithDataSourceID(id string) PollerOption {
	return func(p *Poller) {
		p.dataSourceID = id
	}
}

// WithOnUpdate registers a callback run after every poll cycle, once the
// store has been updated.
func WithOnUpdate(f func(Update)) PollerOption {
	return func(p *Poller) {
		p.onUpdate = f
	}
}

func NewPoller(store *Store, transport Transport, options ...PollerOption) *Poller {
	ret := &Poller{
		store:     store,
		transport: transport,
		interval:  DefaultPollInterval,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (p *Poller) Store() *Store {
	return p.store
}

// Retrieve cancels any scheduled cycle, runs one cycle right away and
// schedules the next one. When the timer fires, the next cycle only runs if
// settings.GetPolling() is still true at that point, and it uses
// settings.GetAutocomplete() rather than toRetrieve.
//
// Cancelling ctx stops future cycles but does not abort requests that are
// already in flight.
func (p *Poller) Retrieve(ctx context.Context, settings Settings, toRetrieve SettingsToRetrieve) Update {
	p.ClearSubscriptions()
	generation := p.currentGeneration()
	update := p.Fetch(ctx, toRetrieve)
	p.schedule(ctx, settings, generation)
	return update
}

func (p *Poller) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Fetch runs a single cycle without scheduling another one.
func (p *Poller) Fetch(ctx context.Context, toRetrieve SettingsToRetrieve) Update {
	update := Update{
		Mappings:  SectionResult{Endpoint: EndpointMappings, Retrieve: toRetrieve.Fields},
		Aliases:   SectionResult{Endpoint: EndpointAliases, Retrieve: toRetrieve.Indices},
		Templates: SectionResult{Endpoint: EndpointTemplates, Retrieve: toRetrieve.Templates},
	}
	sections := []*SectionResult{&update.Mappings, &update.Aliases, &update.Templates}
	bodies := make([][]byte, len(sections))

	// Sections fail independently: errors are kept in each SectionResult.
	var wg sync.WaitGroup
	for i, section := range sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bodies[i], section.Err = p.retrieveSection(ctx, section)
		}()
	}
	wg.Wait()

	// Aliases register alias-only indices and compute _all from the index
	// list, so mappings have to be loaded first.
	for i, section := range sections {
		if section.Err != nil {
			log.Error().Err(section.Err).
				Str("endpoint", string(section.Endpoint)).
				Str("dataSourceId", p.dataSourceID).
				Msg("Failed to retrieve autocomplete info")
			continue
		}
		if bodies[i] == nil {
			continue
		}
		p.load(section.Endpoint, bodies[i])
		section.Loaded = true
	}

	log.Debug().
		Bool("mappings", update.Mappings.Loaded).
		Bool("aliases", update.Aliases.Loaded).
		Bool("templates", update.Templates.Loaded).
		Msg("Autocomplete info updated")

	if p.onUpdate != nil {
		p.onUpdate(update)
	}

	return update
}

func (p *Poller) retrieveSection(ctx context.Context, section *SectionResult) ([]byte, error) {
	switch section.Retrieve {
	case RetrieveFetch:
		body, err := p.transport.Send(ctx, http.MethodGet, string(section.Endpoint), nil, p.dataSourceID)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return emptyObject, nil
		}
		return body, nil
	case RetrieveClear:
		return emptyObject, nil
	default:
		return nil, nil
	}
}

// load never fails: a payload that cannot be used is logged and loaded as
// an empty object.
func (p *Poller) load(endpoint Endpoint, body []byte) {
	var loadFunc func([]byte) error
	switch endpoint {
	case EndpointMappings:
		if len(body) > MaxMappingSize {
			log.Warn().
				Float64("sizeMB", float64(len(body))/1024/1024).
				Msg("Mapping size is larger than 10MB, ignoring")
			body = emptyObject
		}
		loadFunc = p.store.LoadMappings
	case EndpointAliases:
		loadFunc = p.store.LoadAliases
	case EndpointTemplates:
		loadFunc = p.store.LoadTemplates
	default:
		return
	}

	if err := loadFunc(body); err != nil {
		log.Warn().Err(err).Str("endpoint", string(endpoint)).Msg("Ignoring malformed autocomplete info")
		_ = loadFunc(emptyObject)
	}
}

// schedule arms the timer for the next cycle, unless ClearSubscriptions or
// another Retrieve ran since the cycle began.
func (p *Poller) schedule(ctx context.Context, settings Settings, started uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != started {
		log.Debug().Msg("Subscriptions cleared during the cycle, not rescheduling")
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.generation++
	generation := p.generation

	p.timer = time.AfterFunc(p.interval, func() {
		p.mu.Lock()
		current := p.generation == generation
		if current {
			p.timer = nil
		}
		p.mu.Unlock()

		if !current || ctx.Err() != nil {
			return
		}
		if !settings.GetPolling() {
			log.Debug().Msg("Polling disabled, not refreshing autocomplete info")
			return
		}
		p.Retrieve(ctx, settings, settings.GetAutocomplete())
	})
}

// ClearSubscriptions cancels the scheduled cycle, if any. The store is left
// untouched.
func (p *Poller) ClearSubscriptions() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.generation++
}

// Pending reports whether a cycle is scheduled.
func (p *Poller) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

// Run retrieves everything selected by settings, keeps polling until ctx is
// cancelled and then cancels the scheduled cycle.
func (p *Poller) Run(ctx context.Context, settings Settings) error {
	p.Retrieve(ctx, settings, settings.GetAutocomplete())
	<-ctx.Done()
	p.ClearSubscriptions()
	return nil
}
