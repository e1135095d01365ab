package autocomplete

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	calls     map[string]int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		responses: map[string][]byte{
			"_mapping":  []byte(`{"idx1": {"properties": {"title": {"type": "text"}}}, "idx2": {"mappings": {"properties": {"n": {"type": "long"}}}}}`),
			"_aliases":  []byte(`{"idx1": {"aliases": {"a1": {}}}, "idx2": {"aliases": {}}, "idx3": {"aliases": {"a1": {}}}}`),
			"_template": []byte(`{"logs": {}, "metrics": {}}`),
		},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeTransport) Send(ctx context.Context, method string, path string, body io.Reader, dataSourceID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	return f.responses[path], nil
}

func (f *fakeTransport) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

type liveSettings struct {
	mu           sync.Mutex
	polling      bool
	autocomplete SettingsToRetrieve
}

func (s *liveSettings) GetPolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling
}

func (s *liveSettings) GetAutocomplete() SettingsToRetrieve {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autocomplete
}

func (s *liveSettings) setPolling(polling bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polling = polling
}

func TestPollerFetchLoadsAllSections(t *testing.T) {
	transport := newFakeTransport()
	p := NewPoller(NewStore(), transport)

	update := p.Fetch(context.Background(), RetrieveAll)

	assert.True(t, update.Mappings.Loaded)
	assert.True(t, update.Aliases.Loaded)
	assert.True(t, update.Templates.Loaded)

	s := p.Store()
	assert.Equal(t, []string{"idx1", "idx2", "idx3"}, s.GetIndices(false))
	assert.Equal(t, []string{"idx1", "idx2", "idx3", "a1", "_all"}, s.GetIndices(true))
	assert.Equal(t, []string{"idx1", "idx3"}, s.ExpandAliases("a1"))
	assert.Equal(t, []Field{{Name: "n", Type: "long"}}, s.GetFields([]string{"idx2"}, nil))
	assert.Equal(t, []string{"logs", "metrics"}, s.GetTemplates())
	assert.False(t, p.Pending())
}

func TestPollerFailureDoesNotStopOtherSections(t *testing.T) {
	transport := newFakeTransport()
	transport.errs["_aliases"] = errors.New("connection refused")
	p := NewPoller(NewStore(), transport, WithPollInterval(time.Hour))
	defer p.ClearSubscriptions()

	update := p.Retrieve(context.Background(), &StaticSettings{Polling: true}, RetrieveAll)

	assert.True(t, update.Mappings.Loaded)
	assert.False(t, update.Aliases.Loaded)
	assert.Error(t, update.Aliases.Err)
	assert.True(t, update.Templates.Loaded)

	assert.Equal(t, []string{"idx1", "idx2"}, p.Store().GetIndices(true))
	assert.Equal(t, []string{"logs", "metrics"}, p.Store().GetTemplates())
	assert.True(t, p.Pending())
}

func TestPollerClearAndSkip(t *testing.T) {
	transport := newFakeTransport()
	p := NewPoller(NewStore(), transport)
	p.Fetch(context.Background(), RetrieveAll)

	update := p.Fetch(context.Background(), SettingsToRetrieve{
		Fields:    RetrieveClear,
		Indices:   RetrieveSkip,
		Templates: RetrieveClear,
	})

	assert.True(t, update.Mappings.Loaded)
	assert.False(t, update.Aliases.Loaded)
	assert.True(t, update.Templates.Loaded)
	assert.Equal(t, 1, transport.callCount("_mapping"))
	assert.Equal(t, 1, transport.callCount("_aliases"))
	assert.Equal(t, 1, transport.callCount("_template"))

	s := p.Store()
	assert.Empty(t, s.GetIndices(false))
	assert.Empty(t, s.GetTemplates())
	// skipped aliases survive
	assert.Equal(t, []string{"idx1", "idx3"}, s.ExpandAliases("a1"))
}

func TestPollerIgnoresOversizedMappings(t *testing.T) {
	transport := newFakeTransport()
	var buf bytes.Buffer
	buf.WriteString(`{"big": {"properties": {"f": {"type": "text"}}}`)
	buf.Write(bytes.Repeat([]byte(" "), MaxMappingSize))
	buf.WriteString(`}`)
	transport.responses["_mapping"] = buf.Bytes()

	p := NewPoller(NewStore(), transport)
	update := p.Fetch(context.Background(), SettingsToRetrieve{Fields: RetrieveFetch})

	assert.True(t, update.Mappings.Loaded)
	assert.Empty(t, p.Store().GetIndices(false))
}

func TestPollerMalformedPayloadLoadsEmpty(t *testing.T) {
	transport := newFakeTransport()
	p := NewPoller(NewStore(), transport)
	p.Fetch(context.Background(), RetrieveAll)

	transport.mu.Lock()
	transport.responses["_template"] = []byte(`{"broken": `)
	transport.mu.Unlock()

	update := p.Fetch(context.Background(), SettingsToRetrieve{Templates: RetrieveFetch})
	assert.True(t, update.Templates.Loaded)
	assert.NoError(t, update.Templates.Err)
	assert.Empty(t, p.Store().GetTemplates())
}

func TestPollerRetrieveTwiceKeepsOneTimer(t *testing.T) {
	p := NewPoller(NewStore(), newFakeTransport(), WithPollInterval(time.Hour))
	defer p.ClearSubscriptions()
	settings := &StaticSettings{Polling: true, Autocomplete: RetrieveAll}

	p.Retrieve(context.Background(), settings, RetrieveAll)
	p.mu.Lock()
	first := p.timer
	p.mu.Unlock()
	require.NotNil(t, first)

	p.Retrieve(context.Background(), settings, RetrieveAll)
	p.mu.Lock()
	second := p.timer
	p.mu.Unlock()

	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	// Stop reports false for a timer that was already stopped.
	assert.False(t, first.Stop())
	assert.True(t, p.Pending())
}

func TestPollerClearSubscriptionsKeepsData(t *testing.T) {
	p := NewPoller(NewStore(), newFakeTransport(), WithPollInterval(time.Hour))
	p.Retrieve(context.Background(), &StaticSettings{Polling: true}, RetrieveAll)
	require.True(t, p.Pending())

	p.ClearSubscriptions()
	p.ClearSubscriptions()

	assert.False(t, p.Pending())
	assert.Equal(t, []string{"logs", "metrics"}, p.Store().GetTemplates())
}

// blockingTransport holds _mapping requests until release is closed.
type blockingTransport struct {
	*fakeTransport
	started chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Send(ctx context.Context, method string, path string, body io.Reader, dataSourceID string) ([]byte, error) {
	if path == string(EndpointMappings) {
		close(b.started)
		<-b.release
	}
	return b.fakeTransport.Send(ctx, method, path, body, dataSourceID)
}

func TestPollerClearSubscriptionsDuringCycle(t *testing.T) {
	transport := &blockingTransport{
		fakeTransport: newFakeTransport(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	p := NewPoller(NewStore(), transport, WithPollInterval(time.Hour))
	defer p.ClearSubscriptions()

	done := make(chan Update, 1)
	go func() {
		done <- p.Retrieve(context.Background(), &StaticSettings{Polling: true, Autocomplete: RetrieveAll}, RetrieveAll)
	}()

	<-transport.started
	p.ClearSubscriptions()
	close(transport.release)

	select {
	case update := <-done:
		// the running cycle still completes and loads its data
		assert.True(t, update.Mappings.Loaded)
	case <-time.After(5 * time.Second):
		t.Fatal("Retrieve did not return")
	}
	assert.False(t, p.Pending())
	assert.Equal(t, []string{"logs", "metrics"}, p.Store().GetTemplates())
}

func TestPollerReschedulesWithLiveSettings(t *testing.T) {
	transport := newFakeTransport()
	updates := make(chan Update, 16)
	p := NewPoller(NewStore(), transport,
		WithPollInterval(10*time.Millisecond),
		WithOnUpdate(func(u Update) {
			select {
			case updates <- u:
			default:
			}
		}),
	)
	defer p.ClearSubscriptions()

	settings := &liveSettings{
		polling:      true,
		autocomplete: SettingsToRetrieve{Templates: RetrieveFetch},
	}
	p.Retrieve(context.Background(), settings, RetrieveAll)

	first := <-updates
	assert.Equal(t, RetrieveFetch, first.Mappings.Retrieve)

	select {
	case next := <-updates:
		// the timer uses the live settings, not the ones passed to Retrieve
		assert.Equal(t, RetrieveSkip, next.Mappings.Retrieve)
		assert.Equal(t, RetrieveFetch, next.Templates.Retrieve)
	case <-time.After(5 * time.Second):
		t.Fatal("no scheduled refresh")
	}
	assert.Equal(t, 1, transport.callCount("_mapping"))
	assert.GreaterOrEqual(t, transport.callCount("_template"), 2)
}

func TestPollerStopsWhenPollingIsTurnedOff(t *testing.T) {
	transport := newFakeTransport()
	p := NewPoller(NewStore(), transport, WithPollInterval(50*time.Millisecond))
	defer p.ClearSubscriptions()

	settings := &liveSettings{polling: true, autocomplete: RetrieveAll}
	p.Retrieve(context.Background(), settings, RetrieveAll)
	settings.setPolling(false)

	require.Eventually(t, func() bool { return !p.Pending() }, 5*time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return transport.callCount("_mapping") > 1 }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	transport := newFakeTransport()
	p := NewPoller(NewStore(), transport, WithPollInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, &StaticSettings{Polling: true, Autocomplete: RetrieveAll})
	}()

	require.Eventually(t, p.Pending, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.False(t, p.Pending())
	assert.Equal(t, []string{"logs", "metrics"}, p.Store().GetTemplates())
}

func TestParseRetrieve(t *testing.T) {
	tests := []struct {
		input    string
		expected Retrieve
		err      bool
	}{
		{"true", RetrieveFetch, false},
		{"TRUE", RetrieveFetch, false},
		{"false", RetrieveClear, false},
		{"clear", RetrieveClear, false},
		{"", RetrieveSkip, false},
		{"unset", RetrieveSkip, false},
		{"maybe", RetrieveSkip, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := ParseRetrieve(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r)
		})
	}
}
