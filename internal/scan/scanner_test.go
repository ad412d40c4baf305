package scan

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/brogergvhs/genrescrape/internal/genrecache"
	"github.com/brogergvhs/genrescrape/internal/session"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteURL = "https://www.netflix.com"

type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	calls  []string
	onCall func(path string)
}

func (f *fakeFetcher) Get(_ context.Context, path string) (*session.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(path)
	}
	if err, ok := f.errs[path]; ok {
		return nil, err
	}

	u, _ := url.Parse(siteURL + path)
	return &session.Page{URL: u, StatusCode: 200, Body: f.pages[path]}, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memStore keeps its data across Close so one store can back several scans.
type memStore struct {
	mu      sync.Mutex
	data    map[string]*genrecache.Entry
	closes  int
	clears  int
	setErr  error
	getErr  error
	openErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]*genrecache.Entry{}}
}

func (m *memStore) open() (genrecache.Store, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m, nil
}

func (m *memStore) Get(key string) (*genrecache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	e, ok := m.data[key]
	if !ok {
		return nil, genrecache.ErrNotFound
	}
	return e, nil
}

func (m *memStore) Set(key string, e *genrecache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = e
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clears++
	m.data = map[string]*genrecache.Entry{}
	return nil
}

func (m *memStore) Each(fn func(string, *genrecache.Entry) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.data {
		if err := fn(k, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closes++
	return nil
}

func genrePage(title string) string {
	return `<html><body><div class="genreTitle"><span>` + title + `</span></div></body></html>`
}

func collect(t *testing.T, seq func(func(Result, error) bool)) ([]Result, error) {
	t.Helper()

	var (
		out []Result
		err error
	)
	for res, e := range seq {
		if e != nil {
			err = e
			break
		}
		out = append(out, res)
	}
	return out, err
}

func TestScanFreshComedyAndAbsent(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"/browse/genre/1": genrePage("Comedy"),
		"/browse/genre/2": `<html><body><p>Nothing here</p></body></html>`,
	}}
	store := newMemStore()
	store.data["9"] = &genrecache.Entry{Title: "Stale", URL: "x"}

	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 3, Fresh: true}))
	require.NoError(t, err)

	want := []Result{{Number: 1, Title: "Comedy", URL: siteURL + "/browse/genre/1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1, store.clears)
	assert.NotContains(t, store.data, "9")

	absent, ok := store.data["2"]
	require.True(t, ok)
	assert.Nil(t, absent)
	assert.Equal(t, &genrecache.Entry{Title: "Comedy", URL: siteURL + "/browse/genre/1"}, store.data["1"])
	assert.Equal(t, 1, store.closes)
}

func TestScanIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"/browse/genre/1": genrePage("Comedy"),
		"/browse/genre/3": genrePage("  Horror  "),
	}}
	store := newMemStore()
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	first, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 5}))
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 4, fetcher.Calls())

	second, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 5}))
	require.NoError(t, err)
	assert.Equal(t, 4, fetcher.Calls(), "second scan must not fetch")

	strip := func(rs []Result) []Result {
		out := make([]Result, len(rs))
		for i, r := range rs {
			r.Cached = false
			out[i] = r
		}
		return out
	}
	if diff := cmp.Diff(first, strip(second)); diff != "" {
		t.Fatalf("second scan differs (-first +second):\n%s", diff)
	}
	for _, r := range second {
		assert.True(t, r.Cached)
	}
	assert.Equal(t, "Horror", first[1].Title)
}

func TestScanAbsentMarkerSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := newMemStore()
	require.NoError(t, store.Set(genrecache.Key(42), nil))

	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(context.Background(), Options{Min: 42, Max: 43}))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, fetcher.Calls())
	assert.EqualValues(t, 1, s.Stats().Skipped.Load())
}

func TestScanSkipsFailedFetches(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{"/browse/genre/2": genrePage("Drama")},
		errs: map[string]error{
			"/browse/genre/1": &session.StatusError{Method: "GET", URL: "/browse/genre/1", StatusCode: 503},
		},
	}
	store := newMemStore()
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 3}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Number)

	_, cached := store.data["1"]
	assert.False(t, cached, "failed numbers stay uncached")
	assert.EqualValues(t, 1, s.Stats().Failed.Load())
}

func TestScanEarlyBreakClosesCache(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"/browse/genre/1": genrePage("Comedy"),
		"/browse/genre/2": genrePage("Drama"),
	}}
	store := newMemStore()
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	for res, err := range s.Scan(context.Background(), Options{Min: 1, Max: 10}) {
		require.NoError(t, err)
		assert.Equal(t, 1, res.Number)
		break
	}

	assert.Equal(t, 1, fetcher.Calls())
	assert.Equal(t, 1, store.closes)
}

func TestScanCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &fakeFetcher{pages: map[string]string{"/browse/genre/1": genrePage("Comedy")}}
	fetcher.onCall = func(path string) {
		if path == "/browse/genre/2" {
			cancel()
		}
	}
	store := newMemStore()
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(ctx, Options{Min: 1, Max: 10}))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 1)
	assert.Equal(t, 2, fetcher.Calls())
	assert.Equal(t, 1, store.closes)
}

func TestScanWriteFailureIsFatal(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"/browse/genre/1": genrePage("Comedy")}}
	store := newMemStore()
	store.setErr = errors.New("disk full")
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 3}))
	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, got)
	assert.Equal(t, 1, fetcher.Calls())
	assert.Equal(t, 1, store.closes)
}

func TestScanReadFailureIsAMiss(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"/browse/genre/1": genrePage("Comedy")}}
	store := newMemStore()
	store.getErr = errors.New("corrupt value")
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 2}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Cached)
}

func TestScanOpenFailure(t *testing.T) {
	store := newMemStore()
	store.openErr = errors.New("locked")
	s := New(Config{Fetcher: &fakeFetcher{}, OpenCache: store.open})

	_, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 2}))
	require.ErrorContains(t, err, "open cache: locked")
}

func TestScanSequenceIsSingleUse(t *testing.T) {
	store := newMemStore()
	s := New(Config{Fetcher: &fakeFetcher{}, OpenCache: store.open})

	seq := s.Scan(context.Background(), Options{Min: 1, Max: 2})
	_, err := collect(t, seq)
	require.NoError(t, err)

	_, err = collect(t, seq)
	require.ErrorIs(t, err, ErrConsumed)
	assert.Equal(t, 1, store.closes)
}

func TestScanEmptyRange(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := newMemStore()
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(context.Background(), Options{Min: 5, Max: 5}))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, fetcher.Calls())
}

type stepRecorder struct{ steps []bool }

func (r *stepRecorder) Step(found bool) { r.steps = append(r.steps, found) }

func TestScanMetricsAndProgress(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{"/browse/genre/1": genrePage("Comedy")},
		errs:  map[string]error{"/browse/genre/3": errors.New("connection reset")},
	}
	store := newMemStore()
	store.data["4"] = &genrecache.Entry{Title: "Anime", URL: siteURL + "/browse/genre/4"}
	store.data["5"] = nil

	metrics := NewMetrics()
	progress := &stepRecorder{}
	s := New(Config{Fetcher: fetcher, OpenCache: store.open, Metrics: metrics, Progress: progress})

	_, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 6}))
	require.NoError(t, err)

	for outcome, want := range map[string]float64{
		OutcomeFound:   1,
		OutcomeAbsent:  1,
		OutcomeFailed:  1,
		OutcomeCached:  1,
		OutcomeSkipped: 1,
	} {
		assert.Equal(t, want, testutil.ToFloat64(metrics.GenresTotal.WithLabelValues(outcome)), outcome)
	}
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.FetchDuration))
	assert.Equal(t, []bool{true, false, false, true, false}, progress.steps)
}

func TestScanCollapsesTitleWhitespace(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"/browse/genre/1": `<div class="genreTitle">   </div>` +
			`<div class="genreTitle"><span>Action</span>
				&amp;	Adventure </div>`,
	}}
	store := newMemStore()
	s := New(Config{Fetcher: fetcher, OpenCache: store.open})

	got, err := collect(t, s.Scan(context.Background(), Options{Min: 1, Max: 2}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Action & Adventure", got[0].Title)
	assert.Equal(t, "Action & Adventure", store.data["1"].Title)
}
