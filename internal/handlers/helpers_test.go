package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/handlers"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/itunes"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
)

const (
	userHeader = "X-Test-User"
	userA      = "5b2e6c1e-1d7a-4c38-9b7f-0a4f1c2d3e4f"
	userB      = "0f9e8d7c-6b5a-4938-8271-605f4e3d2c1b"
)

// testAuth authenticates whoever is named in X-Test-User.
func testAuth(required bool) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if u := c.Header(userHeader); u != "" {
				c.Set(internal.UserIDKey{}, u)
				return next(c)
			}
			if required {
				return internal.ErrUnauthorized("")
			}
			return next(c)
		}
	}
}

var guards = handlers.Guards{Required: testAuth(true), Optional: testAuth(false)}

type request struct {
	method string
	path   string
	body   string
	user   string
	header http.Header
}

func do(t *testing.T, h http.Handler, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.user != "" {
		req.Header.Set(userHeader, r.user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	out := decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, w)
	return out.Error.Code
}

// memStore is an in-memory stand-in for *store.Store.
type memStore struct {
	mu          sync.Mutex
	searches    []store.SearchEntry
	keys        map[string]*store.APIKey
	notion      map[string]*store.NotionToken
	transcripts map[string]*store.Transcript
	summaries   map[string]*store.Summary
	tasks       map[string]*store.Task
	failGet     error
}

func newMemStore() *memStore {
	return &memStore{
		keys:        map[string]*store.APIKey{},
		notion:      map[string]*store.NotionToken{},
		transcripts: map[string]*store.Transcript{},
		summaries:   map[string]*store.Summary{},
		tasks:       map[string]*store.Task{},
	}
}

func contentKey(ep string, lang store.Language) string { return ep + "/" + lang.String() }

func (m *memStore) AddSearch(_ context.Context, e *store.SearchEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = time.Now()
	m.searches = append(m.searches, *e)
	return nil
}

func (m *memStore) ListSearches(_ context.Context, userID string, limit int) ([]store.SearchEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.SearchEntry
	for i := len(m.searches) - 1; i >= 0 && len(out) < limit; i-- {
		if m.searches[i].UserID == userID {
			out = append(out, m.searches[i])
		}
	}
	return out, nil
}

func (m *memStore) DeleteSearches(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []store.SearchEntry
	var n int64
	for _, e := range m.searches {
		if e.UserID == userID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.searches = kept
	return n, nil
}

func (m *memStore) CreateAPIKey(_ context.Context, userID, name string) (*store.APIKey, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := &store.APIKey{ID: uuid.NewString(), UserID: userID, Name: name, Prefix: "lat_abcd", CreatedAt: time.Now()}
	m.keys[k.ID] = k
	return k, "lat_secretvalue", nil
}

func (m *memStore) ListAPIKeys(_ context.Context, userID string) ([]store.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.APIKey
	for _, k := range m.keys {
		if k.UserID == userID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (m *memStore) RevokeAPIKey(_ context.Context, userID, keyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[keyID]
	if !ok || k.UserID != userID || k.RevokedAt != nil {
		return store.ErrNotFound
	}
	now := time.Now()
	k.RevokedAt = &now
	return nil
}

func (m *memStore) SaveNotionToken(_ context.Context, t *store.NotionToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notion[t.UserID] = t
	return nil
}

func (m *memStore) GetNotionToken(_ context.Context, userID string) (*store.NotionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.notion[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (m *memStore) DeleteNotionToken(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notion[userID]; !ok {
		return store.ErrNotFound
	}
	delete(m.notion, userID)
	return nil
}

func (m *memStore) GetTranscript(_ context.Context, ep string, lang store.Language) (*store.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	t, ok := m.transcripts[contentKey(ep, lang)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (m *memStore) UpsertSummary(_ context.Context, s *store.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := contentKey(s.EpisodeID, s.Language)
	if old, ok := m.summaries[key]; ok && old.UserID != "" && old.UserID != s.UserID {
		return store.ErrNotOwner
	}
	m.summaries[key] = s
	return nil
}

func (m *memStore) GetSummary(_ context.Context, ep string, lang store.Language) (*store.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[contentKey(ep, lang)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) CreateTask(_ context.Context, t *store.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; ok {
		return store.ErrConflict
	}
	if t.UpdatedAt.IsZero() {
		t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	}
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memStore) UpdateTask(_ context.Context, id string, status store.TaskStatus, message, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Status, t.Message, t.Error = status, message, errText
	t.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) GetTask(_ context.Context, id string) (*store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ActiveTaskForEpisode(_ context.Context, ep string, lang store.Language, since time.Time) (*store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.EpisodeID == ep && t.Language == lang && !t.Status.Finished() && !t.UpdatedAt.Before(since) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// fakeSearcher answers from canned results.
type fakeSearcher struct {
	results  []itunes.Result
	episodes []itunes.Result
	err      error
	last     itunes.SearchParams
}

func (f *fakeSearcher) Search(_ context.Context, p itunes.SearchParams) ([]itunes.Result, error) {
	f.last = p
	return f.results, f.err
}

func (f *fakeSearcher) LookupEpisodes(_ context.Context, id int64, _ int) ([]itunes.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id == 404 {
		return nil, itunes.ErrNotAPodcast
	}
	return f.episodes, nil
}

type enqueued struct {
	name    string
	payload any
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []enqueued
	err  error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, name string, payload any, _ ...job.EnqueueOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.jobs = append(f.jobs, enqueued{name: name, payload: payload})
	return int64(len(f.jobs)), nil
}
