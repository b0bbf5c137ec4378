package listview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/mocks"
	"github.com/ghaggin/naviplus-admin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"
)

type memStore struct {
	mu    sync.Mutex
	token string
}

func (m *memStore) Get(context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *memStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memStore) Clear(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}

type fakeBackend struct {
	calls atomic.Int32
	auth  atomic.Value

	handler http.HandlerFunc
}

func newFakeBackend(t *testing.T, store *memStore, h http.HandlerFunc) (*api.Client, *fakeBackend) {
	t.Helper()

	fb := &fakeBackend{handler: h}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.calls.Add(1)
		fb.auth.Store(r.Header.Get("Authorization"))
		fb.handler(w, r)
	}))
	t.Cleanup(server.Close)

	return api.NewClient(server.URL, store, zaptest.NewLogger(t), 0), fb
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestMount_noTokenRedirectsWithoutFetching(t *testing.T) {
	store := &memStore{}
	client, fb := newFakeBackend(t, store, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []model.Building{})
	})

	c := NewBuildings(client, store)
	err := c.Mount(context.Background())

	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, Redirected, c.Snapshot().State)
	assert.Zero(t, fb.calls.Load())
}

func TestMount_ready(t *testing.T) {
	store := &memStore{token: "abc123"}
	client, fb := newFakeBackend(t, store, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/buildings/", r.URL.Path)
		w.Write([]byte(`[{"id":1,"name":"Tower A"}]`))
	})

	c := NewBuildings(client, store)
	assert.Equal(t, Unauthenticated, c.Snapshot().State)

	require.NoError(t, c.Mount(context.Background()))

	view := c.Snapshot()
	assert.Equal(t, Ready, view.State)
	assert.Equal(t, []model.Building{{ID: 1, Name: "Tower A"}}, view.Items)
	assert.Equal(t, "Token abc123", fb.auth.Load())
}

func TestMount_replacesItems(t *testing.T) {
	store := &memStore{token: "abc123"}
	responses := []string{
		`[{"id":1,"name":"Tower A"},{"id":2,"name":"Tower B"}]`,
		`[{"id":2,"name":"Tower B"}]`,
	}
	var n atomic.Int32
	client, _ := newFakeBackend(t, store, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(responses[n.Add(1)-1]))
	})

	c := NewBuildings(client, store)
	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.Mount(context.Background()))

	assert.Equal(t, []model.Building{{ID: 2, Name: "Tower B"}}, c.Snapshot().Items)
}

func TestMount_pldsUnauthorizedClearsStore(t *testing.T) {
	store := &memStore{token: "abc123"}
	client, _ := newFakeBackend(t, store, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
	})

	c := NewPLDs(client, store, 0)
	err := c.Mount(context.Background())

	assert.ErrorIs(t, err, ErrLoginRequired)
	_, ok := store.Get(context.Background())
	assert.False(t, ok)

	view := c.Snapshot()
	assert.Equal(t, Redirected, view.State)
	assert.Empty(t, view.Items)
	assert.Empty(t, view.Err)
}

func TestUnauthorized_sameOutcomeOnEveryEndpoint(t *testing.T) {
	unauthorized := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}

	steps := map[string]func(client *api.Client, store *memStore) error{
		"list buildings": func(client *api.Client, store *memStore) error {
			return NewBuildings(client, store).Mount(context.Background())
		},
		"list plds": func(client *api.Client, store *memStore) error {
			return NewPLDs(client, store, 3).Mount(context.Background())
		},
		"create building": func(client *api.Client, store *memStore) error {
			_, err := NewBuildings(client, store).Create(context.Background(), model.BuildingInput{Name: "Tower C"})
			return err
		},
	}

	for name, step := range steps {
		t.Run(name, func(t *testing.T) {
			store := &memStore{token: "abc123"}
			client, _ := newFakeBackend(t, store, unauthorized)

			assert.ErrorIs(t, step(client, store), ErrLoginRequired)
			_, ok := store.Get(context.Background())
			assert.False(t, ok)
		})
	}
}

func TestMount_failed(t *testing.T) {
	store := &memStore{token: "abc123"}
	client, fb := newFakeBackend(t, store, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Database unavailable"})
	})

	c := NewPLDs(client, store, 0)
	err := c.Mount(context.Background())

	var re *api.RequestError
	require.True(t, errors.As(err, &re))

	view := c.Snapshot()
	assert.Equal(t, Failed, view.State)
	assert.Equal(t, "Database unavailable", view.Err)
	assert.EqualValues(t, 1, fb.calls.Load())

	_, ok := store.Get(context.Background())
	assert.True(t, ok)
}

func TestCreate_appends(t *testing.T) {
	store := &memStore{token: "abc123"}
	client, _ := newFakeBackend(t, store, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`[{"id":1,"name":"B1"},{"id":2,"name":"B2"}]`))
			return
		}
		var in model.BuildingInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusCreated, model.Building{ID: 3, Name: in.Name})
	})

	c := NewBuildings(client, store)
	require.NoError(t, c.Mount(context.Background()))

	b, err := c.Create(context.Background(), model.BuildingInput{Name: "B3"})
	require.NoError(t, err)
	assert.Equal(t, model.Building{ID: 3, Name: "B3"}, b)

	assert.Equal(t, []model.Building{
		{ID: 1, Name: "B1"},
		{ID: 2, Name: "B2"},
		{ID: 3, Name: "B3"},
	}, c.Snapshot().Items)
}

func TestCreate_failureLeavesItems(t *testing.T) {
	store := &memStore{token: "abc123"}
	client, _ := newFakeBackend(t, store, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`[{"id":1,"name":"B1"},{"id":2,"name":"B2","location":"East"}]`))
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field may not be blank."}})
	})

	c := NewBuildings(client, store)
	require.NoError(t, c.Mount(context.Background()))
	before := c.Snapshot()

	_, err := c.Create(context.Background(), model.BuildingInput{Name: "B3"})
	require.Error(t, err)
	assert.Equal(t, api.GenericMessage, api.Message(err))

	assert.Equal(t, before, c.Snapshot())
}

func TestCreate_noTokenSkipsBackend(t *testing.T) {
	store := &memStore{}
	client, fb := newFakeBackend(t, store, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, model.Building{ID: 3, Name: "B3"})
	})

	_, err := NewBuildings(client, store).Create(context.Background(), model.BuildingInput{Name: "B3"})
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Zero(t, fb.calls.Load())
}

func TestCreate_unsupported(t *testing.T) {
	store := &memStore{token: "abc123"}
	client, fb := newFakeBackend(t, store, nil)

	_, err := NewPLDs(client, store, 0).Create(context.Background(), struct{}{})
	assert.ErrorIs(t, err, ErrCreateUnsupported)
	assert.Zero(t, fb.calls.Load())
}

func TestUnmount_discardsInFlight(t *testing.T) {
	store := &memStore{token: "abc123"}

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) ([]model.Building, error) {
		close(started)
		<-release
		return []model.Building{{ID: 1, Name: "Tower A"}}, nil
	}

	c := New[model.Building, model.BuildingInput](store, fetch, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Mount(context.Background()) }()

	<-started
	c.Unmount()
	close(release)

	assert.ErrorIs(t, <-errc, ErrStale)
	view := c.Snapshot()
	assert.Equal(t, Loading, view.State)
	assert.Empty(t, view.Items)
}

func TestMount_lastMountWins(t *testing.T) {
	store := &memStore{token: "abc123"}

	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	var n atomic.Int32
	fetch := func(context.Context) ([]model.Building, error) {
		if n.Add(1) == 1 {
			close(slowStarted)
			<-releaseSlow
			return []model.Building{{ID: 1, Name: "old"}}, nil
		}
		return []model.Building{{ID: 2, Name: "new"}}, nil
	}

	c := New[model.Building, model.BuildingInput](store, fetch, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Mount(context.Background()) }()
	<-slowStarted

	require.NoError(t, c.Mount(context.Background()))
	close(releaseSlow)

	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Equal(t, []model.Building{{ID: 2, Name: "new"}}, c.Snapshot().Items)
}

func TestMount_authErrorClearsViaStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	ctx := context.Background()
	store.EXPECT().Get(ctx).Return("abc123", true)
	store.EXPECT().Clear(ctx)

	fetch := func(context.Context) ([]model.PLD, error) {
		return nil, &api.AuthError{Path: "/api/plds/"}
	}

	c := New[model.PLD, struct{}](store, fetch, nil)
	assert.ErrorIs(t, c.Mount(ctx), ErrLoginRequired)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", State(42).String())
}
