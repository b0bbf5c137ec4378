package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/mocks"
	"github.com/ghaggin/naviplus-admin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"
)

var admin = model.Credentials{Username: "admin", Password: "secret"}

func newBackend(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return api.NewClient(server.URL, nil, zaptest.NewLogger(t), 0)
}

func TestLogin_storesToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/token-auth/", r.URL.Path)

		var creds model.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, admin, creds)

		w.Write([]byte(`{"token":"abc123"}`))
	})

	ctx := context.Background()
	store.EXPECT().Set(ctx, "abc123").Return(nil)

	s := NewService(backend, store, zaptest.NewLogger(t))
	require.NoError(t, s.Login(ctx, admin))
}

func TestLogin_rejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"non_field_errors":["Unable to log in with provided credentials."]}`))
	})

	s := NewService(backend, store, zaptest.NewLogger(t))
	err := s.Login(context.Background(), admin)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_unauthorizedIsNotBadCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid token."}`))
	})

	s := NewService(backend, store, zaptest.NewLogger(t))
	err := s.Login(context.Background(), admin)
	assert.True(t, api.IsAuthError(err))
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

// tokenAuthBackend rejects every request carrying an Authorization header,
// the way a backend does once the session's token has been revoked.
func tokenAuthBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Invalid token."}`))
			return
		}
		switch r.URL.Path {
		case "/api/token-auth/":
			w.Write([]byte(`{"token":"fresh"}`))
		case "/api/signup/":
			w.WriteHeader(http.StatusCreated)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLogin_replacesRevokedToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)
	store.EXPECT().Get(gomock.Any()).Return("revoked", true).AnyTimes()

	server := tokenAuthBackend(t)
	client := api.NewClient(server.URL, store, zaptest.NewLogger(t), 0)

	ctx := context.Background()
	store.EXPECT().Set(ctx, "fresh").Return(nil)

	s := NewService(client, store, zaptest.NewLogger(t))
	require.NoError(t, s.Login(ctx, admin))
	require.NoError(t, s.Signup(ctx, admin))
}

func TestLogin_backendDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	s := NewService(backend, store, zaptest.NewLogger(t))
	err := s.Login(context.Background(), admin)

	var re *api.RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusServiceUnavailable, re.Status)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_storeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"token":"abc123"}`))
	})

	boom := errors.New("renew failed")
	store.EXPECT().Set(gomock.Any(), "abc123").Return(boom)

	s := NewService(backend, store, zaptest.NewLogger(t))
	assert.ErrorIs(t, s.Login(context.Background(), admin), boom)
}

func TestSignup(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	called := false
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/api/signup/", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token":"should-not-be-stored"}`))
	})

	s := NewService(backend, store, zaptest.NewLogger(t))
	require.NoError(t, s.Signup(context.Background(), admin))
	assert.True(t, called)
}

func TestSignup_failureMessages(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"server error", `{"error":"Username already exists."}`, "Username already exists."},
		{"server detail", `{"detail":"Method not allowed."}`, "Method not allowed."},
		{"no detail", `{}`, SignupFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockTokenStore(ctrl)

			backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			})

			s := NewService(backend, store, zaptest.NewLogger(t))
			err := s.Signup(context.Background(), admin)
			assert.Equal(t, tt.message, api.Message(err))
		})
	}
}

func TestLogout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTokenStore(ctrl)

	ctx := context.Background()
	store.EXPECT().Clear(ctx).Times(2)

	s := NewService(nil, store, zaptest.NewLogger(t))
	s.Logout(ctx)
	s.Logout(ctx)
}
