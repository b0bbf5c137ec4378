package middleware

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ghaggin/naviplus-admin/internal/config"
	"github.com/ghaggin/naviplus-admin/internal/model"
	"go.uber.org/fx"
)

//go:generate mockgen -destination=../mocks/token_store.go -package=mocks . TokenStore

const (
	// sessionKey is the only key the backend token is stored under.
	sessionKey = "session_key"
	flashKey   = "flash"
)

// TokenStore holds the backend token of the session bound to ctx.
type TokenStore interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context)
}

var _ TokenStore = (*SessionManager)(nil)

// SessionManager is the scs backed TokenStore. Every method except Wrap
// requires a context that went through Wrap.
type SessionManager struct {
	impl *scs.SessionManager
}

type SessionParams struct {
	fx.In

	Config *config.Config
	Store  scs.Store
}

func NewSessionManager(p SessionParams) (*SessionManager, error) {
	gob.Register(&model.Session{})

	sm := &SessionManager{}
	sm.impl = scs.New()
	sm.impl.Store = p.Store
	sm.impl.Lifetime = p.Config.Session.Lifetime
	sm.impl.Cookie.Name = p.Config.Session.CookieName
	sm.impl.Cookie.Secure = p.Config.Session.CookieSecure
	sm.impl.Cookie.HttpOnly = true
	sm.impl.Cookie.SameSite = http.SameSiteLaxMode
	sm.impl.Cookie.Persist = true

	return sm, nil
}

func (s *SessionManager) Wrap(next http.Handler) http.Handler {
	return s.impl.LoadAndSave(next)
}

func (s *SessionManager) Get(ctx context.Context) (string, bool) {
	session, ok := s.impl.Get(ctx, sessionKey).(*model.Session)
	if !ok || session.Token == "" {
		return "", false
	}

	return session.Token, true
}

// Set replaces any stored token and issues a fresh session cookie.
func (s *SessionManager) Set(ctx context.Context, token string) error {
	if err := s.impl.RenewToken(ctx); err != nil {
		return err
	}

	s.impl.Put(ctx, sessionKey, &model.Session{
		Token:    token,
		IssuedAt: time.Now(),
	})
	return nil
}

func (s *SessionManager) Clear(ctx context.Context) {
	s.impl.Remove(ctx, sessionKey)
}

// Flash stores a message shown once on the next rendered page.
func (s *SessionManager) Flash(ctx context.Context, msg string) {
	s.impl.Put(ctx, flashKey, msg)
}

func (s *SessionManager) PopFlash(ctx context.Context) string {
	return s.impl.PopString(ctx, flashKey)
}
