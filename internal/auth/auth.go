package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/middleware"
	"github.com/ghaggin/naviplus-admin/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const (
	// InvalidCredentialsMessage is the text shown for ErrInvalidCredentials.
	InvalidCredentialsMessage = "Invalid username or password"
	SignupFailedMessage       = "Signup failed"
)

// Backend is the part of the api client used by the auth flow.
type Backend interface {
	ObtainToken(ctx context.Context, creds model.Credentials) (string, error)
	Signup(ctx context.Context, creds model.Credentials) error
}

// Service exchanges credentials for a backend token and keeps it in the
// token store. It never navigates; callers decide where to go next.
type Service struct {
	backend Backend
	store   middleware.TokenStore
	log     *zap.Logger
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Client *api.Client
	Store  *middleware.SessionManager
}

func New(p Params) *Service {
	return NewService(p.Client, p.Store, p.Log)
}

func NewService(backend Backend, store middleware.TokenStore, log *zap.Logger) *Service {
	return &Service{
		backend: backend,
		store:   store,
		log:     log.Named("auth"),
	}
}

// Login stores the token issued for creds. A rejected login returns
// ErrInvalidCredentials and leaves the store untouched.
func (s *Service) Login(ctx context.Context, creds model.Credentials) error {
	token, err := s.backend.ObtainToken(ctx, creds)
	if err != nil {
		if rejected(err) {
			s.log.Info("login rejected", zap.String("username", creds.Username))
			return ErrInvalidCredentials
		}
		s.log.Warn("login failed", zap.String("username", creds.Username), zap.Error(err))
		return err
	}

	if err := s.store.Set(ctx, token); err != nil {
		return err
	}

	s.log.Info("login", zap.String("username", creds.Username))
	return nil
}

// Signup registers creds. No token is stored; the user logs in afterwards.
func (s *Service) Signup(ctx context.Context, creds model.Credentials) error {
	err := s.backend.Signup(ctx, creds)
	if err == nil {
		s.log.Info("signup", zap.String("username", creds.Username))
		return nil
	}

	var re *api.RequestError
	if errors.As(err, &re) {
		if re.Status == 0 {
			return err
		}
		msg := re.Message
		if msg == "" || msg == api.GenericMessage {
			msg = SignupFailedMessage
		}
		return &api.RequestError{Status: re.Status, Message: msg, Err: re.Err}
	}

	return &api.RequestError{Message: SignupFailedMessage, Err: err}
}

func (s *Service) Logout(ctx context.Context) {
	s.store.Clear(ctx)
}

// rejected reports whether the backend refused the credentials themselves.
// The token endpoint answers bad credentials with a 400; a 401 there is
// about the request's token, not the credentials.
func rejected(err error) bool {
	var re *api.RequestError
	return errors.As(err, &re) && re.Status == http.StatusBadRequest
}
