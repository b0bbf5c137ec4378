package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/auth"
	"github.com/ghaggin/naviplus-admin/internal/config"
	"github.com/ghaggin/naviplus-admin/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server is the admin web front end.
type Server struct {
	log    *zap.Logger
	server *http.Server
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   *config.Config
	Sessions *middleware.SessionManager
	Client   *api.Client
	Auth     *auth.Service
}

func New(p Params) (*Server, error) {
	h := &handlers{
		log:      p.Log.Named("admin"),
		sessions: p.Sessions,
		guard:    middleware.NewGuard(p.Sessions),
		client:   p.Client,
		auth:     p.Auth,
	}

	root := chi.NewRouter()
	root.Use(chimw.RequestID)
	root.Use(chimw.Recoverer)
	root.Use(middleware.RequestLogger(h.log))
	root.Use(p.Sessions.Wrap)

	// Auth
	root.Group(func(r chi.Router) {
		r.Use(h.guard.Require)
		r.Get("/dashboard", h.dashboard)
		r.Get("/buildings", h.listBuildings)
		r.Post("/buildings", h.createBuilding)
		r.Get("/plds", h.listPLDs)
		r.Get("/plds/new", h.newPLD)
		r.Post("/plds/new", h.createPLD)
	})

	// No Auth
	root.Group(func(r chi.Router) {
		r.Get("/", h.landing)
		r.Get("/login", h.loginForm)
		r.Post("/login", h.login)
		r.Get("/signup", h.signupForm)
		r.Post("/signup", h.signup)
		r.Post("/logout", h.logout)
	})

	return &Server{
		log: p.Log,
		server: &http.Server{
			Addr:    p.Config.Addr(),
			Handler: root,
		},
	}, nil
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.server.Shutdown,
	})
}

func (s *Server) Start(_ context.Context) error {
	s.log.Info("admin listening", zap.String("addr", s.server.Addr))
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error starting server", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
