package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/ghaggin/naviplus-admin/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	errTableFileIsDir = errors.New("table file is dir")
)

// Params are the dependencies of NewSessionStore.
type Params struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Log    *zap.Logger
}

// NewSessionStore returns the scs.Store selected by session.store. Stores
// holding resources are closed when the fx app stops.
func NewSessionStore(p Params) (scs.Store, error) {
	log := p.Log.Named("session_store")

	switch p.Config.Session.Store {
	case config.StoreSQLite:
		s, err := NewSQLite(p.Config.Session.Path, log)
		if err != nil {
			return nil, fmt.Errorf("sqlite session store: %w", err)
		}
		p.LC.Append(fx.Hook{OnStop: func(context.Context) error { return s.Close() }})
		return s, nil

	case config.StoreFile:
		s := NewJSON(p.Config.Session.Path, log)
		p.LC.Append(fx.Hook{OnStop: s.stop})
		return s, nil

	case config.StoreMemory:
		s := memstore.New()
		p.LC.Append(fx.Hook{OnStop: func(context.Context) error {
			s.StopCleanup()
			return nil
		}})
		return s, nil
	}

	return nil, fmt.Errorf("unknown session store %q", p.Config.Session.Store)
}
