package main

import (
	"flag"

	"github.com/ghaggin/naviplus-admin/internal/admin"
	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/auth"
	"github.com/ghaggin/naviplus-admin/internal/config"
	"github.com/ghaggin/naviplus-admin/internal/logging"
	"github.com/ghaggin/naviplus-admin/internal/middleware"
	"github.com/ghaggin/naviplus-admin/internal/repository"
	"go.uber.org/fx"
)

func main() {
	var configPath = flag.String("config", config.DefaultPath, "path to the yaml config file")
	flag.Parse()

	fx.New(
		fx.WithLogger(logging.FxLogger),
		options(config.Path(*configPath)),
	).Run()
}

func options(path config.Path) fx.Option {
	newPath := func() config.Path {
		return path
	}

	return fx.Options(
		fx.Provide(
			newPath,
			config.New,
			logging.New,
			repository.NewSessionStore,
			middleware.NewSessionManager,
			api.New,
			auth.New,
			admin.New,
		),
		fx.Invoke(admin.RegisterHooks),
	)
}
