package di

import (
	"go.uber.org/fx"

	"github.com/wingbite/trackd/internal/adapter/backend"
	"github.com/wingbite/trackd/internal/app"
	"github.com/wingbite/trackd/internal/config"
	"github.com/wingbite/trackd/internal/logger"
	"github.com/wingbite/trackd/internal/pkg/auth"
	"github.com/wingbite/trackd/internal/server/http/router"
	"github.com/wingbite/trackd/internal/storage/postgres"
	"github.com/wingbite/trackd/internal/tracking"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		backend.Module,
		tracking.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
