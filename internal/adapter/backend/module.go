package backend

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/wingbite/trackd/internal/config"
)

// Module exposes the ordering backend client to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.BackendAddress, p.Config.ServiceToken, p.Logger)
}
