package tracking

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/wingbite/trackd/internal/adapter/backend"
	"github.com/wingbite/trackd/internal/config"
	"github.com/wingbite/trackd/internal/domain/repository"
	"github.com/wingbite/trackd/internal/pkg/clock"
)

// Module wires the session manager into the fx graph.
var Module = fx.Provide(newManager)

type managerParams struct {
	fx.In

	Config  *config.Config
	Backend backend.Client
	Journal repository.FlightJournal
	Logger  *slog.Logger
	Refresh RefreshFunc `optional:"true"`
}

func newManager(p managerParams) *Manager {
	settings := Settings{
		PollInterval:   p.Config.PollInterval,
		ReturnDuration: p.Config.ReturnFlightDuration,
		ReturnTick:     p.Config.ReturnTickInterval,
		BatteryDrain:   p.Config.BatteryDrain,
		BatteryFloor:   p.Config.BatteryFloor,
		PathSamples:    p.Config.PathSamples,
	}
	refresh := p.Refresh
	if refresh == nil {
		refresh = func(orderID string) {
			p.Logger.Info("order completed, refresh order lists", slog.String("order", orderID))
		}
	}
	return NewManager(p.Backend, p.Journal, settings, clock.System{}, p.Logger, refresh)
}
