package handlers

import (
	"context"

	"github.com/wingbite/trackd/internal/domain/model"
	"github.com/wingbite/trackd/internal/domain/repository"
	pkgAuth "github.com/wingbite/trackd/internal/pkg/auth"
	"github.com/wingbite/trackd/internal/tracking"
)

// AuthFacade describes token verification required by handlers.
type AuthFacade interface {
	ParseToken(token string) (*pkgAuth.Claims, error)
}

// TrackingFacade encapsulates tracking view operations exposed via HTTP.
type TrackingFacade interface {
	OpenTracking(ctx context.Context, surface tracking.Surface, orderNumber string) (tracking.State, error)
	TrackingState(surface tracking.Surface, orderNumber string) (tracking.State, error)
	ConfirmDropoff(surface tracking.Surface, orderNumber string) (tracking.State, error)
	CloseTracking(surface tracking.Surface, orderNumber string) error
}

// FlightLogFacade exposes the flight journal to the operator console.
type FlightLogFacade interface {
	RecentFlights(ctx context.Context, limit int) ([]repository.FlightRecord, error)
	DroneStats(ctx context.Context, droneCode string) (*model.DroneStats, error)
}

// GatewayFacade aggregates the full set of operations used across handlers.
type GatewayFacade interface {
	AuthFacade
	TrackingFacade
	FlightLogFacade
}
