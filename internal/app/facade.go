package app

import (
	"context"

	"github.com/wingbite/trackd/internal/domain/model"
	"github.com/wingbite/trackd/internal/domain/repository"
	pkgAuth "github.com/wingbite/trackd/internal/pkg/auth"
	"github.com/wingbite/trackd/internal/tracking"
)

// GatewayFacade is the application surface the HTTP layer talks to. It binds
// token verification, the session manager and the flight journal together.
type GatewayFacade struct {
	manager *tracking.Manager
	journal repository.FlightJournal
	tokens  pkgAuth.Strategy
}

// NewGatewayFacade constructs the facade.
func NewGatewayFacade(manager *tracking.Manager, journal repository.FlightJournal, tokens pkgAuth.Strategy) *GatewayFacade {
	return &GatewayFacade{manager: manager, journal: journal, tokens: tokens}
}

// ParseToken verifies a bearer token and returns its claims.
func (f *GatewayFacade) ParseToken(token string) (*pkgAuth.Claims, error) {
	return f.tokens.ParseToken(token)
}

// OpenTracking opens (or reuses) the tracking view for the order and returns
// its initial state.
func (f *GatewayFacade) OpenTracking(ctx context.Context, surface tracking.Surface, orderNumber string) (tracking.State, error) {
	session, err := f.manager.Open(ctx, surface, orderNumber)
	if err != nil {
		return tracking.State{}, err
	}
	return session.State(), nil
}

// TrackingState renders the current state of an open view.
func (f *GatewayFacade) TrackingState(surface tracking.Surface, orderNumber string) (tracking.State, error) {
	session, err := f.manager.Get(surface, orderNumber)
	if err != nil {
		return tracking.State{}, err
	}
	return session.State(), nil
}

// ConfirmDropoff starts the return leg for a delivered order.
func (f *GatewayFacade) ConfirmDropoff(surface tracking.Surface, orderNumber string) (tracking.State, error) {
	session, err := f.manager.Get(surface, orderNumber)
	if err != nil {
		return tracking.State{}, err
	}
	if err := session.ConfirmDropoff(); err != nil {
		return tracking.State{}, err
	}
	return session.State(), nil
}

// CloseTracking terminates an open view.
func (f *GatewayFacade) CloseTracking(surface tracking.Surface, orderNumber string) error {
	return f.manager.Close(surface, orderNumber)
}

// RecentFlights lists the latest completed delivery flights.
func (f *GatewayFacade) RecentFlights(ctx context.Context, limit int) ([]repository.FlightRecord, error) {
	return f.journal.ListRecent(ctx, limit)
}

// DroneStats aggregates journal totals for one drone.
func (f *GatewayFacade) DroneStats(ctx context.Context, droneCode string) (*model.DroneStats, error) {
	return f.journal.DroneTotals(ctx, droneCode)
}
