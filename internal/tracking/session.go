package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wingbite/trackd/internal/adapter/backend"
	domainErrors "github.com/wingbite/trackd/internal/domain/errors"
	"github.com/wingbite/trackd/internal/domain/model"
	"github.com/wingbite/trackd/internal/domain/repository"
	"github.com/wingbite/trackd/internal/geo"
	"github.com/wingbite/trackd/internal/pkg/clock"
)

// Surface identifies which client owns a tracking view.
type Surface string

const (
	// SurfaceOperator is the restaurant operator console; it may confirm
	// drop-off and thereby start the return leg.
	SurfaceOperator Surface = "operator"
	// SurfaceShopper is the customer app; its view is strictly read-only.
	SurfaceShopper Surface = "shopper"
)

// Settings are the tracking knobs shared by every session.
type Settings struct {
	PollInterval   time.Duration
	ReturnDuration time.Duration
	ReturnTick     time.Duration
	BatteryDrain   int
	BatteryFloor   int
	PathSamples    int
}

// State is a read-only projection of a session for the rendering layer: a
// coordinate, a traveled-path fraction and the labels around them.
type State struct {
	SessionID     string
	OrderID       string
	Surface       Surface
	Status        model.OrderStatus
	StatusLabel   string
	Returning     bool
	Progress      float64
	Position      model.Coordinate
	Traveled      []model.Coordinate
	Remaining     []model.Coordinate
	Drone         model.SnapshotDrone
	CompletionErr string
}

// Session is one open tracking view. It owns the poll loop, the rendered
// position and, for operator sessions, the return flight. All of its mutable
// state is guarded by a single mutex; a closed session never mutates again.
//
// Precedence rule: while the return leg is active the server-reported flight
// progress is ignored for position purposes. The server is not the source of
// truth for that leg, so local animation state always wins over stale polls.
type Session struct {
	id      string
	surface Surface
	orderID string

	backend  backend.Client
	journal  repository.FlightJournal
	settings Settings
	clock    clock.Clock
	logger   *slog.Logger
	onClosed func(s *Session, completed bool)

	poller       *Poller
	returnFlight ReturnFlight
	lifeCtx      context.Context
	cancel       context.CancelFunc

	mu             sync.Mutex
	closed         bool
	snapshot       *model.TrackingSnapshot
	returning      bool
	returnProgress float64
	returnStarted  time.Time
	completionErr  error
}

func newSession(surface Surface, orderID string, client backend.Client, journal repository.FlightJournal, settings Settings, clk clock.Clock, logger *slog.Logger, onClosed func(*Session, bool)) *Session {
	if clk == nil {
		clk = clock.System{}
	}
	s := &Session{
		id:       uuid.NewString(),
		surface:  surface,
		orderID:  orderID,
		backend:  client,
		journal:  journal,
		settings: settings,
		clock:    clk,
		logger:   logger,
		onClosed: onClosed,
	}
	s.returnFlight = NewReturnSequencer(
		settings.ReturnDuration,
		settings.ReturnTick,
		clk,
		logger,
		s.publishReturnProgress,
		s.completeReturn,
		s.finishReturn,
	)
	return s
}

// open validates the order with one synchronous fetch, then arms the poller.
func (s *Session) open(ctx context.Context) error {
	snapshot, err := s.backend.FetchTrack(ctx, s.orderID)
	if err != nil {
		return err
	}
	s.applySnapshot(snapshot)

	pollCtx, cancel := context.WithCancel(ctx)
	s.lifeCtx = pollCtx
	s.cancel = cancel
	s.poller = NewPoller(s.orderID, s.settings.PollInterval, s.backend.FetchTrack, s.applySnapshot, s.clock, s.logger)
	s.poller.Start(pollCtx)
	return nil
}

// ID returns the session identifier handed to the UI on open.
func (s *Session) ID() string { return s.id }

// OrderID returns the tracked order.
func (s *Session) OrderID() string { return s.orderID }

// Surface returns the owning surface.
func (s *Session) Surface() Surface { return s.surface }

// applySnapshot replaces the cached snapshot wholesale. Field-by-field merges
// are deliberately avoided.
func (s *Session) applySnapshot(snapshot *model.TrackingSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.snapshot = snapshot
}

// State renders the current session state. Safe to call at any rate.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		SessionID: s.id,
		OrderID:   s.orderID,
		Surface:   s.surface,
		Returning: s.returning,
	}
	if err := s.completionErr; err != nil {
		state.CompletionErr = err.Error()
	}
	if s.snapshot == nil {
		return state
	}

	snapshot := s.snapshot
	state.Drone = snapshot.Drone

	if s.returning {
		state.Status = model.OrderStatusReturning
		state.Progress = s.returnProgress
		// Reversed leg: from the customer back to the restaurant.
		state.Position = geo.Position(snapshot.Delivery, snapshot.Pickup, s.returnProgress)
		path := geo.SamplePath(snapshot.Delivery, snapshot.Pickup, s.settings.PathSamples)
		state.Traveled, state.Remaining = geo.SplitPath(path, s.returnProgress)
	} else {
		state.Status = snapshot.OrderStatus
		state.Progress = s.displayProgress(snapshot)
		state.Position = geo.Position(snapshot.Pickup, snapshot.Delivery, state.Progress)
		path := geo.SamplePath(snapshot.Pickup, snapshot.Delivery, s.settings.PathSamples)
		state.Traveled, state.Remaining = geo.SplitPath(path, state.Progress)
	}
	state.StatusLabel = state.Status.Label()
	return state
}

// displayProgress maps the snapshot onto the pickup→delivery leg. Flight
// progress only applies while delivering; before departure the drone renders
// at the restaurant, after delivery at the customer.
func (s *Session) displayProgress(snapshot *model.TrackingSnapshot) float64 {
	switch snapshot.OrderStatus {
	case model.OrderStatusDelivering:
		return geo.ClampProgress(snapshot.FlightProgress)
	case model.OrderStatusDelivered, model.OrderStatusCompleted:
		return 1
	default:
		return 0
	}
}

// ConfirmDropoff starts the simulated return leg. Only operator sessions may
// call it, and only while the authoritative status is exactly delivered;
// anything else leaves the state machine untouched. The leg outlives the
// confirming request: it is bound to the session lifetime, not the caller.
func (s *Session) ConfirmDropoff() error {
	if s.surface != SurfaceOperator {
		return domainErrors.ErrReadOnlySession
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domainErrors.ErrSessionClosed
	}
	snapshot := s.snapshot
	alreadyReturning := s.returning
	s.mu.Unlock()

	// The delivered guard applies to entering the return phase. A session
	// already returning may call again to retry failed completion side
	// effects, even though the backend may have moved on by then.
	if !alreadyReturning {
		if snapshot == nil || snapshot.OrderStatus != model.OrderStatusDelivered {
			return domainErrors.ErrNotDelivered
		}
		if !snapshot.OrderStatus.CanTransition(model.OrderStatusReturning) {
			return domainErrors.ErrIllegalTransition
		}
	}

	base := s.lifeCtx
	if base == nil {
		base = context.Background()
	}
	if err := s.returnFlight.Start(base); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.returning {
		s.returning = true
		s.returnStarted = s.clock.Now()
	}
	s.completionErr = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) publishReturnProgress(progress float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.returnProgress = progress
}

// completeReturn runs the landing side effects: order completion, drone
// release with battery drain, and the flight journal entry. The first two are
// business critical and abort on failure; the journal write is best effort.
func (s *Session) completeReturn(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.snapshot
	started := s.returnStarted
	s.mu.Unlock()
	if snapshot == nil {
		return fmt.Errorf("no snapshot for order %s", s.orderID)
	}

	if err := s.backend.CompleteOrder(ctx, s.orderID); err != nil {
		return fmt.Errorf("complete order: %w", err)
	}

	battery := model.DrainBattery(snapshot.Drone.BatteryLevel, s.settings.BatteryDrain, s.settings.BatteryFloor)
	if err := s.backend.UpdateDroneStatus(ctx, snapshot.Drone.ID, model.DroneStatusAvailable, battery); err != nil {
		return fmt.Errorf("release drone: %w", err)
	}

	if s.journal != nil {
		legKm := 0.0
		if snapshot.Pickup != nil && snapshot.Delivery != nil {
			legKm = geo.HaversineKm(*snapshot.Pickup, *snapshot.Delivery)
		}
		record := repository.FlightRecord{
			OrderID:        s.orderID,
			DroneID:        snapshot.Drone.ID,
			DroneCode:      snapshot.Drone.Code,
			DistanceKm:     2 * legKm,
			ReturnDuration: s.clock.Now().Sub(started),
			BatteryDrain:   snapshot.Drone.BatteryLevel - battery,
			CompletedAt:    s.clock.Now(),
		}
		if _, err := s.journal.Record(ctx, record); err != nil {
			s.logger.Error("flight journal write failed",
				slog.String("order", s.orderID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// finishReturn settles the sequence outcome: success closes the view, failure
// is surfaced and leaves the session open for a retry.
func (s *Session) finishReturn(err error) {
	if err != nil {
		s.mu.Lock()
		if !s.closed {
			s.completionErr = err
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.completionErr = nil
	s.mu.Unlock()
	s.close(true)
}

// Close tears the session down: the poller and any in-flight animation are
// cancelled and no callback mutates session state afterwards.
func (s *Session) Close() {
	s.close(false)
}

func (s *Session) close(completed bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.poller != nil {
		s.poller.Stop()
	}
	if s.onClosed != nil {
		s.onClosed(s, completed)
	}
}
