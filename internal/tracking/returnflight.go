package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/wingbite/trackd/internal/domain/errors"
	"github.com/wingbite/trackd/internal/geo"
	"github.com/wingbite/trackd/internal/pkg/clock"
)

// ReturnFlight reports the drone's flight from the customer back to the
// restaurant. The timer-backed simulator below is the only implementation
// today: operator confirmation is treated as ground truth for the physical
// hand-off, and the landing is decided by elapsed wall-clock time. A real
// telemetry integration replaces this interface, not the session state
// machine.
type ReturnFlight interface {
	Start(ctx context.Context) error
	Progress() float64
	Active() bool
}

// ReturnSequencer simulates the return leg over a fixed duration and runs the
// completion side effects exactly once when the leg finishes.
type ReturnSequencer struct {
	duration   time.Duration
	tick       time.Duration
	clock      clock.Clock
	logger     *slog.Logger
	onProgress func(float64)
	complete   func(ctx context.Context) error
	onDone     func(err error)

	mu       sync.Mutex
	active   bool
	landed   bool
	progress float64
}

// NewReturnSequencer constructs the timer-driven return flight. onProgress is
// published on every tick; complete runs the completion side effects; onDone
// receives their outcome.
func NewReturnSequencer(duration, tick time.Duration, clk clock.Clock, logger *slog.Logger, onProgress func(float64), complete func(ctx context.Context) error, onDone func(err error)) *ReturnSequencer {
	if duration <= 0 {
		duration = 10 * time.Second
	}
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &ReturnSequencer{
		duration:   duration,
		tick:       tick,
		clock:      clk,
		logger:     logger,
		onProgress: onProgress,
		complete:   complete,
		onDone:     onDone,
	}
}

// Start begins the return leg. A second Start while one is in flight returns
// ErrReturnInProgress; the guard is cleared only after the completion side
// effects settle, so retrying a failed completion is possible but a duplicate
// side-effect pair is not. A retry after a failed completion skips the
// animation, which is not rolled back, and re-runs only the side effects.
func (s *ReturnSequencer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return domainErrors.ErrReturnInProgress
	}
	s.active = true
	skipAnimation := s.landed
	s.mu.Unlock()

	go s.run(ctx, skipAnimation)
	return nil
}

// Progress returns the last published return progress in [0,1].
func (s *ReturnSequencer) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Active reports whether a sequence is currently in flight.
func (s *ReturnSequencer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *ReturnSequencer) run(ctx context.Context, skipAnimation bool) {
	if !skipAnimation && !s.animate(ctx) {
		// Cancelled mid-flight: release the guard and stay silent. The view
		// is gone; there is nothing to report to.
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
		return
	}

	err := s.complete(ctx)

	s.mu.Lock()
	s.landed = true
	s.active = false
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("return flight completion failed", slog.String("error", err.Error()))
	}
	s.onDone(err)
}

// animate drives progress from 0 to 1 over the configured duration. It
// returns false when the context is cancelled before landing.
func (s *ReturnSequencer) animate(ctx context.Context) bool {
	start := s.clock.Now()
	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C():
			elapsed := s.clock.Now().Sub(start)
			progress := geo.ClampProgress(float64(elapsed) / float64(s.duration))

			s.mu.Lock()
			s.progress = progress
			s.mu.Unlock()

			s.onProgress(progress)
			if progress >= 1 {
				return true
			}
		}
	}
}
