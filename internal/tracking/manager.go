package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wingbite/trackd/internal/adapter/backend"
	domainErrors "github.com/wingbite/trackd/internal/domain/errors"
	"github.com/wingbite/trackd/internal/domain/repository"
	"github.com/wingbite/trackd/internal/pkg/clock"
)

// RefreshFunc is invoked after a completed delivery so surrounding UI can
// refresh its order lists.
type RefreshFunc func(orderID string)

type sessionKey struct {
	surface Surface
	orderID string
}

// Manager owns every open tracking session. Each order is tracked by at most
// one session per surface; opening an already-open view returns the existing
// session.
type Manager struct {
	backend  backend.Client
	journal  repository.FlightJournal
	settings Settings
	clock    clock.Clock
	logger   *slog.Logger
	refresh  RefreshFunc

	mu       sync.Mutex
	baseCtx  context.Context
	cancel   context.CancelFunc
	sessions map[sessionKey]*Session
}

// NewManager constructs the session manager.
func NewManager(client backend.Client, journal repository.FlightJournal, settings Settings, clk clock.Clock, logger *slog.Logger, refresh RefreshFunc) *Manager {
	if clk == nil {
		clk = clock.System{}
	}
	return &Manager{
		backend:  client,
		journal:  journal,
		settings: settings,
		clock:    clk,
		logger:   logger,
		refresh:  refresh,
		sessions: make(map[sessionKey]*Session),
	}
}

// Start captures the lifecycle context every session derives from. Sessions
// opened before Start fall back to the background context.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseCtx, m.cancel = context.WithCancel(ctx)
}

// Open creates (or returns) the tracking session for the surface and order.
// The initial snapshot is fetched synchronously so an unknown order fails
// fast with the backend's answer.
func (m *Manager) Open(ctx context.Context, surface Surface, orderID string) (*Session, error) {
	key := sessionKey{surface: surface, orderID: orderID}

	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	base := m.baseCtx
	m.mu.Unlock()
	if base == nil {
		base = context.Background()
	}

	session := newSession(surface, orderID, m.backend, m.journal, m.settings, m.clock, m.logger, m.sessionClosed)
	if err := session.open(base); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok {
		// Lost the race to a concurrent open; keep the first session.
		m.mu.Unlock()
		session.Close()
		return existing, nil
	}
	m.sessions[key] = session
	m.mu.Unlock()

	m.logger.Info("tracking session opened",
		slog.String("session", session.ID()),
		slog.String("surface", string(surface)),
		slog.String("order", orderID),
	)
	return session, nil
}

// Get returns the open session for the surface and order, if any.
func (m *Manager) Get(surface Surface, orderID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionKey{surface: surface, orderID: orderID}]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return session, nil
}

// Close terminates the session for the surface and order.
func (m *Manager) Close(surface Surface, orderID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionKey{surface: surface, orderID: orderID}]
	m.mu.Unlock()
	if !ok {
		return domainErrors.ErrNotFound
	}
	session.Close()
	return nil
}

// CloseAll terminates every open session; used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		open = append(open, session)
	}
	cancel := m.cancel
	m.mu.Unlock()

	for _, session := range open {
		session.Close()
	}
	if cancel != nil {
		cancel()
	}
}

// sessionClosed is handed to every session; it removes the session from the
// registry and, for completed deliveries, triggers the order list refresh.
func (m *Manager) sessionClosed(s *Session, completed bool) {
	m.mu.Lock()
	key := sessionKey{surface: s.Surface(), orderID: s.OrderID()}
	if current, ok := m.sessions[key]; ok && current == s {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	m.logger.Info("tracking session closed",
		slog.String("session", s.ID()),
		slog.String("surface", string(s.Surface())),
		slog.String("order", s.OrderID()),
		slog.Bool("completed", completed),
	)
	if completed && m.refresh != nil {
		m.refresh(s.OrderID())
	}
}
