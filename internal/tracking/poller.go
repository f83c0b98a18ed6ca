package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wingbite/trackd/internal/domain/model"
	"github.com/wingbite/trackd/internal/pkg/clock"
)

// FetchFunc retrieves the authoritative tracking snapshot for an order.
type FetchFunc func(ctx context.Context, orderID string) (*model.TrackingSnapshot, error)

// Poller fetches tracking snapshots on a fixed delay: the next fetch is
// scheduled only after the previous one settles, so at most one request is
// ever in flight regardless of network latency. Failed polls are logged and
// absorbed; the next tick retries.
type Poller struct {
	orderID    string
	interval   time.Duration
	fetch      FetchFunc
	onSnapshot func(*model.TrackingSnapshot)
	clock      clock.Clock
	logger     *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// NewPoller constructs a poller for one order. onSnapshot is invoked for every
// successful fetch until Stop is called.
func NewPoller(orderID string, interval time.Duration, fetch FetchFunc, onSnapshot func(*model.TrackingSnapshot), clk clock.Clock, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Poller{
		orderID:    orderID,
		interval:   interval,
		fetch:      fetch,
		onSnapshot: onSnapshot,
		clock:      clk,
		logger:     logger,
	}
}

// Start launches the poll loop. Calling Start on a running or stopped poller
// is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.stopped {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx)
}

// Stop terminates the loop. It is idempotent and guarantees that onSnapshot
// is never invoked after it returns, even when a fetch is already in flight.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	for {
		p.pollOnce(ctx)

		ticker := p.clock.NewTicker(p.interval)
		select {
		case <-ctx.Done():
			ticker.Stop()
			return
		case <-ticker.C():
			ticker.Stop()
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	snapshot, err := p.fetch(ctx, p.orderID)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("tracking poll failed",
				slog.String("order", p.orderID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	// The stopped flag is checked under the same lock Stop acquires, so an
	// emission can never slip in after Stop has returned.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || ctx.Err() != nil {
		return
	}
	p.onSnapshot(snapshot)
}
