package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wingbite/trackd/internal/adapter/backend"
	domainErrors "github.com/wingbite/trackd/internal/domain/errors"
	"github.com/wingbite/trackd/internal/domain/model"
	testhelpers "github.com/wingbite/trackd/internal/test"
)

func TestManagerOpenIsIdempotentPerSurface(t *testing.T) {
	clk := testhelpers.NewFakeClock(time.Unix(0, 0))
	stub := &testhelpers.BackendStub{}
	m := NewManager(stub, nil, testSettings(), clk, testLogger(), nil)
	m.Start(context.Background())
	defer m.CloseAll()

	first, err := m.Open(context.Background(), SurfaceOperator, "ord-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	again, err := m.Open(context.Background(), SurfaceOperator, "ord-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if first != again {
		t.Fatal("expected the same session on reopen")
	}

	shopper, err := m.Open(context.Background(), SurfaceShopper, "ord-1")
	if err != nil {
		t.Fatalf("shopper open: %v", err)
	}
	if shopper == first {
		t.Fatal("surfaces must not share sessions")
	}
}

func TestManagerOpenUnknownOrder(t *testing.T) {
	clk := testhelpers.NewFakeClock(time.Unix(0, 0))
	stub := &testhelpers.BackendStub{
		FetchFn: func(ctx context.Context, orderID string) (*model.TrackingSnapshot, error) {
			return nil, backend.ErrTrackingNotFound
		},
	}
	m := NewManager(stub, nil, testSettings(), clk, testLogger(), nil)
	m.Start(context.Background())

	if _, err := m.Open(context.Background(), SurfaceOperator, "missing"); !errors.Is(err, backend.ErrTrackingNotFound) {
		t.Fatalf("got %v, want ErrTrackingNotFound", err)
	}
	if _, err := m.Get(SurfaceOperator, "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("failed open must not register a session, got %v", err)
	}
}

func TestManagerCloseRemovesSession(t *testing.T) {
	clk := testhelpers.NewFakeClock(time.Unix(0, 0))
	stub := &testhelpers.BackendStub{}
	m := NewManager(stub, nil, testSettings(), clk, testLogger(), nil)
	m.Start(context.Background())

	if _, err := m.Open(context.Background(), SurfaceShopper, "ord-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := m.Close(SurfaceShopper, "ord-1"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := m.Get(SurfaceShopper, "ord-1"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := m.Close(SurfaceShopper, "ord-1"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("second close: got %v, want ErrNotFound", err)
	}
	waitFor(t, "ticker cleanup", func() bool { return clk.Outstanding() == 0 })
}

func TestManagerCloseAll(t *testing.T) {
	clk := testhelpers.NewFakeClock(time.Unix(0, 0))
	stub := &testhelpers.BackendStub{}
	m := NewManager(stub, nil, testSettings(), clk, testLogger(), nil)
	m.Start(context.Background())

	for _, orderID := range []string{"ord-1", "ord-2", "ord-3"} {
		if _, err := m.Open(context.Background(), SurfaceOperator, orderID); err != nil {
			t.Fatalf("open %s: %v", orderID, err)
		}
	}
	m.CloseAll()

	for _, orderID := range []string{"ord-1", "ord-2", "ord-3"} {
		if _, err := m.Get(SurfaceOperator, orderID); !errors.Is(err, domainErrors.ErrNotFound) {
			t.Fatalf("%s still registered after CloseAll", orderID)
		}
	}
	waitFor(t, "ticker cleanup", func() bool { return clk.Outstanding() == 0 })
}

// Full happy path: delivered order, operator confirms drop-off, the simulated
// return lands, the backend sees exactly one completion and one drone release
// with the battery drained, the journal gets its record and the view closes.
func TestManagerDropoffToCompletion(t *testing.T) {
	clk := testhelpers.NewFakeClock(time.Unix(0, 0))
	stub := &testhelpers.BackendStub{
		FetchFn: func(ctx context.Context, orderID string) (*model.TrackingSnapshot, error) {
			return testhelpers.DeliveredSnapshot(), nil
		},
	}
	journal := &testhelpers.JournalStub{}
	refreshed := make(chan string, 1)
	m := NewManager(stub, journal, testSettings(), clk, testLogger(), func(orderID string) {
		refreshed <- orderID
	})
	m.Start(context.Background())

	session, err := m.Open(context.Background(), SurfaceOperator, "ord-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := session.ConfirmDropoff(); err != nil {
		t.Fatalf("ConfirmDropoff: %v", err)
	}

	advanceUntil(t, clk, 50*time.Millisecond, "completion", func() bool {
		return len(stub.Completions()) == 1
	})

	select {
	case orderID := <-refreshed:
		if orderID != "ord-1" {
			t.Fatalf("refreshed wrong order: %s", orderID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for order list refresh")
	}
	if _, err := m.Get(SurfaceOperator, "ord-1"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatal("session still open after completed return")
	}

	// Landing must have happened exactly once even if time keeps moving.
	clk.Advance(5 * time.Second)
	if got := stub.Completions(); len(got) != 1 || got[0] != "ord-1" {
		t.Fatalf("unexpected completions: %v", got)
	}
	drones := stub.DroneCalls()
	if len(drones) != 1 {
		t.Fatalf("expected one drone release, got %d", len(drones))
	}
	if drones[0].DroneID != "dr-1" || drones[0].Status != model.DroneStatusAvailable || drones[0].BatteryLevel != 60 {
		t.Fatalf("unexpected drone release: %+v", drones[0])
	}

	records := journal.Recorded()
	if len(records) != 1 {
		t.Fatalf("expected one journal record, got %d", len(records))
	}
	if records[0].OrderID != "ord-1" || records[0].DroneCode != "DR-001" {
		t.Fatalf("unexpected journal record: %+v", records[0])
	}
	if records[0].DistanceKm <= 0 {
		t.Fatalf("expected positive flight distance, got %v", records[0].DistanceKm)
	}
	if records[0].BatteryDrain != 20 {
		t.Fatalf("expected battery drain 20, got %d", records[0].BatteryDrain)
	}

	waitFor(t, "ticker cleanup", func() bool { return clk.Outstanding() == 0 })
}

// Closing the view mid-return cancels the animation without running the
// completion side effects and leaves no timers behind.
func TestManagerCloseMidReturnCancelsFlight(t *testing.T) {
	clk := testhelpers.NewFakeClock(time.Unix(0, 0))
	stub := &testhelpers.BackendStub{
		FetchFn: func(ctx context.Context, orderID string) (*model.TrackingSnapshot, error) {
			return testhelpers.DeliveredSnapshot(), nil
		},
	}
	m := NewManager(stub, nil, testSettings(), clk, testLogger(), nil)
	m.Start(context.Background())

	session, err := m.Open(context.Background(), SurfaceOperator, "ord-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := session.ConfirmDropoff(); err != nil {
		t.Fatalf("ConfirmDropoff: %v", err)
	}
	waitFor(t, "animation ticker", func() bool { return clk.Outstanding() == 2 })
	clk.Advance(500 * time.Millisecond)

	if err := m.Close(SurfaceOperator, "ord-1"); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitFor(t, "ticker cleanup", func() bool { return clk.Outstanding() == 0 })
	if got := len(stub.Completions()); got != 0 {
		t.Fatalf("cancelled return must not complete the order, got %d completions", got)
	}
	if _, err := m.Get(SurfaceOperator, "ord-1"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatal("session still registered after close")
	}
}
