package test

import (
	"context"
	"sync"

	"github.com/wingbite/trackd/internal/domain/model"
	"github.com/wingbite/trackd/internal/domain/repository"
)

// DroneUpdate records one drone status call issued against the backend stub.
type DroneUpdate struct {
	DroneID      string
	Status       model.DroneStatus
	BatteryLevel int
}

// BackendStub provides controllable ordering backend behaviour for tests.
// Recorded calls are guarded by the embedded mutex.
type BackendStub struct {
	mu sync.Mutex

	FetchFn    func(ctx context.Context, orderID string) (*model.TrackingSnapshot, error)
	CompleteFn func(ctx context.Context, orderID string) error
	DroneFn    func(ctx context.Context, droneID string, status model.DroneStatus, batteryLevel int) error

	FetchCalls      int
	CompletedOrders []string
	DroneUpdates    []DroneUpdate
}

// DeliveredSnapshot is a convenient baseline snapshot for return flight tests.
func DeliveredSnapshot() *model.TrackingSnapshot {
	return &model.TrackingSnapshot{
		OrderStatus: model.OrderStatusDelivered,
		Drone:       model.SnapshotDrone{ID: "dr-1", Code: "DR-001", BatteryLevel: 80},
		Pickup:      &model.Coordinate{Lat: 0, Lng: 0},
		Delivery:    &model.Coordinate{Lat: 10, Lng: 10},
	}
}

// FetchTrack delegates to FetchFn or returns a delivering snapshot.
func (s *BackendStub) FetchTrack(ctx context.Context, orderID string) (*model.TrackingSnapshot, error) {
	s.mu.Lock()
	s.FetchCalls++
	s.mu.Unlock()
	if s.FetchFn != nil {
		return s.FetchFn(ctx, orderID)
	}
	return &model.TrackingSnapshot{
		OrderStatus:    model.OrderStatusDelivering,
		Drone:          model.SnapshotDrone{ID: "dr-1", Code: "DR-001", BatteryLevel: 80},
		Pickup:         &model.Coordinate{Lat: 0, Lng: 0},
		Delivery:       &model.Coordinate{Lat: 10, Lng: 10},
		FlightProgress: 0.5,
	}, nil
}

// CompleteOrder records the order and delegates to CompleteFn when set.
func (s *BackendStub) CompleteOrder(ctx context.Context, orderID string) error {
	if s.CompleteFn != nil {
		if err := s.CompleteFn(ctx, orderID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.CompletedOrders = append(s.CompletedOrders, orderID)
	s.mu.Unlock()
	return nil
}

// UpdateDroneStatus records the update and delegates to DroneFn when set.
func (s *BackendStub) UpdateDroneStatus(ctx context.Context, droneID string, status model.DroneStatus, batteryLevel int) error {
	if s.DroneFn != nil {
		if err := s.DroneFn(ctx, droneID, status, batteryLevel); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.DroneUpdates = append(s.DroneUpdates, DroneUpdate{DroneID: droneID, Status: status, BatteryLevel: batteryLevel})
	s.mu.Unlock()
	return nil
}

// Fetched returns the number of FetchTrack calls so far.
func (s *BackendStub) Fetched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FetchCalls
}

// Completions returns a copy of the recorded completed order ids.
func (s *BackendStub) Completions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.CompletedOrders...)
}

// DroneCalls returns a copy of the recorded drone updates.
func (s *BackendStub) DroneCalls() []DroneUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DroneUpdate(nil), s.DroneUpdates...)
}

// JournalStub records flight journal writes in memory.
type JournalStub struct {
	mu       sync.Mutex
	RecordFn func(ctx context.Context, rec repository.FlightRecord) (*repository.FlightRecord, error)
	Records  []repository.FlightRecord
}

// Record appends the record, delegating to RecordFn when set.
func (s *JournalStub) Record(ctx context.Context, rec repository.FlightRecord) (*repository.FlightRecord, error) {
	if s.RecordFn != nil {
		return s.RecordFn(ctx, rec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = int64(len(s.Records) + 1)
	s.Records = append(s.Records, rec)
	return &rec, nil
}

// ListRecent returns recorded flights, newest first.
func (s *JournalStub) ListRecent(ctx context.Context, limit int) ([]repository.FlightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.FlightRecord, 0, len(s.Records))
	for i := len(s.Records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.Records[i])
	}
	return out, nil
}

// DroneTotals aggregates recorded flights for one drone.
func (s *JournalStub) DroneTotals(ctx context.Context, droneCode string) (*model.DroneStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.DroneStats{}
	for _, rec := range s.Records {
		if rec.DroneCode != droneCode {
			continue
		}
		stats.Deliveries++
		stats.FlightMinutes += rec.ReturnDuration.Minutes()
		stats.DistanceKm += rec.DistanceKm
	}
	return stats, nil
}

// Recorded returns a copy of the journal contents.
func (s *JournalStub) Recorded() []repository.FlightRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.FlightRecord(nil), s.Records...)
}
