package repository

import (
	"context"
	"time"

	"github.com/wingbite/trackd/internal/domain/model"
)

// FlightRecord is one completed delivery flight as recorded by the gateway
// when the return leg lands.
type FlightRecord struct {
	ID             int64
	OrderID        string
	DroneID        string
	DroneCode      string
	DistanceKm     float64
	ReturnDuration time.Duration
	BatteryDrain   int
	CompletedAt    time.Time
}

// FlightJournal persists completed flights and derives per-drone statistics.
type FlightJournal interface {
	Record(ctx context.Context, rec FlightRecord) (*FlightRecord, error)
	ListRecent(ctx context.Context, limit int) ([]FlightRecord, error)
	DroneTotals(ctx context.Context, droneCode string) (*model.DroneStats, error)
}
