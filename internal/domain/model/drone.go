package model

// DroneStatus represents the operational state of a delivery drone.
type DroneStatus string

const (
	DroneStatusAvailable   DroneStatus = "available"
	DroneStatusBusy        DroneStatus = "busy"
	DroneStatusDelivering  DroneStatus = "delivering"
	DroneStatusReturning   DroneStatus = "returning"
	DroneStatusCharging    DroneStatus = "charging"
	DroneStatusMaintenance DroneStatus = "maintenance"
	DroneStatusOffline     DroneStatus = "offline"
)

// DroneStats accumulates per-drone delivery statistics.
type DroneStats struct {
	Deliveries    int
	FlightMinutes float64
	DistanceKm    float64
}

// Drone represents a delivery drone managed by the fleet backend.
type Drone struct {
	ID           string
	Code         string
	Name         string
	BatteryLevel int
	MaxPayloadKg float64
	MaxRangeKm   float64
	RestaurantID string
	Status       DroneStatus
	Stats        DroneStats
}

// DrainBattery returns the battery level after one delivery: level minus
// drain, never below floor and never below zero.
func DrainBattery(level, drain, floor int) int {
	if floor < 0 {
		floor = 0
	}
	remaining := level - drain
	if remaining < floor {
		remaining = floor
	}
	if remaining > level {
		return level
	}
	return remaining
}
