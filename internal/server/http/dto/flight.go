package dto

import "time"

// FlightRecordResponse is one journal entry of a completed delivery flight.
type FlightRecordResponse struct {
	OrderNumber   string    `json:"orderNumber"`
	DroneCode     string    `json:"droneCode"`
	DistanceKm    float64   `json:"distanceKm"`
	ReturnSeconds float64   `json:"returnSeconds"`
	BatteryDrain  int       `json:"batteryDrain"`
	CompletedAt   time.Time `json:"completedAt"`
}

// DroneStatsResponse aggregates journal totals for one drone.
type DroneStatsResponse struct {
	DroneCode     string  `json:"droneCode"`
	Deliveries    int     `json:"deliveries"`
	FlightMinutes float64 `json:"flightMinutes"`
	DistanceKm    float64 `json:"distanceKm"`
}
