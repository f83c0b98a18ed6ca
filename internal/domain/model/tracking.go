package model

// Coordinate is a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SnapshotDrone is the drone identity carried inside a tracking snapshot.
type SnapshotDrone struct {
	ID           string
	Code         string
	BatteryLevel int
}

// TrackingSnapshot is one authoritative poll result: order status, drone
// identity and the reported flight progress along the pickup→delivery leg.
// A snapshot always replaces the previous one wholesale; fields are never
// merged, which rules out partial-update races.
type TrackingSnapshot struct {
	OrderStatus    OrderStatus
	Drone          SnapshotDrone
	Pickup         *Coordinate
	Delivery       *Coordinate
	FlightProgress float64
}
