package dto

// CoordinateResponse is a map point rendered by the tracking views.
type CoordinateResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DroneResponse describes the drone assigned to a tracked order.
type DroneResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	BatteryLevel int    `json:"batteryLevel"`
}

// TrackingStateResponse is the rendered tracking view state.
type TrackingStateResponse struct {
	SessionID       string               `json:"sessionId"`
	OrderNumber     string               `json:"orderNumber"`
	Status          string               `json:"status"`
	StatusLabel     string               `json:"statusLabel"`
	Returning       bool                 `json:"returning"`
	Progress        float64              `json:"progress"`
	Position        CoordinateResponse   `json:"position"`
	Traveled        []CoordinateResponse `json:"traveled"`
	Remaining       []CoordinateResponse `json:"remaining"`
	Drone           DroneResponse        `json:"drone"`
	CompletionError string               `json:"completionError,omitempty"`
}
