package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/wingbite/trackd/internal/domain/model"
)

// ErrTrackingNotFound indicates the backend has no tracking data for the order.
var ErrTrackingNotFound = errors.New("tracking data not available")

// TooManyRequestsError represents a rate limiting signal from the backend.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client exposes the ordering backend operations the tracking core consumes.
type Client interface {
	FetchTrack(ctx context.Context, orderID string) (*model.TrackingSnapshot, error)
	CompleteOrder(ctx context.Context, orderID string) error
	UpdateDroneStatus(ctx context.Context, droneID string, status model.DroneStatus, batteryLevel int) error
}

// HTTPClient implements Client via the backend REST API.
type HTTPClient struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type coordinatePayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// trackResponse mirrors the JSON payload of GET /api/orders/{id}/track.
type trackResponse struct {
	Order struct {
		Status string `json:"status"`
	} `json:"order"`
	Tracking struct {
		PickupLocation   *coordinatePayload `json:"pickupLocation"`
		DeliveryLocation *coordinatePayload `json:"deliveryLocation"`
		FlightProgress   float64            `json:"flightProgress"`
		Drone            struct {
			ID           string `json:"id"`
			Code         string `json:"code"`
			BatteryLevel int    `json:"batteryLevel"`
		} `json:"drone"`
	} `json:"tracking"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

type droneStatusRequest struct {
	Status       string `json:"status"`
	BatteryLevel int    `json:"batteryLevel"`
}

// NewHTTPClient creates a backend client with a default timeout. The token is
// sent as a bearer credential on every request.
func NewHTTPClient(baseURL, token string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// FetchTrack retrieves the authoritative tracking snapshot for the order.
func (c *HTTPClient) FetchTrack(ctx context.Context, orderID string) (*model.TrackingSnapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, path.Join("/api/orders/", orderID, "/track"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var data trackResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}

	snapshot := &model.TrackingSnapshot{
		OrderStatus: model.OrderStatus(data.Order.Status),
		Drone: model.SnapshotDrone{
			ID:           data.Tracking.Drone.ID,
			Code:         data.Tracking.Drone.Code,
			BatteryLevel: data.Tracking.Drone.BatteryLevel,
		},
		FlightProgress: data.Tracking.FlightProgress,
	}
	if loc := data.Tracking.PickupLocation; loc != nil {
		snapshot.Pickup = &model.Coordinate{Lat: loc.Lat, Lng: loc.Lng}
	}
	if loc := data.Tracking.DeliveryLocation; loc != nil {
		snapshot.Delivery = &model.Coordinate{Lat: loc.Lat, Lng: loc.Lng}
	}
	return snapshot, nil
}

// CompleteOrder asks the backend to move the order into its completed state.
func (c *HTTPClient) CompleteOrder(ctx context.Context, orderID string) error {
	payload := orderStatusRequest{Status: string(model.OrderStatusCompleted)}
	resp, err := c.do(ctx, http.MethodPatch, path.Join("/api/orders/", orderID, "/status"), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkStatus(resp)
}

// UpdateDroneStatus reports the drone status and battery level to the backend.
func (c *HTTPClient) UpdateDroneStatus(ctx context.Context, droneID string, status model.DroneStatus, batteryLevel int) error {
	payload := droneStatusRequest{Status: string(status), BatteryLevel: batteryLevel}
	resp, err := c.do(ctx, http.MethodPatch, path.Join("/api/drones/", droneID, "/status"), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkStatus(resp)
}

func (c *HTTPClient) do(ctx context.Context, method, endpointPath string, payload any) (*http.Response, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, endpointPath)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *HTTPClient) checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		if resp.StatusCode == http.StatusNoContent && resp.Request.Method == http.MethodGet {
			return ErrTrackingNotFound
		}
		return nil
	case http.StatusNotFound:
		return ErrTrackingNotFound
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("backend request failed",
			slog.String("method", resp.Request.Method),
			slog.String("path", resp.Request.URL.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("backend error: %s", resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
