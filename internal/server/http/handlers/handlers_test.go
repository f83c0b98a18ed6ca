package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wingbite/trackd/internal/adapter/backend"
	domainErrors "github.com/wingbite/trackd/internal/domain/errors"
	"github.com/wingbite/trackd/internal/domain/model"
	"github.com/wingbite/trackd/internal/domain/repository"
	pkgAuth "github.com/wingbite/trackd/internal/pkg/auth"
	"github.com/wingbite/trackd/internal/server/http/dto"
	"github.com/wingbite/trackd/internal/server/http/middleware"
	"github.com/wingbite/trackd/internal/tracking"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// facadeStub provides controllable facade behaviour for handler tests.
type facadeStub struct {
	ParseTokenFn     func(token string) (*pkgAuth.Claims, error)
	OpenTrackingFn   func(ctx context.Context, surface tracking.Surface, orderNumber string) (tracking.State, error)
	TrackingStateFn  func(surface tracking.Surface, orderNumber string) (tracking.State, error)
	ConfirmDropoffFn func(surface tracking.Surface, orderNumber string) (tracking.State, error)
	CloseTrackingFn  func(surface tracking.Surface, orderNumber string) error
	RecentFlightsFn  func(ctx context.Context, limit int) ([]repository.FlightRecord, error)
	DroneStatsFn     func(ctx context.Context, droneCode string) (*model.DroneStats, error)
}

func (s facadeStub) ParseToken(token string) (*pkgAuth.Claims, error) {
	if s.ParseTokenFn != nil {
		return s.ParseTokenFn(token)
	}
	return &pkgAuth.Claims{Subject: "op-1", Role: pkgAuth.RoleOperator}, nil
}

func (s facadeStub) OpenTracking(ctx context.Context, surface tracking.Surface, orderNumber string) (tracking.State, error) {
	if s.OpenTrackingFn != nil {
		return s.OpenTrackingFn(ctx, surface, orderNumber)
	}
	return tracking.State{}, nil
}

func (s facadeStub) TrackingState(surface tracking.Surface, orderNumber string) (tracking.State, error) {
	if s.TrackingStateFn != nil {
		return s.TrackingStateFn(surface, orderNumber)
	}
	return tracking.State{}, nil
}

func (s facadeStub) ConfirmDropoff(surface tracking.Surface, orderNumber string) (tracking.State, error) {
	if s.ConfirmDropoffFn != nil {
		return s.ConfirmDropoffFn(surface, orderNumber)
	}
	return tracking.State{}, nil
}

func (s facadeStub) CloseTracking(surface tracking.Surface, orderNumber string) error {
	if s.CloseTrackingFn != nil {
		return s.CloseTrackingFn(surface, orderNumber)
	}
	return nil
}

func (s facadeStub) RecentFlights(ctx context.Context, limit int) ([]repository.FlightRecord, error) {
	if s.RecentFlightsFn != nil {
		return s.RecentFlightsFn(ctx, limit)
	}
	return nil, nil
}

func (s facadeStub) DroneStats(ctx context.Context, droneCode string) (*model.DroneStats, error) {
	if s.DroneStatsFn != nil {
		return s.DroneStatsFn(ctx, droneCode)
	}
	return &model.DroneStats{}, nil
}

func performRequest(t *testing.T, method, path, target string, handler gin.HandlerFunc, setup func(*gin.Context)) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asOperator(c *gin.Context) {
	c.Set(middleware.ClaimsContextKey, &pkgAuth.Claims{Subject: "op-1", Role: pkgAuth.RoleOperator})
}

func asShopper(c *gin.Context) {
	c.Set(middleware.ClaimsContextKey, &pkgAuth.Claims{Subject: "u-1", Role: pkgAuth.RoleShopper})
}

func TestCurrentSurface(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentSurface(c); got != tracking.SurfaceShopper {
		t.Fatalf("expected shopper default, got %s", got)
	}

	asOperator(c)
	if got := CurrentSurface(c); got != tracking.SurfaceOperator {
		t.Fatalf("expected operator, got %s", got)
	}
}

func TestTrackingHandlerOpen(t *testing.T) {
	state := tracking.State{
		SessionID:   "sess-1",
		OrderID:     "71",
		Surface:     tracking.SurfaceOperator,
		Status:      model.OrderStatusDelivering,
		StatusLabel: "Drone delivering",
		Progress:    0.5,
		Position:    model.Coordinate{Lat: 5, Lng: 5},
		Drone:       model.SnapshotDrone{ID: "dr-1", Code: "DR-001", BatteryLevel: 80},
	}
	handler := NewTrackingHandler(facadeStub{OpenTrackingFn: func(ctx context.Context, surface tracking.Surface, orderNumber string) (tracking.State, error) {
		if surface != tracking.SurfaceOperator {
			t.Fatalf("unexpected surface %s", surface)
		}
		if orderNumber != "71" {
			t.Fatalf("unexpected order %s", orderNumber)
		}
		return state, nil
	}})

	resp := performRequest(t, http.MethodPost, "/orders/:number/tracking", "/orders/71/tracking", handler.Open, asOperator)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body dto.TrackingStateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SessionID != "sess-1" || body.OrderNumber != "71" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Status != "delivering" {
		t.Fatalf("unexpected status: %s", body.Status)
	}
	if body.Position.Lat != 5 || body.Position.Lng != 5 {
		t.Fatalf("unexpected position: %+v", body.Position)
	}
	if body.Drone.BatteryLevel != 80 {
		t.Fatalf("unexpected drone: %+v", body.Drone)
	}
}

func TestTrackingHandlerOpenFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unknown order", err: backend.ErrTrackingNotFound, status: http.StatusNotFound},
		{name: "rate limited", err: backend.TooManyRequestsError{RetryAfter: 7 * time.Second}, status: http.StatusServiceUnavailable},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTrackingHandler(facadeStub{OpenTrackingFn: func(context.Context, tracking.Surface, string) (tracking.State, error) {
				return tracking.State{}, tt.err
			}})
			resp := performRequest(t, http.MethodPost, "/orders/:number/tracking", "/orders/71/tracking", handler.Open, asOperator)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			if tt.status == http.StatusServiceUnavailable && resp.Header().Get("Retry-After") != "7" {
				t.Fatalf("expected Retry-After header, got %q", resp.Header().Get("Retry-After"))
			}
		})
	}
}

func TestTrackingHandlerState(t *testing.T) {
	handler := NewTrackingHandler(facadeStub{TrackingStateFn: func(surface tracking.Surface, orderNumber string) (tracking.State, error) {
		if surface != tracking.SurfaceShopper {
			t.Fatalf("unexpected surface %s", surface)
		}
		return tracking.State{SessionID: "sess-2", OrderID: orderNumber, Returning: true, Progress: 0.25}, nil
	}})

	resp := performRequest(t, http.MethodGet, "/orders/:number/tracking", "/orders/9/tracking", handler.State, asShopper)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body dto.TrackingStateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Returning || body.Progress != 0.25 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTrackingHandlerStateNotFound(t *testing.T) {
	handler := NewTrackingHandler(facadeStub{TrackingStateFn: func(tracking.Surface, string) (tracking.State, error) {
		return tracking.State{}, domainErrors.ErrNotFound
	}})
	resp := performRequest(t, http.MethodGet, "/orders/:number/tracking", "/orders/9/tracking", handler.State, asShopper)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestTrackingHandlerDropoffFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not delivered", err: domainErrors.ErrNotDelivered, status: http.StatusConflict},
		{name: "already returning", err: domainErrors.ErrReturnInProgress, status: http.StatusConflict},
		{name: "read-only view", err: domainErrors.ErrReadOnlySession, status: http.StatusForbidden},
		{name: "closed view", err: domainErrors.ErrSessionClosed, status: http.StatusGone},
		{name: "no session", err: domainErrors.ErrNotFound, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTrackingHandler(facadeStub{ConfirmDropoffFn: func(tracking.Surface, string) (tracking.State, error) {
				return tracking.State{}, tt.err
			}})
			resp := performRequest(t, http.MethodPost, "/orders/:number/tracking/dropoff", "/orders/71/tracking/dropoff", handler.Dropoff, asOperator)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestTrackingHandlerDropoff(t *testing.T) {
	handler := NewTrackingHandler(facadeStub{ConfirmDropoffFn: func(surface tracking.Surface, orderNumber string) (tracking.State, error) {
		return tracking.State{OrderID: orderNumber, Returning: true, Status: model.OrderStatusReturning}, nil
	}})
	resp := performRequest(t, http.MethodPost, "/orders/:number/tracking/dropoff", "/orders/71/tracking/dropoff", handler.Dropoff, asOperator)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body dto.TrackingStateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Returning || body.Status != "returning" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTrackingHandlerClose(t *testing.T) {
	closed := false
	handler := NewTrackingHandler(facadeStub{CloseTrackingFn: func(surface tracking.Surface, orderNumber string) error {
		closed = true
		return nil
	}})
	resp := performRequest(t, http.MethodDelete, "/orders/:number/tracking", "/orders/71/tracking", handler.Close, asOperator)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if !closed {
		t.Fatal("expected facade close call")
	}
}

func TestTrackingHandlerCloseNotFound(t *testing.T) {
	handler := NewTrackingHandler(facadeStub{CloseTrackingFn: func(tracking.Surface, string) error {
		return domainErrors.ErrNotFound
	}})
	resp := performRequest(t, http.MethodDelete, "/orders/:number/tracking", "/orders/71/tracking", handler.Close, asOperator)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestFlightHandlerRecent(t *testing.T) {
	completed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	handler := NewFlightHandler(facadeStub{RecentFlightsFn: func(ctx context.Context, limit int) ([]repository.FlightRecord, error) {
		if limit != 5 {
			t.Fatalf("unexpected limit %d", limit)
		}
		return []repository.FlightRecord{{
			OrderID:        "71",
			DroneCode:      "DR-001",
			DistanceKm:     12.4,
			ReturnDuration: 10 * time.Second,
			BatteryDrain:   20,
			CompletedAt:    completed,
		}}, nil
	}})

	resp := performRequest(t, http.MethodGet, "/flights", "/flights?limit=5", handler.Recent, asOperator)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body []dto.FlightRecordResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("unexpected count: %d", len(body))
	}
	if body[0].OrderNumber != "71" || body[0].ReturnSeconds != 10 {
		t.Fatalf("unexpected body: %+v", body[0])
	}
}

func TestFlightHandlerRecentEmpty(t *testing.T) {
	handler := NewFlightHandler(facadeStub{})
	resp := performRequest(t, http.MethodGet, "/flights", "/flights", handler.Recent, asOperator)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
}

func TestFlightHandlerRecentBadLimit(t *testing.T) {
	handler := NewFlightHandler(facadeStub{})
	resp := performRequest(t, http.MethodGet, "/flights", "/flights?limit=zero", handler.Recent, asOperator)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestFlightHandlerDroneStats(t *testing.T) {
	handler := NewFlightHandler(facadeStub{DroneStatsFn: func(ctx context.Context, droneCode string) (*model.DroneStats, error) {
		if droneCode != "DR-001" {
			t.Fatalf("unexpected code %s", droneCode)
		}
		return &model.DroneStats{Deliveries: 3, FlightMinutes: 4.5, DistanceKm: 42.5}, nil
	}})

	resp := performRequest(t, http.MethodGet, "/drones/:code/stats", "/drones/DR-001/stats", handler.DroneStats, asOperator)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body dto.DroneStatsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Deliveries != 3 || body.DistanceKm != 42.5 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestFlightHandlerDroneStatsError(t *testing.T) {
	handler := NewFlightHandler(facadeStub{DroneStatsFn: func(context.Context, string) (*model.DroneStats, error) {
		return nil, errors.New("boom")
	}})
	resp := performRequest(t, http.MethodGet, "/drones/:code/stats", "/drones/DR-001/stats", handler.DroneStats, asOperator)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}
