package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wingbite/trackd/internal/domain/model"
	pkgAuth "github.com/wingbite/trackd/internal/pkg/auth"
	"github.com/wingbite/trackd/internal/server/http/dto"
	"github.com/wingbite/trackd/internal/server/http/middleware"
	"github.com/wingbite/trackd/internal/tracking"
)

// CurrentClaims extracts verified token claims from context.
func CurrentClaims(c *gin.Context) *pkgAuth.Claims {
	val, ok := c.Get(middleware.ClaimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := val.(*pkgAuth.Claims)
	return claims
}

// CurrentSurface maps the caller's role onto the tracking surface.
func CurrentSurface(c *gin.Context) tracking.Surface {
	claims := CurrentClaims(c)
	if claims != nil && claims.Role == pkgAuth.RoleOperator {
		return tracking.SurfaceOperator
	}
	return tracking.SurfaceShopper
}

func toStateResponse(state tracking.State) dto.TrackingStateResponse {
	return dto.TrackingStateResponse{
		SessionID:       state.SessionID,
		OrderNumber:     state.OrderID,
		Status:          string(state.Status),
		StatusLabel:     state.StatusLabel,
		Returning:       state.Returning,
		Progress:        state.Progress,
		Position:        toCoordinate(state.Position),
		Traveled:        toCoordinates(state.Traveled),
		Remaining:       toCoordinates(state.Remaining),
		Drone:           dto.DroneResponse{ID: state.Drone.ID, Code: state.Drone.Code, BatteryLevel: state.Drone.BatteryLevel},
		CompletionError: state.CompletionErr,
	}
}

func toCoordinate(coord model.Coordinate) dto.CoordinateResponse {
	return dto.CoordinateResponse{Lat: coord.Lat, Lng: coord.Lng}
}

func toCoordinates(coords []model.Coordinate) []dto.CoordinateResponse {
	out := make([]dto.CoordinateResponse, 0, len(coords))
	for _, coord := range coords {
		out = append(out, toCoordinate(coord))
	}
	return out
}
