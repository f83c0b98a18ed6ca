package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wingbite/trackd/internal/domain/repository"
	"github.com/wingbite/trackd/internal/server/http/dto"
)

const defaultFlightLimit = 20

// FlightHandler serves the operator's flight journal endpoints.
type FlightHandler struct {
	facade FlightLogFacade
}

// NewFlightHandler constructs FlightHandler.
func NewFlightHandler(facade FlightLogFacade) *FlightHandler {
	return &FlightHandler{facade: facade}
}

// Recent handles GET /api/operator/flights.
func (h *FlightHandler) Recent(c *gin.Context) {
	limit := defaultFlightLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.facade.RecentFlights(c.Request.Context(), limit)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.FlightRecordResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, toFlightResponse(rec))
	}
	c.JSON(http.StatusOK, response)
}

// DroneStats handles GET /api/operator/drones/:code/stats.
func (h *FlightHandler) DroneStats(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	stats, err := h.facade.DroneStats(c.Request.Context(), code)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, dto.DroneStatsResponse{
		DroneCode:     code,
		Deliveries:    stats.Deliveries,
		FlightMinutes: stats.FlightMinutes,
		DistanceKm:    stats.DistanceKm,
	})
}

func toFlightResponse(rec repository.FlightRecord) dto.FlightRecordResponse {
	return dto.FlightRecordResponse{
		OrderNumber:   rec.OrderID,
		DroneCode:     rec.DroneCode,
		DistanceKm:    rec.DistanceKm,
		ReturnSeconds: rec.ReturnDuration.Seconds(),
		BatteryDrain:  rec.BatteryDrain,
		CompletedAt:   rec.CompletedAt,
	}
}
