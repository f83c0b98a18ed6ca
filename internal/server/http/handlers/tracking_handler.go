package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wingbite/trackd/internal/adapter/backend"
	domainErrors "github.com/wingbite/trackd/internal/domain/errors"
)

// TrackingHandler manages the tracking view endpoints shared by both
// surfaces. The surface is derived from the caller's verified role.
type TrackingHandler struct {
	facade TrackingFacade
}

// NewTrackingHandler constructs TrackingHandler.
func NewTrackingHandler(facade TrackingFacade) *TrackingHandler {
	return &TrackingHandler{facade: facade}
}

// Open handles POST /api/{surface}/orders/:number/tracking.
func (h *TrackingHandler) Open(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	state, err := h.facade.OpenTracking(c.Request.Context(), CurrentSurface(c), number)
	if err != nil {
		h.reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateResponse(state))
}

// State handles GET /api/{surface}/orders/:number/tracking.
func (h *TrackingHandler) State(c *gin.Context) {
	state, err := h.facade.TrackingState(CurrentSurface(c), c.Param("number"))
	if err != nil {
		h.reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateResponse(state))
}

// Dropoff handles POST /api/operator/orders/:number/tracking/dropoff.
func (h *TrackingHandler) Dropoff(c *gin.Context) {
	state, err := h.facade.ConfirmDropoff(CurrentSurface(c), c.Param("number"))
	if err != nil {
		h.reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateResponse(state))
}

// Close handles DELETE /api/{surface}/orders/:number/tracking.
func (h *TrackingHandler) Close(c *gin.Context) {
	if err := h.facade.CloseTracking(CurrentSurface(c), c.Param("number")); err != nil {
		h.reportError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) reportError(c *gin.Context, err error) {
	var tooMany backend.TooManyRequestsError
	switch {
	case errors.Is(err, domainErrors.ErrNotFound), errors.Is(err, backend.ErrTrackingNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, domainErrors.ErrNotDelivered), errors.Is(err, domainErrors.ErrReturnInProgress), errors.Is(err, domainErrors.ErrIllegalTransition):
		c.Status(http.StatusConflict)
	case errors.Is(err, domainErrors.ErrReadOnlySession):
		c.Status(http.StatusForbidden)
	case errors.Is(err, domainErrors.ErrSessionClosed):
		c.Status(http.StatusGone)
	case errors.As(err, &tooMany):
		c.Header("Retry-After", strconv.Itoa(int(tooMany.RetryAfter.Seconds())))
		c.Status(http.StatusServiceUnavailable)
	default:
		c.Status(http.StatusInternalServerError)
	}
}
