package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	pkgAuth "github.com/wingbite/trackd/internal/pkg/auth"
	"github.com/wingbite/trackd/internal/server/http/handlers"
	"github.com/wingbite/trackd/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware. Operator routes
// carry the drop-off confirmation and the flight journal; shopper routes are
// the read-only tracking view.
func Setup(facade handlers.GatewayFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	trackingHandler := handlers.NewTrackingHandler(facade)
	flightHandler := handlers.NewFlightHandler(facade)

	api := engine.Group("/api")

	operator := api.Group("/operator")
	operator.Use(middleware.AuthRequired(facade, pkgAuth.RoleOperator))
	operator.POST("/orders/:number/tracking", trackingHandler.Open)
	operator.GET("/orders/:number/tracking", trackingHandler.State)
	operator.DELETE("/orders/:number/tracking", trackingHandler.Close)
	operator.POST("/orders/:number/tracking/dropoff", trackingHandler.Dropoff)
	operator.GET("/flights", flightHandler.Recent)
	operator.GET("/drones/:code/stats", flightHandler.DroneStats)

	shopper := api.Group("/user")
	shopper.Use(middleware.AuthRequired(facade, pkgAuth.RoleShopper))
	shopper.POST("/orders/:number/tracking", trackingHandler.Open)
	shopper.GET("/orders/:number/tracking", trackingHandler.State)
	shopper.DELETE("/orders/:number/tracking", trackingHandler.Close)

	return engine
}
