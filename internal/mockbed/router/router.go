package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/testbed-contrib/internal/mockbed/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "mockbed",
		})
	})

	// Initialize device handler
	deviceHandler := handler.NewDeviceHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		devices := v1.Group("/devices")
		{
			// GET /api/v1/devices - List all simulated devices
			devices.GET("", deviceHandler.ListDevices)

			// GET /api/v1/devices/:name - Get one device
			devices.GET("/:name", deviceHandler.GetDevice)

			// POST /api/v1/devices/:name/up - Raise a device
			devices.POST("/:name/up", deviceHandler.RaiseDevice)

			// POST /api/v1/devices/:name/down - Drop a device
			devices.POST("/:name/down", deviceHandler.DropDevice)
		}

		// GET /api/v1/testbed - Export the bed as a testbed document
		v1.GET("/testbed", deviceHandler.ExportTestbed)
	}

	return r
}
