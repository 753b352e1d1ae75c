package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/testbed-contrib/internal/mockbed/dto"
	"github.com/cuongbtq/testbed-contrib/internal/mockbed/sim"
	"github.com/cuongbtq/testbed-contrib/internal/notify"
)

// deviceResponse snapshots one device for the API.
func deviceResponse(device *sim.Device) dto.DeviceResponse {
	return dto.DeviceResponse{
		Name:        device.Name(),
		Address:     device.Addr(),
		Port:        device.Port(),
		Up:          device.IsUp(),
		Connections: device.Accepted(),
	}
}

// ListDevices handles GET /api/v1/devices
// Lists every simulated device with its current state
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices := h.bed.Devices()

	response := dto.DeviceListResponse{
		Testbed: h.bed.Name(),
		Devices: make([]dto.DeviceResponse, len(devices)),
	}
	for i, device := range devices {
		response.Devices[i] = deviceResponse(device)
	}

	c.JSON(http.StatusOK, response)
}

// GetDevice handles GET /api/v1/devices/:name
// Retrieves the state of a single simulated device
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	name := c.Param("name")

	device, ok := h.bed.Device(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "device not found",
		})
		return
	}

	c.JSON(http.StatusOK, deviceResponse(device))
}

// RaiseDevice handles POST /api/v1/devices/:name/up
// Raises the device so connection attempts start succeeding
func (h *DeviceHandler) RaiseDevice(c *gin.Context) {
	name := c.Param("name")

	h.logger.Info("RaiseDevice called",
		slog.String("device", name),
	)

	device, ok := h.bed.Device(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "device not found",
		})
		return
	}

	if err := device.Up(); err != nil {
		h.logger.Error("Failed to raise device",
			slog.String("device", name),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to raise device",
		})
		return
	}

	h.notifier.Publish(c.Request.Context(), notify.Event{
		Testbed: h.bed.Name(),
		Type:    notify.EventDeviceRaised,
		Device:  name,
	})

	c.JSON(http.StatusOK, deviceResponse(device))
}

// DropDevice handles POST /api/v1/devices/:name/down
// Drops the device so connection attempts are refused
func (h *DeviceHandler) DropDevice(c *gin.Context) {
	name := c.Param("name")

	h.logger.Info("DropDevice called",
		slog.String("device", name),
	)

	device, ok := h.bed.Device(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "device not found",
		})
		return
	}

	if err := device.Down(); err != nil {
		h.logger.Error("Failed to drop device",
			slog.String("device", name),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to drop device",
		})
		return
	}

	h.notifier.Publish(c.Request.Context(), notify.Event{
		Testbed: h.bed.Name(),
		Type:    notify.EventDeviceDropped,
		Device:  name,
	})

	c.JSON(http.StatusOK, deviceResponse(device))
}

// ExportTestbed handles GET /api/v1/testbed
// Exports the bed as a YAML testbed document jobs can consume
func (h *DeviceHandler) ExportTestbed(c *gin.Context) {
	data, err := h.bed.Document().Marshal()
	if err != nil {
		h.logger.Error("Failed to export testbed",
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to export testbed",
		})
		return
	}

	c.Data(http.StatusOK, "application/x-yaml", data)
}
