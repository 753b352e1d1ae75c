package handler

import (
	"log/slog"

	"github.com/cuongbtq/testbed-contrib/internal/mockbed/sim"
	"github.com/cuongbtq/testbed-contrib/internal/notify"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Bed      *sim.Bed
	Notifier notify.Notifier
}

// DeviceHandler handles device-related HTTP requests
type DeviceHandler struct {
	logger   *slog.Logger
	bed      *sim.Bed
	notifier notify.Notifier
}

// NewDeviceHandler creates a new DeviceHandler instance
func NewDeviceHandler(deps *Dependencies) *DeviceHandler {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &DeviceHandler{
		logger:   deps.Logger,
		bed:      deps.Bed,
		notifier: notifier,
	}
}
