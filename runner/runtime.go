package runner

import (
	"log/slog"

	"github.com/cuongbtq/testbed-contrib/topology"
	"github.com/google/uuid"
)

// Runtime is what the host hands a hook for one job run. The logger is
// scoped to the run; plugins must not install process-wide logging state.
type Runtime struct {
	JobID   string
	JobName string
	Testbed *topology.Testbed
	Logger  *slog.Logger
}

// NewRuntime creates a runtime for a single job run with a fresh job ID.
func NewRuntime(jobName string, tb *topology.Testbed, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runtime{
		JobID:   uuid.New().String(),
		JobName: jobName,
		Testbed: tb,
		Logger:  logger,
	}
}
