package runner

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
)

// Harness drives registered plugins through one job the way the host runner
// does: instantiate enabled descriptors, bind their flags, parse the job's
// argv, then fire the pre-job hooks.
type Harness struct {
	registry *Registry
	logger   *slog.Logger
	plugins  []Plugin
}

// NewHarness creates a harness over the given registry. A nil registry
// selects the default registry.
func NewHarness(registry *Registry, logger *slog.Logger) *Harness {
	if registry == nil {
		registry = defaultRegistry
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Harness{
		registry: registry,
		logger:   logger,
	}
}

// Setup instantiates every enabled plugin, installs plugin flags into one
// canonical flag set, and parses args against it. It must be called before
// PreJob.
func (h *Harness) Setup(args []string) error {
	fs := flag.NewFlagSet("job", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	h.plugins = h.plugins[:0]

	for _, d := range h.registry.Plugins() {
		if !d.Enabled {
			h.logger.Info("Skipping disabled plugin",
				slog.String("plugin", d.Name),
			)
			continue
		}

		p, err := d.New(d.Kwargs)
		if err != nil {
			return fmt.Errorf("failed to create plugin %q: %w", d.Name, err)
		}

		if binder, ok := p.(FlagBinder); ok {
			binder.BindFlags(fs)
		}

		h.plugins = append(h.plugins, p)
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse job arguments: %w", err)
	}

	return nil
}

// Plugins returns the instances created by Setup, in registration name order.
func (h *Harness) Plugins() []Plugin {
	return h.plugins
}

// PreJob runs every pre-job hook in order. The first hook error aborts the
// job and is returned.
func (h *Harness) PreJob(ctx context.Context, rt *Runtime) error {
	for _, p := range h.plugins {
		hook, ok := p.(PreJobHook)
		if !ok {
			continue
		}

		h.logger.Info("Running pre-job hook",
			slog.String("plugin", p.Name()),
			slog.String("job_id", rt.JobID),
		)

		if err := hook.PreJob(ctx, rt); err != nil {
			h.logger.Error("Pre-job hook failed, aborting job",
				slog.String("plugin", p.Name()),
				slog.String("job_id", rt.JobID),
				slog.Any("error", err),
			)
			return fmt.Errorf("pre-job hook %q failed: %w", p.Name(), err)
		}
	}

	return nil
}
