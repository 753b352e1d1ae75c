// Package topoup gates job execution on testbed connectivity: before a job
// runs, every device in the testbed must accept a connection within a shared
// timeout, or the job is aborted.
package topoup

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/testbed-contrib/internal/gate"
	"github.com/cuongbtq/testbed-contrib/internal/notify"
	"github.com/cuongbtq/testbed-contrib/runner"
)

const (
	// PluginName is the fixed identifier the hook is registered under.
	PluginName = "topology-up"

	// DefaultTimeoutSeconds is the total connection budget for the testbed
	DefaultTimeoutSeconds = 120

	// DefaultIntervalSeconds is the pause between attempts on one device
	DefaultIntervalSeconds = 10
)

// ErrTopologyNotReady is the fatal error returned when any device never
// connected. Hosts can match it with errors.Is.
var ErrTopologyNotReady = gate.ErrTopologyNotReady

// Plugin blocks the start of a job until all testbed devices are reachable.
type Plugin struct {
	ignoreAllDevicesUp bool
	timeoutSeconds     int
	intervalSeconds    int
	notifier           notify.Notifier
}

// New builds the plugin from descriptor kwargs. The only recognized kwarg
// is "notifier", carrying a notify.Notifier for check events; unknown keys
// are ignored so hosts can pass shared kwarg maps around.
func New(kwargs map[string]any) (runner.Plugin, error) {
	p := &Plugin{
		timeoutSeconds:  DefaultTimeoutSeconds,
		intervalSeconds: DefaultIntervalSeconds,
		notifier:        notify.Nop{},
	}

	if v, ok := kwargs["notifier"]; ok {
		n, ok := v.(notify.Notifier)
		if !ok {
			return nil, fmt.Errorf("notifier kwarg must implement notify.Notifier, got %T", v)
		}
		p.notifier = n
	}

	return p, nil
}

// Name returns the fixed plugin identifier.
func (p *Plugin) Name() string {
	return PluginName
}

// BindFlags installs the plugin's canonical flag set. Both -flag and --flag
// spellings parse, which covers the legacy and modern invocation forms of
// the host runner.
func (p *Plugin) BindFlags(fs *flag.FlagSet) {
	fs.BoolVar(&p.ignoreAllDevicesUp, "ignore-all-devices-up", false,
		"skip the device connectivity check before the job")
	fs.IntVar(&p.timeoutSeconds, "connection-check-timeout", DefaultTimeoutSeconds,
		"total seconds to wait for all devices to connect")
	fs.IntVar(&p.intervalSeconds, "connection-check-interval", DefaultIntervalSeconds,
		"seconds between connection attempts per device")
}

// PreJob runs the connectivity gate over the job's testbed. Parameters are
// snapshotted on entry and immutable for the run. Any device that never
// connects makes the returned error non-nil, which aborts the job.
func (p *Plugin) PreJob(ctx context.Context, rt *runner.Runtime) error {
	log := rt.Logger.With(
		slog.String("plugin", PluginName),
		slog.String("job_id", rt.JobID),
	)

	if p.ignoreAllDevicesUp {
		log.Info("Device connectivity check disabled, skipping")
		return nil
	}

	if p.timeoutSeconds <= 0 {
		return fmt.Errorf("connection-check-timeout must be greater than 0, got %d", p.timeoutSeconds)
	}

	if p.intervalSeconds <= 0 {
		return fmt.Errorf("connection-check-interval must be greater than 0, got %d", p.intervalSeconds)
	}

	if rt.Testbed == nil {
		return fmt.Errorf("job runtime has no testbed")
	}

	timeout := time.Duration(p.timeoutSeconds) * time.Second
	interval := time.Duration(p.intervalSeconds) * time.Second

	log.Info("Waiting for all testbed devices to connect",
		slog.String("testbed", rt.Testbed.Name),
		slog.Int("devices", rt.Testbed.Size()),
		slog.Duration("timeout", timeout),
		slog.Duration("interval", interval),
	)

	report, err := gate.Check(ctx, rt.Testbed, gate.Options{
		Timeout:  timeout,
		Interval: interval,
		JobID:    rt.JobID,
		Logger:   log,
		Notifier: p.notifier,
	})
	if err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}

	log.Info("Testbed is ready",
		slog.String("testbed", rt.Testbed.Name),
		slog.Duration("elapsed", report.Elapsed),
		slog.Int("total_attempts", report.TotalAttempts()),
	)

	return nil
}

func init() {
	runner.MustRegister(runner.Descriptor{
		Name:    PluginName,
		Enabled: true,
		New:     New,
	})
}
