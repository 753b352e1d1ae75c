// Package gate blocks job execution until every device in a testbed accepts
// a connection, retrying each device on an interval against one shared
// deadline.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cuongbtq/testbed-contrib/internal/notify"
	"github.com/cuongbtq/testbed-contrib/topology"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout is the total budget for all devices to connect
	DefaultTimeout = 120 * time.Second

	// DefaultInterval is the pause between attempts on one device
	DefaultInterval = 10 * time.Second
)

// Options configures one connectivity check.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
	JobID    string
	Logger   *slog.Logger
	Notifier notify.Notifier
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Notifier == nil {
		o.Notifier = notify.Nop{}
	}
	return o
}

// checker carries the state shared by all device tasks of one check.
type checker struct {
	opts    Options
	runID   string
	testbed string
	// start is captured once before fan-out; every device measures its
	// deadline against it, so devices checked later compete for the same
	// budget.
	start time.Time
}

// Check attempts to connect to every device of the testbed concurrently,
// retrying per device every Interval until the device connects or Timeout
// has elapsed since the check started. The returned report always carries
// one outcome per device; the error is non-nil when any device never
// connected, wrapping ErrTopologyNotReady with the failed device names.
func Check(ctx context.Context, tb *topology.Testbed, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	report := &Report{
		RunID:   uuid.New().String(),
		Testbed: tb.Name,
	}

	devices := tb.DeviceList()
	if len(devices) == 0 {
		opts.Logger.Warn("No devices in testbed, nothing to check",
			slog.String("testbed", tb.Name),
		)
		return report, nil
	}

	opts.Logger.Info("Checking device connectivity",
		slog.String("testbed", tb.Name),
		slog.Int("devices", len(devices)),
		slog.Duration("timeout", opts.Timeout),
		slog.Duration("interval", opts.Interval),
	)

	c := &checker{
		opts:    opts,
		runID:   report.RunID,
		testbed: tb.Name,
		start:   time.Now(),
	}

	opts.Notifier.Publish(ctx, c.event(notify.EventCheckStarted, ""))

	group, gctx := errgroup.WithContext(ctx)
	outcomes := make([]Outcome, len(devices))

	for i, device := range devices {
		group.Go(func() error {
			// Failures stay local to the device slot so one slow or
			// dead device never cancels the others.
			outcomes[i] = c.checkDevice(gctx, device)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return report, fmt.Errorf("failed to join device checks: %w", err)
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Device < outcomes[j].Device
	})

	report.Outcomes = outcomes
	report.Elapsed = time.Since(c.start)

	if !report.AllConnected() {
		failed := report.Failed()
		opts.Logger.Error("Devices failed to connect",
			slog.String("testbed", tb.Name),
			slog.Any("failed_devices", failed),
			slog.Duration("elapsed", report.Elapsed),
		)
		opts.Notifier.Publish(ctx, c.event(notify.EventCheckFailed, ""))
		return report, fmt.Errorf("%w: %s", ErrTopologyNotReady, strings.Join(failed, ", "))
	}

	opts.Logger.Info("All devices connected",
		slog.String("testbed", tb.Name),
		slog.Int("devices", len(devices)),
		slog.Duration("elapsed", report.Elapsed),
	)
	opts.Notifier.Publish(ctx, c.event(notify.EventCheckPassed, ""))

	return report, nil
}

// checkDevice runs the retry loop for a single device. Every attempt error
// is logged and converted into the boolean outcome.
func (c *checker) checkDevice(ctx context.Context, device topology.Device) Outcome {
	out := Outcome{Device: device.Name()}
	log := c.opts.Logger.With(slog.String("device", device.Name()))

	for time.Since(c.start) < c.opts.Timeout {
		out.Attempts++

		err := device.Connect(ctx)
		if err == nil {
			out.Connected = true
			out.Elapsed = time.Since(c.start)

			log.Info("Device connected",
				slog.Int("attempts", out.Attempts),
				slog.Duration("elapsed", out.Elapsed),
			)

			c.opts.Notifier.Publish(ctx, c.deviceEvent(notify.EventDeviceConnected, out))
			return out
		}

		remaining := c.opts.Timeout - time.Since(c.start)
		log.Info("Device connection attempt failed, retrying",
			slog.Int("attempt", out.Attempts),
			slog.Duration("retry_in", c.opts.Interval),
			slog.Duration("remaining", remaining),
			slog.Any("error", err),
		)

		// The sleep is unconditional after a failed attempt, so total
		// elapsed time may overshoot the timeout by up to one interval.
		if !sleep(ctx, c.opts.Interval) {
			log.Warn("Device check canceled")
			break
		}
	}

	out.Elapsed = time.Since(c.start)

	log.Error("Device never connected, giving up",
		slog.Int("attempts", out.Attempts),
		slog.Duration("elapsed", out.Elapsed),
	)

	c.opts.Notifier.Publish(ctx, c.deviceEvent(notify.EventDeviceFailed, out))
	return out
}

// event builds a check-scoped notification.
func (c *checker) event(kind notify.EventType, device string) notify.Event {
	return notify.Event{
		RunID:     c.runID,
		JobID:     c.opts.JobID,
		Testbed:   c.testbed,
		Type:      kind,
		Device:    device,
		ElapsedMS: time.Since(c.start).Milliseconds(),
	}
}

// deviceEvent builds a notification for one device outcome.
func (c *checker) deviceEvent(kind notify.EventType, out Outcome) notify.Event {
	e := c.event(kind, out.Device)
	e.Attempts = out.Attempts
	e.ElapsedMS = out.Elapsed.Milliseconds()
	return e
}

// sleep pauses for d, returning false when ctx is canceled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
