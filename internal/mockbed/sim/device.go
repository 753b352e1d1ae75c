// Package sim provides an in-process testbed of simulated devices. Each
// device is a TCP listener that can be raised and dropped at runtime, so
// connectivity tooling can be exercised without lab hardware.
package sim

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"
)

// Spec describes one simulated device.
type Spec struct {
	Name      string
	Host      string
	Port      int
	StartDown bool
	UpAfter   time.Duration
}

// Device is a simulated network device. While up it accepts and immediately
// closes TCP connections, counting each accept. While down it has no
// listener, so the host network stack refuses connection attempts.
type Device struct {
	name   string
	host   string
	logger *slog.Logger

	mu       sync.Mutex
	port     int
	listener net.Listener
	accepted int
	timer    *time.Timer
}

// NewDevice creates a device from its spec. The device does not listen
// until Up is called.
func NewDevice(spec Spec, logger *slog.Logger) *Device {
	return &Device{
		name:   spec.Name,
		host:   spec.Host,
		port:   spec.Port,
		logger: logger,
	}
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Addr returns the device address. For a port 0 spec the port is known
// only after the first Up binds one.
func (d *Device) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return net.JoinHostPort(d.host, strconv.Itoa(d.port))
}

// Port returns the bound port, or the configured one before the first Up.
func (d *Device) Port() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port
}

// IsUp reports whether the device is currently listening.
func (d *Device) IsUp() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener != nil
}

// Accepted returns the number of connections the device has accepted.
func (d *Device) Accepted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted
}

// Up raises the device. Raising an up device is a no-op. Once a port 0
// device binds, it keeps the bound port across later Down/Up cycles so its
// address stays stable.
func (d *Device) Up() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(d.host, strconv.Itoa(d.port)))
	if err != nil {
		return fmt.Errorf("failed to raise device %s: %w", d.name, err)
	}

	d.listener = listener
	d.port = listener.Addr().(*net.TCPAddr).Port

	go d.acceptLoop(listener)

	d.logger.Info("Device raised",
		slog.String("device", d.name),
		slog.String("address", net.JoinHostPort(d.host, strconv.Itoa(d.port))),
	)

	return nil
}

// Down drops the device. Dropping a down device is a no-op.
func (d *Device) Down() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listener == nil {
		return nil
	}

	if err := d.listener.Close(); err != nil {
		return fmt.Errorf("failed to drop device %s: %w", d.name, err)
	}
	d.listener = nil

	d.logger.Info("Device dropped",
		slog.String("device", d.name),
	)

	return nil
}

// raiseAfter schedules a one-shot automatic Up.
func (d *Device) raiseAfter(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timer = time.AfterFunc(delay, func() {
		if err := d.Up(); err != nil {
			d.logger.Error("Scheduled device raise failed",
				slog.String("device", d.name),
				slog.Any("error", err),
			)
		}
	})
}

// cancelTimer stops a pending scheduled raise.
func (d *Device) cancelTimer() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// acceptLoop drains the listener until it is closed. Accepted connections
// are closed immediately; the device only proves reachability.
func (d *Device) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}

		d.mu.Lock()
		d.accepted++
		d.mu.Unlock()

		conn.Close()
	}
}
