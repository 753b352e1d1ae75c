package topology

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultDialTimeout bounds a single TCP connection attempt.
const DefaultDialTimeout = 5 * time.Second

// TCPDevice is a minimal reachability probe: a device counts as connected
// once its address accepts a TCP connection. It is not a device-protocol
// implementation; it exists so tooling and tests can exercise connectivity
// checks without a host framework.
type TCPDevice struct {
	name        string
	address     string
	dialTimeout time.Duration
}

// NewTCPDevice creates a device probing the given "host:port" address.
func NewTCPDevice(name, address string) *TCPDevice {
	return &TCPDevice{
		name:        name,
		address:     address,
		dialTimeout: DefaultDialTimeout,
	}
}

// WithDialTimeout sets the per-attempt dial timeout.
func (d *TCPDevice) WithDialTimeout(timeout time.Duration) *TCPDevice {
	d.dialTimeout = timeout
	return d
}

// Name returns the device name.
func (d *TCPDevice) Name() string {
	return d.name
}

// Address returns the probed "host:port" address.
func (d *TCPDevice) Address() string {
	return d.address
}

// Connect attempts a TCP connection to the device address. The connection
// is closed immediately; only reachability is reported.
func (d *TCPDevice) Connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: d.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", d.address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", d.address, err)
	}

	conn.Close()
	return nil
}

// NewTCPTestbed builds a live testbed of TCP reachability probes from a
// testbed document. Credentials and protocol details in the document are
// ignored; each device is probed at its host:port address.
func NewTCPTestbed(doc *Document) (*Testbed, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	tb := NewTestbed(doc.Name)
	for name, entry := range doc.Devices {
		addr := net.JoinHostPort(entry.Host, strconv.Itoa(entry.Port))
		tb.Add(NewTCPDevice(name, addr))
	}
	return tb, nil
}
