package topology

import (
	"context"
	"sort"
)

// Device is a single element of the topology under test. Implementations
// are supplied by the host framework's topology model; this package only
// defines the surface the connectivity check programs against.
//
// Connect must be safe to call repeatedly: a failed attempt leaves the
// device in a state where the next attempt can still succeed.
type Device interface {
	Name() string
	Connect(ctx context.Context) error
}

// Testbed is the set of devices a job runs against.
type Testbed struct {
	Name    string
	Devices map[string]Device
}

// NewTestbed creates a testbed holding the given devices, keyed by name.
func NewTestbed(name string, devices ...Device) *Testbed {
	tb := &Testbed{
		Name:    name,
		Devices: make(map[string]Device, len(devices)),
	}
	for _, d := range devices {
		tb.Devices[d.Name()] = d
	}
	return tb
}

// Add registers a device with the testbed, replacing any device with the
// same name.
func (t *Testbed) Add(d Device) {
	if t.Devices == nil {
		t.Devices = make(map[string]Device)
	}
	t.Devices[d.Name()] = d
}

// Size returns the number of devices in the testbed.
func (t *Testbed) Size() int {
	return len(t.Devices)
}

// DeviceNames returns the device names in lexical order.
func (t *Testbed) DeviceNames() []string {
	names := make([]string, 0, len(t.Devices))
	for name := range t.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeviceList returns the devices ordered by name.
func (t *Testbed) DeviceList() []Device {
	devices := make([]Device, 0, len(t.Devices))
	for _, name := range t.DeviceNames() {
		devices = append(devices, t.Devices[name])
	}
	return devices
}
