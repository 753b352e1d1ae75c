package sim

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cuongbtq/testbed-contrib/topology"
)

// Bed owns a set of simulated devices and their lifecycle.
type Bed struct {
	name   string
	logger *slog.Logger

	mu      sync.RWMutex
	devices map[string]*Device
	specs   map[string]Spec
}

// NewBed creates an empty bed.
func NewBed(name string, logger *slog.Logger) *Bed {
	return &Bed{
		name:    name,
		logger:  logger,
		devices: make(map[string]*Device),
		specs:   make(map[string]Spec),
	}
}

// Name returns the bed name.
func (b *Bed) Name() string {
	return b.name
}

// Add registers a device. The device stays down until Start or Up.
func (b *Bed) Add(spec Spec) (*Device, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("device name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.devices[spec.Name]; ok {
		return nil, fmt.Errorf("duplicate device name: %s", spec.Name)
	}

	device := NewDevice(spec, b.logger)
	b.devices[spec.Name] = device
	b.specs[spec.Name] = spec

	return device, nil
}

// Start raises every device that is not marked start-down, and schedules
// the automatic raise for start-down devices with an up-after delay.
func (b *Bed) Start() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.logger.Info("Starting testbed",
		slog.String("testbed", b.name),
		slog.Int("devices", len(b.devices)),
	)

	for name, device := range b.devices {
		spec := b.specs[name]

		if spec.StartDown {
			if spec.UpAfter > 0 {
				device.raiseAfter(spec.UpAfter)
			}
			continue
		}

		if err := device.Up(); err != nil {
			return fmt.Errorf("failed to start testbed: %w", err)
		}
	}

	return nil
}

// Stop drops every device and cancels pending scheduled raises.
func (b *Bed) Stop() {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.logger.Info("Stopping testbed",
		slog.String("testbed", b.name),
	)

	for _, device := range b.devices {
		device.cancelTimer()
		if err := device.Down(); err != nil {
			b.logger.Error("Failed to drop device during shutdown",
				slog.String("device", device.Name()),
				slog.Any("error", err),
			)
		}
	}
}

// Device looks up one device by name.
func (b *Bed) Device(name string) (*Device, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	device, ok := b.devices[name]
	return device, ok
}

// Devices returns all devices sorted by name.
func (b *Bed) Devices() []*Device {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.devices))
	for name := range b.devices {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Device, len(names))
	for i, name := range names {
		out[i] = b.devices[name]
	}
	return out
}

// Size returns the number of devices.
func (b *Bed) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.devices)
}

// Document exports the bed as a testbed document. Devices specced with
// port 0 report their bound port once raised.
func (b *Bed) Document() *topology.Document {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc := &topology.Document{
		Name:    b.name,
		Devices: make(map[string]topology.DeviceEntry, len(b.devices)),
	}

	for name, device := range b.devices {
		spec := b.specs[name]
		doc.Devices[name] = topology.DeviceEntry{
			Host:     spec.Host,
			Port:     device.Port(),
			Protocol: "tcp",
		}
	}

	return doc
}
