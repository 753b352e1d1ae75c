// Package env creates testbeds from TESTBED_* environment variables, for
// CI pipelines that inject the lab layout into the job environment.
package env

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	envlib "github.com/caarlos0/env/v11"
	"github.com/cuongbtq/testbed-contrib/creators"
	"github.com/cuongbtq/testbed-contrib/topology"
)

// CreatorName identifies this creator in the registry.
const CreatorName = "env"

// settings mirrors the TESTBED_* environment variables. Devices are listed
// as comma-separated "name=host:port" entries.
type settings struct {
	Name     string   `env:"TESTBED_NAME" envDefault:"env-testbed"`
	Devices  []string `env:"TESTBED_DEVICES,required" envSeparator:","`
	Protocol string   `env:"TESTBED_PROTOCOL" envDefault:"ssh"`
	Username string   `env:"TESTBED_USERNAME"`
	Password string   `env:"TESTBED_PASSWORD"`
}

// Creator builds a testbed document from the process environment. The
// source URI and options are unused; the environment is the source.
type Creator struct{}

// New creates the env creator.
func New() *Creator {
	return &Creator{}
}

// Name returns the registry identifier.
func (c *Creator) Name() string {
	return CreatorName
}

// Create reads the TESTBED_* variables and assembles a document.
func (c *Creator) Create(_ context.Context, _ creators.Source) (*topology.Document, error) {
	var s settings
	if err := envlib.Parse(&s); err != nil {
		return nil, fmt.Errorf("failed to read testbed environment: %w", err)
	}

	doc := &topology.Document{
		Name:    s.Name,
		Devices: make(map[string]topology.DeviceEntry, len(s.Devices)),
	}

	for _, spec := range s.Devices {
		name, entry, err := parseDeviceSpec(spec)
		if err != nil {
			return nil, err
		}

		entry.Protocol = s.Protocol
		entry.Username = s.Username
		entry.Password = s.Password
		doc.Devices[name] = entry
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// parseDeviceSpec splits one "name=host:port" entry.
func parseDeviceSpec(spec string) (string, topology.DeviceEntry, error) {
	name, addr, ok := strings.Cut(strings.TrimSpace(spec), "=")
	if !ok || name == "" || addr == "" {
		return "", topology.DeviceEntry{}, fmt.Errorf("invalid device spec %q (want name=host:port)", spec)
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", topology.DeviceEntry{}, fmt.Errorf("invalid device address in %q: %w", spec, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", topology.DeviceEntry{}, fmt.Errorf("invalid device port in %q: %w", spec, err)
	}

	return name, topology.DeviceEntry{Host: host, Port: port}, nil
}

func init() {
	creators.MustRegister(New())
}
