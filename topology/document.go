package topology

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Document is a serializable testbed definition, as produced by the testbed
// creators. It is inert data: turning entries into live devices is the host
// framework's concern.
type Document struct {
	Name    string                 `yaml:"name"`
	Devices map[string]DeviceEntry `yaml:"devices"`
}

// DeviceEntry describes how to reach one device of the testbed.
type DeviceEntry struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ParseDocument parses and validates a YAML testbed definition.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse testbed document: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// LoadDocument reads and parses a YAML testbed definition from a file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read testbed file: %w", err)
	}

	return ParseDocument(data)
}

// Marshal serializes the document back to YAML.
func (d *Document) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal testbed document: %w", err)
	}
	return data, nil
}

// Validate checks that the document describes a reachable testbed.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("testbed name is required")
	}

	for name, entry := range d.Devices {
		if name == "" {
			return fmt.Errorf("device name is required")
		}

		if entry.Host == "" {
			return fmt.Errorf("device %q: host is required", name)
		}

		if entry.Port < MinPort || entry.Port > MaxPort {
			return fmt.Errorf("device %q: invalid port: %d (must be between %d and %d)", name, entry.Port, MinPort, MaxPort)
		}
	}

	return nil
}

// DeviceNames returns the entry names in lexical order.
func (d *Document) DeviceNames() []string {
	names := make([]string, 0, len(d.Devices))
	for name := range d.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
