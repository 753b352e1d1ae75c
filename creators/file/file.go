// Package file creates testbeds from YAML testbed files.
package file

import (
	"context"
	"fmt"

	"github.com/cuongbtq/testbed-contrib/creators"
	"github.com/cuongbtq/testbed-contrib/topology"
)

// CreatorName identifies this creator in the registry.
const CreatorName = "file"

// Creator loads a testbed document from the YAML file named by Source.URI.
type Creator struct{}

// New creates the file creator.
func New() *Creator {
	return &Creator{}
}

// Name returns the registry identifier.
func (c *Creator) Name() string {
	return CreatorName
}

// Create loads and validates the testbed file at src.URI.
func (c *Creator) Create(_ context.Context, src creators.Source) (*topology.Document, error) {
	if src.URI == "" {
		return nil, fmt.Errorf("file creator requires a path in the source URI")
	}

	return topology.LoadDocument(src.URI)
}

func init() {
	creators.MustRegister(New())
}
