// Package creators defines named testbed creators: pluggable sources that
// build a testbed document from somewhere external (a file, the
// environment, an inventory database). Creator packages register themselves
// from init; importing creators/all links every creator in this repository.
package creators

//go:generate go run github.com/cuongbtq/testbed-contrib/tools/creatorgen -dir . -out all/all.go

import (
	"context"

	"github.com/cuongbtq/testbed-contrib/topology"
)

// Source tells a creator where to read a testbed definition from. URI is
// creator-specific (a path, a DSN); Options carry creator-specific knobs.
type Source struct {
	URI     string
	Options map[string]string
}

// Option returns a named option or the given default.
func (s Source) Option(key, fallback string) string {
	if v, ok := s.Options[key]; ok {
		return v
	}
	return fallback
}

// Creator builds a testbed document from an external source.
type Creator interface {
	Name() string
	Create(ctx context.Context, src Source) (*topology.Document, error)
}
