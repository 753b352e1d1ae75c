package runner

import "errors"

var (
	// ErrDuplicatePlugin is returned when registering a plugin name twice
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrInvalidDescriptor is returned when a descriptor has no name or factory
	ErrInvalidDescriptor = errors.New("invalid plugin descriptor")
)
