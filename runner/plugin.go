package runner

import (
	"context"
	"flag"
)

// Plugin is the minimal contract every job runner extension satisfies.
type Plugin interface {
	Name() string
}

// PreJobHook is implemented by plugins that run before a job starts. A
// non-nil error aborts the job before any test executes.
type PreJobHook interface {
	Plugin
	PreJob(ctx context.Context, rt *Runtime) error
}

// FlagBinder is implemented by plugins that accept command-line arguments.
// BindFlags is called exactly once per plugin instance, before the job's
// argv is parsed. The flag package accepts both single-dash and double-dash
// spellings, so one definition covers the legacy and modern invocation
// forms of the host runner.
type FlagBinder interface {
	BindFlags(fs *flag.FlagSet)
}

// PluginFactory builds a plugin instance from its descriptor kwargs.
type PluginFactory func(kwargs map[string]any) (Plugin, error)

// Descriptor describes a registered plugin to the host job runner. Plugins
// register enabled by default; a host may flip Enabled off before setup.
type Descriptor struct {
	Name    string
	Enabled bool
	Kwargs  map[string]any
	New     PluginFactory
}
