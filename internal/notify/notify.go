// Package notify publishes testbed events to interested observers.
// Notification is best-effort: implementations must never block or fail
// the operation that emits the events.
package notify

import (
	"context"
	"time"
)

// EventType classifies a testbed event.
type EventType string

// Connectivity check events.
const (
	EventCheckStarted    EventType = "check_started"
	EventDeviceConnected EventType = "device_connected"
	EventDeviceFailed    EventType = "device_failed"
	EventCheckPassed     EventType = "check_passed"
	EventCheckFailed     EventType = "check_failed"
)

// Simulated device lifecycle events.
const (
	EventDeviceRaised  EventType = "device_raised"
	EventDeviceDropped EventType = "device_dropped"
)

// Event is one testbed observation.
type Event struct {
	RunID     string    `json:"run_id,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	Testbed   string    `json:"testbed,omitempty"`
	Type      EventType `json:"type"`
	Device    string    `json:"device,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives check events. Publish never reports failure; errors are
// the implementation's problem to log and drop.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// Nop is the default notifier; it discards every event.
type Nop struct{}

// Publish discards the event.
func (Nop) Publish(_ context.Context, _ Event) {}
