package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	bodies       [][]byte
	contentTypes []string
	err          error
}

func (p *fakePublisher) PublishWithRetry(_ context.Context, body []byte, contentType string) error {
	p.bodies = append(p.bodies, body)
	p.contentTypes = append(p.contentTypes, contentType)
	return p.err
}

func TestAMQPNotifier_Publish(t *testing.T) {
	pub := &fakePublisher{}
	n := NewAMQPNotifier(pub, slog.New(slog.DiscardHandler))

	n.Publish(context.Background(), Event{
		RunID:    "run-1",
		JobID:    "job-1",
		Testbed:  "lab",
		Type:     EventDeviceConnected,
		Device:   "r1",
		Attempts: 3,
	})

	require.Len(t, pub.bodies, 1)
	assert.Equal(t, "application/json", pub.contentTypes[0])

	var event Event
	require.NoError(t, json.Unmarshal(pub.bodies[0], &event))
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, EventDeviceConnected, event.Type)
	assert.Equal(t, "r1", event.Device)
	assert.Equal(t, 3, event.Attempts)
	assert.False(t, event.Timestamp.IsZero())
}

func TestAMQPNotifier_KeepsCallerTimestamp(t *testing.T) {
	pub := &fakePublisher{}
	n := NewAMQPNotifier(pub, slog.New(slog.DiscardHandler))

	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n.Publish(context.Background(), Event{Type: EventCheckStarted, Timestamp: stamp})

	var event Event
	require.Len(t, pub.bodies, 1)
	require.NoError(t, json.Unmarshal(pub.bodies[0], &event))
	assert.Equal(t, stamp, event.Timestamp)
}

func TestAMQPNotifier_DropsOnBrokerFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker gone")}
	n := NewAMQPNotifier(pub, slog.New(slog.DiscardHandler))

	// Must not panic or surface the error.
	n.Publish(context.Background(), Event{Type: EventCheckFailed})

	assert.Len(t, pub.bodies, 1)
	assert.NoError(t, n.Close())
}

func TestNop_Publish(t *testing.T) {
	var n Notifier = Nop{}
	n.Publish(context.Background(), Event{Type: EventCheckPassed})
}
