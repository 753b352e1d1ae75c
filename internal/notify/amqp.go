package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/testbed-contrib/shared/rabbitmq"
)

// Publisher is the broker surface the notifier needs.
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

var _ Publisher = (*rabbitmq.Client)(nil)

// AMQPNotifier publishes check events as JSON messages through a RabbitMQ
// exchange. Broker failures are logged and the event is dropped; the
// connectivity check is never affected.
type AMQPNotifier struct {
	publisher Publisher
	logger    *slog.Logger
	client    *rabbitmq.Client
}

// NewAMQPNotifier creates a notifier over an existing publisher.
func NewAMQPNotifier(publisher Publisher, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		publisher: publisher,
		logger:    logger,
	}
}

// NewAMQPNotifierFromConfig connects a RabbitMQ client and wraps it in a
// notifier. The caller owns the notifier and must Close it.
func NewAMQPNotifierFromConfig(ctx context.Context, cfg *rabbitmq.Config, logger *slog.Logger) (*AMQPNotifier, error) {
	client, err := rabbitmq.NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event broker: %w", err)
	}

	n := NewAMQPNotifier(client, logger)
	n.client = client
	return n, nil
}

// Publish serializes the event and sends it to the broker.
func (n *AMQPNotifier) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to encode check event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err),
		)
		return
	}

	if err := n.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		n.logger.Warn("Dropping check event, broker publish failed",
			slog.String("type", string(event.Type)),
			slog.String("device", event.Device),
			slog.Any("error", err),
		)
	}
}

// Close releases the broker connection when the notifier owns one.
func (n *AMQPNotifier) Close() error {
	if n.client == nil {
		return nil
	}
	return n.client.Close()
}
