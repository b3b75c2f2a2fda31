package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends ticket events to the downstream message queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// QueuePublisher publishes to a RabbitMQ direct exchange. Each Publish call
// opens its own connection and channel, declares the exchange and queue,
// binds them with the queue name as routing key, publishes and closes. The
// topology declarations are idempotent on the broker side.
type QueuePublisher struct {
	host     string
	port     int
	username string
	password string
	exchange string
	queue    string
}

// QueueConfig holds the broker settings for the ticketing queue.
type QueueConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Exchange string
	Queue    string
}

// NewQueuePublisher creates a publisher for the given broker and topology.
func NewQueuePublisher(cfg QueueConfig) (*QueuePublisher, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("queue host cannot be empty")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("queue port must be positive")
	}
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("exchange name cannot be empty")
	}
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue name cannot be empty")
	}
	return &QueuePublisher{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
	}, nil
}

// brokerURL builds the dial string, escaping credentials so characters like
// "@" or "/" in a password cannot corrupt it.
func (p *QueuePublisher) brokerURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(p.username, p.password),
		Host:   fmt.Sprintf("%s:%d", p.host, p.port),
		Path:   "/",
	}
	return u.String()
}

// Publish sends one UTF-8 payload to the ticketing queue.
func (p *QueuePublisher) Publish(ctx context.Context, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("message body cannot be empty")
	}

	conn, err := amqp.Dial(p.brokerURL())
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeDirect, false, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", p.exchange, err)
	}

	// Non-durable, non-exclusive, non-auto-delete, matching the consumer's
	// declaration.
	if _, err := ch.QueueDeclare(p.queue, false, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", p.queue, err)
	}

	if err := ch.QueueBind(p.queue, p.queue, p.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q: %w", p.queue, err)
	}

	err = ch.PublishWithContext(ctx, p.exchange, p.queue, false, false, amqp.Publishing{
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	slog.Debug("Published ticket event", "exchange", p.exchange, "queue", p.queue, "bytes", len(body))
	return nil
}

var _ Publisher = (*QueuePublisher)(nil)
