package queue

import (
	"context"
	"encoding/json"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultPublishTimeout bounds one publish, broker handshake included.
const DefaultPublishTimeout = 2 * time.Second

// Publisher sends CardEvents to RabbitMQ. A Publisher with an empty URL
// drops every event, which lets the API run without a broker.
type Publisher struct {
	URL     string
	Queue   string
	Timeout time.Duration
}

// NewPublisher returns a Publisher for the card.events queue.
func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, Queue: CardEventsQueue, Timeout: DefaultPublishTimeout}
}

// Enabled reports whether events are actually sent.
func (p *Publisher) Enabled() bool { return p != nil && p.URL != "" }

// PublishCardEvent publishes ev as a persistent JSON message. Each call
// dials its own connection so the publisher holds no state between
// requests. The whole exchange, dial and AMQP handshake included, ends
// when ctx is done or Timeout elapses. Errors are returned for the caller
// to report.
func (p *Publisher) PublishCardEvent(ctx context.Context, ev CardEvent) error {
	if !p.Enabled() {
		return nil
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      contextDialer(ctx),
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	// Channel RPCs have no deadline of their own; closing the connection
	// unblocks them.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, pub)
}

// contextDialer connects under ctx and carries its deadline onto the
// socket, which bounds the TLS and AMQP handshake. amqp091 clears the
// deadline once the connection is open.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return conn, nil
	}
}
