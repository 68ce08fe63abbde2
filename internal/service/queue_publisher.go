// Package queue_publisher publishes registration notices to RabbitMQ.
// Errors are logged and returned so the engine can record them without
// interrupting the request that triggered the notice.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/campus-events/internal/logger"
	q "github.com/iliyamo/campus-events/internal/queue"
	"github.com/iliyamo/campus-events/internal/registration"
)

// Publisher implements registration.Notifier.  It dials the broker for
// every notice; registrations are infrequent enough that a pooled
// connection is not needed.
type Publisher struct {
	url   string
	queue string
	log   *slog.Logger
	now   func() time.Time
}

// New returns a Publisher for the given broker URL and queue name.
func New(url, queue string, log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}
	return &Publisher{
		url:   url,
		queue: queue,
		log:   log.With(slog.String("component", "queue-publisher")),
		now:   time.Now,
	}
}

// NotifyRegistration publishes n as a persistent JSON message on the
// configured queue.
func (p *Publisher) NotifyRegistration(ctx context.Context, n registration.Notice) error {
	body, err := json.Marshal(q.NoticeFrom(n, p.now()))
	if err != nil {
		p.log.Error("marshal notice failed", logger.Err(err))
		return err
	}
	return p.publish(ctx, body)
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("dial failed", logger.Err(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", logger.Err(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.log.Warn("queue declare failed", logger.Err(err))
		return err
	}

	id := uuid.NewString()
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.log.Warn("publish failed", logger.Err(err))
		return err
	}
	p.log.Debug("notice published", slog.String("message_id", id))
	return nil
}
