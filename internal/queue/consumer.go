package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/mailer"
	"github.com/iliyamo/campus-events/internal/model"
)

// UserLookup resolves the participant named in a notice.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Sender delivers a built message.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Processor turns a RegistrationNotice into an email to the administrator
// address, copied to the participant when their address is known.
type Processor struct {
	users      UserLookup
	mail       Sender
	adminEmail string
	log        *slog.Logger
}

// NewProcessor wires a Processor.  adminEmail may be empty.
func NewProcessor(users UserLookup, mail Sender, adminEmail string, log *slog.Logger) *Processor {
	if log == nil {
		log = logger.Discard()
	}
	return &Processor{users: users, mail: mail, adminEmail: adminEmail, log: log}
}

// Handle decodes body and sends the notice mail.  A missing participant is
// reported as N/A rather than failing the message.
func (p *Processor) Handle(ctx context.Context, body []byte) error {
	var n RegistrationNotice
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	var u *model.User
	if p.users != nil {
		found, err := p.users.GetByID(ctx, n.ParticipantID)
		switch {
		case err == nil:
			u = &found
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("load participant %d: %w", n.ParticipantID, err)
		}
	}

	msg := BuildMessage(n, u)
	if p.adminEmail != "" {
		msg.To = append(msg.To, p.adminEmail)
	}
	if u != nil && u.Email != "" {
		msg.Cc = append(msg.Cc, u.Email)
	}
	if len(msg.To) == 0 && len(msg.Cc) > 0 {
		msg.To, msg.Cc = msg.Cc, nil
	}
	if len(msg.To) == 0 {
		p.log.Warn("registration notice has no recipient", slog.Uint64("event_id", n.EventID))
		return nil
	}
	return p.mail.Send(ctx, msg)
}

// BuildMessage renders the subject and body of a notice without
// recipients.
func BuildMessage(n RegistrationNotice, u *model.User) mailer.Message {
	na := func(s *string) string {
		if s == nil || *s == "" {
			return "N/A"
		}
		return *s
	}
	name, email := "N/A", "N/A"
	var dept, year, phone *string
	if u != nil {
		name, email = u.Name, u.Email
		dept, year, phone = u.Department, u.Year, u.Phone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A participant has %s for the event %q on %s.\n\n", n.Status, n.EventName, n.EventDate)
	b.WriteString("Participant details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Email: %s\n", email)
	fmt.Fprintf(&b, "- Department: %s\n", na(dept))
	fmt.Fprintf(&b, "- Year: %s\n", na(year))
	fmt.Fprintf(&b, "- Phone: %s\n\n", na(phone))
	fmt.Fprintf(&b, "Registration Code: %s\n", n.Code)

	return mailer.Message{
		Subject: fmt.Sprintf("New %s - %s", strings.ToUpper(n.Status), n.EventName),
		Body:    b.String(),
	}
}

// StartRegistrationConsumer connects to the broker, declares the durable
// queue and hands every delivery to handle.  It reconnects with doubling
// backoff and returns only when ctx is done.  A failed message is rejected
// without requeue so one bad payload cannot spin the loop.
func StartRegistrationConsumer(ctx context.Context, url, queue string, handle func(context.Context, []byte) error, log *slog.Logger) error {
	log = log.With(slog.String("component", "registration-consumer"), slog.String("queue", queue))
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("failed to dial broker", logger.Err(err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", logger.Err(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handle func(context.Context, []byte) error, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", logger.Err(err))
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handle(ctx, d.Body); err != nil {
				log.Error("handle message failed", slog.String("message_id", d.MessageId), logger.Err(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
