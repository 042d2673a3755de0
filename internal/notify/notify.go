// Package notify queues mail for the mail worker over RabbitMQ.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

// Publisher is the part of *amqp.Channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type QueueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// DeclareQueue declares the durable mail queue. The API and the mail worker
// both call it, so whichever starts first creates the queue.
func DeclareQueue(ch QueueDeclarer, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}

type Notifier struct {
	publisher Publisher
	queue     string
	timeout   time.Duration
}

func NewNotifier(publisher Publisher, queue string, timeout time.Duration) *Notifier {
	return &Notifier{
		publisher: publisher,
		queue:     queue,
		timeout:   timeout,
	}
}

// Notify publishes msg as a persistent JSON message on the default exchange.
func (n *Notifier) Notify(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// the request may already be finished when the message goes out
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	return n.publisher.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}
