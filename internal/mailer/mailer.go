// Package mailer renders queued mail messages and sends them over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/wneessen/go-mail"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[string]string{
	domain.MailTypeWelcome:             "Welcome to Shiftly",
	domain.MailTypeApplicationAccepted: "Shiftly - you got the shift",
	domain.MailTypeApplicationRejected: "Shiftly - shift filled",
}

var (
	ErrUnknownType      = errors.New("unknown mail type")
	ErrDeliveriesClosed = errors.New("delivery channel closed")
)

// Sender delivers built messages; *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Worker struct {
	sender      Sender
	from        string
	templates   *template.Template
	concurrency int
}

func NewWorker(sender Sender, from string, concurrency int) (*Worker, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	return &Worker{
		sender:      sender,
		from:        from,
		templates:   tmpl,
		concurrency: concurrency,
	}, nil
}

// Run handles deliveries until ctx is canceled. A closed delivery channel means
// the broker connection is gone and is reported as ErrDeliveriesClosed.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						return ErrDeliveriesClosed
					}
					w.Handle(ctx, d)
				}
			}
		})
	}

	return g.Wait()
}

// Handle sends one delivery. Messages that can never be sent are dropped, SMTP
// failures are put back on the queue.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	msg, err := w.Build(d.Body)
	if err != nil {
		slog.Error("dropping mail message", "error", err, "body", string(d.Body))
		if err := d.Nack(false, false); err != nil {
			slog.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := w.sender.DialAndSendWithContext(ctx, msg); err != nil {
		slog.Error("failed to send mail", "error", err)
		if err := d.Nack(false, true); err != nil {
			slog.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		slog.Error("failed to ack message", "error", err)
	}
}

type envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

// Build turns a queued JSON message into a mail ready to send.
func (w *Worker) Build(body []byte) (*mail.Msg, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	subject, html, err := w.Render(env.Type, env.Data)
	if err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := m.From(w.from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(env.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, html)

	return m, nil
}

// Render returns the subject and HTML body for a message of the given type.
func (w *Worker) Render(mailType string, data json.RawMessage) (string, string, error) {
	var v any
	switch mailType {
	case domain.MailTypeWelcome:
		v = &domain.WelcomeMailData{}
	case domain.MailTypeApplicationAccepted, domain.MailTypeApplicationRejected:
		v = &domain.ApplicationResultMailData{}
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownType, mailType)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := w.templates.ExecuteTemplate(&buf, mailType+".html", v); err != nil {
		return "", "", err
	}

	return subjects[mailType], buf.String(), nil
}
