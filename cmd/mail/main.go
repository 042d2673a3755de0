package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftly-dev/shiftly/backend/internal/config"
	"github.com/shiftly-dev/shiftly/backend/internal/mailer"
	"github.com/shiftly-dev/shiftly/backend/internal/notify"
	"github.com/wneessen/go-mail"
)

func main() {
	var concurrency = 2

	/**********************************************
	 * Logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * Load config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.RabbitMQ.DSN == "" || cfg.Email.SMTP.Host == "" {
		logger.Error("the mail worker needs RABBITMQ_DSN and EMAIL_SMTP_HOST")
		os.Exit(1)
	}

	/**********************************************
	 * SMTP client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		logger.Error("failed to create mail client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// check the credentials once before taking messages off the queue
	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("failed to connect to mail server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	_ = client.Close()

	worker, err := mailer.NewWorker(client, cfg.Email.SMTP.Username, concurrency)
	if err != nil {
		logger.Error("failed to load mail templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	/**********************************************
	 * RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer ch.Close()

	q, err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Error("failed to declare queue", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// one unacknowledged message per worker goroutine
	if err := ch.Qos(concurrency, 0, false); err != nil {
		logger.Error("failed to set prefetch", slog.String("error", err.Error()))
		os.Exit(1)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer, generated by the broker
		false, // autoAck
		false, // exclusive
		false, // noLocal, unsupported by RabbitMQ
		false, // noWait
		nil,
	)
	if err != nil {
		logger.Error("failed to consume", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("waiting for messages (CTRL+C to quit)", "queue", q.Name)
	if err := worker.Run(ctx, msgs); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mail worker stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mail worker stopped")
}
