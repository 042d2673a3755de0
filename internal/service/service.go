package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shiftly-dev/shiftly/backend/internal/config"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository"
)

// Notifier queues outgoing mail. Delivery is best-effort: failures are logged
// and never undo the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, msg domain.MailMessage) error
}

type Service struct {
	cfg      *config.Config
	store    repository.Store
	notifier Notifier
}

func New(cfg *config.Config, store repository.Store, notifier Notifier) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
	}
}

func (s *Service) notify(ctx context.Context, msg domain.MailMessage) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		slog.Warn("failed to queue mail", "type", msg.Type, "to", msg.To, "error", err)
	}
}

// notFound classifies a missing row, passing any other error through untouched.
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Errorf(domain.ErrNotFound, "%s", msg)
	}
	return err
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
