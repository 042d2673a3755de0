package service

import (
	"context"

	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

// ListUsers returns the staff directory, newest first. Bosses are left out unless
// includeBosses is set.
func (s *Service) ListUsers(ctx context.Context, includeBosses bool) ([]*domain.User, error) {
	return s.store.ListUsers(ctx, includeBosses)
}
