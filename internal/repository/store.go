package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

// Store is the persistence contract of the API. Lookups of missing rows return
// sql.ErrNoRows; uniqueness violations surface as *pgconn.PgError.
type Store interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByLogin(ctx context.Context, identifier string) (*domain.User, error)
	ListUsers(ctx context.Context, includeBosses bool) ([]*domain.User, error)

	CreateShift(ctx context.Context, shift *domain.Shift) error
	GetShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error)
	DeleteShift(ctx context.Context, id uuid.UUID) error
	// from is inclusive and before is exclusive; nil means unbounded.
	ListShiftsByManager(ctx context.Context, managerID uuid.UUID, from, before *domain.Date) ([]*domain.Shift, error)
	ListShiftsByWorker(ctx context.Context, workerID uuid.UUID) ([]*domain.Shift, error)
	ListOpenShifts(ctx context.Context, requesterID uuid.UUID) ([]*domain.Shift, error)

	GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	ListApplicationsByShift(ctx context.Context, shiftID uuid.UUID) ([]*domain.Application, error)

	// InTx runs fn in one transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx holds the operations that must share a transaction.
type Tx interface {
	// LockShift reads a shift row, FOR UPDATE when exclusive and FOR SHARE otherwise.
	LockShift(ctx context.Context, id uuid.UUID, exclusive bool) (*domain.Shift, error)
	// UpsertApplication inserts a PENDING application or resets the existing one to PENDING.
	UpsertApplication(ctx context.Context, shiftID, userID uuid.UUID) (*domain.Application, error)
	AcceptApplication(ctx context.Context, shiftID, applicationID uuid.UUID) (*domain.Application, error)
	RejectPendingApplications(ctx context.Context, shiftID, exceptID uuid.UUID) ([]*domain.Application, error)
	AssignShiftWorker(ctx context.Context, shiftID, workerID uuid.UUID) error
	// UpdateShift writes back the mutable columns of a locked shift.
	UpdateShift(ctx context.Context, shift *domain.Shift) error
}

var (
	_ Store = (*Repository)(nil)
	_ Tx    = (*txRepository)(nil)
)
