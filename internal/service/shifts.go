package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository"
	"github.com/shiftly-dev/shiftly/backend/internal/utils"
)

type CreateShiftInput struct {
	Business  string
	RoleName  string
	Date      string
	StartTime string
	EndTime   string
	Pay       *string
	WorkerID  *string
	Status    string
}

// UpdateShiftInput is a partial update; nil fields are left as they are.
type UpdateShiftInput struct {
	Business  *string
	RoleName  *string
	Date      *string
	StartTime *string
	EndTime   *string
	Pay       domain.Optional[string]
	Status    *string
	WorkerID  domain.Optional[string]
}

// CreateShift stores a new shift owned by manager. Shifts are ACTIVE unless OPEN
// is requested, and an OPEN shift never starts with a worker.
func (s *Service) CreateShift(ctx context.Context, manager *domain.User, in CreateShiftInput) (*domain.Shift, error) {
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	startTime, endTime, err := utils.NormalizeShiftTimes(in.StartTime, in.EndTime)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "%s", err.Error())
	}

	shift := &domain.Shift{
		ManagerID: manager.ID,
		Business:  in.Business,
		RoleName:  in.RoleName,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		Pay:       emptyToNil(in.Pay),
		Status:    domain.ShiftStatusActive,
	}
	if domain.ShiftStatus(in.Status) == domain.ShiftStatusOpen {
		shift.Status = domain.ShiftStatusOpen
	}

	if shift.Status != domain.ShiftStatusOpen {
		workerID, err := parseWorkerID(emptyToNil(in.WorkerID))
		if err != nil {
			return nil, err
		}
		if workerID != nil {
			if err := s.checkWorker(ctx, *workerID); err != nil {
				return nil, err
			}
		}
		shift.WorkerID = workerID
	}

	if err := s.store.CreateShift(ctx, shift); err != nil {
		return nil, err
	}

	return s.loadShift(ctx, shift.ID)
}

// ListManagerShifts returns the manager's shifts, optionally limited to an
// inclusive date range.
func (s *Service) ListManagerShifts(ctx context.Context, manager *domain.User, from, to string) ([]*domain.Shift, error) {
	var fromDate, beforeDate *domain.Date

	if from != "" {
		d, err := domain.ParseDate(from)
		if err != nil {
			return nil, err
		}
		fromDate = &d
	}
	if to != "" {
		d, err := domain.ParseDate(to)
		if err != nil {
			return nil, err
		}
		// the whole "to" day is included
		before := d.AddDays(1)
		beforeDate = &before
	}

	return s.store.ListShiftsByManager(ctx, manager.ID, fromDate, beforeDate)
}

// ListWorkerShifts returns the worker's assigned shifts that are not canceled.
func (s *Service) ListWorkerShifts(ctx context.Context, worker *domain.User) ([]*domain.Shift, error) {
	return s.store.ListShiftsByWorker(ctx, worker.ID)
}

func (s *Service) GetShift(ctx context.Context, identity *domain.User, id string) (*domain.Shift, error) {
	shift, err := s.findShift(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canView(identity, shift) {
		return nil, domain.Errorf(domain.ErrForbidden, "Forbidden")
	}

	return shift, nil
}

// UpdateShift applies a partial update to a shift owned by manager. The patch is
// applied to the row as locked inside the transaction, so it never writes back
// a status or worker that a concurrent assign has already replaced.
func (s *Service) UpdateShift(ctx context.Context, manager *domain.User, id string, in UpdateShiftInput) (*domain.Shift, error) {
	shift, err := s.ownedShift(ctx, manager, id)
	if err != nil {
		return nil, err
	}

	patch, err := shiftPatch(in)
	if err != nil {
		return nil, err
	}

	// a patch that reopens the shift drops its worker anyway
	if patch.WorkerID.Set && patch.WorkerID.Value != nil && !patch.Reopens() {
		if err := s.checkWorker(ctx, *patch.WorkerID.Value); err != nil {
			return nil, err
		}
	}

	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.LockShift(ctx, shift.ID, true)
		if err != nil {
			return notFound(err, "Shift not found")
		}
		if !locked.OwnedBy(manager.ID) {
			return domain.Errorf(domain.ErrForbidden, "Forbidden")
		}

		patch.Apply(locked)
		return notFound(tx.UpdateShift(ctx, locked), "Shift not found")
	})
	if err != nil {
		return nil, err
	}

	return s.loadShift(ctx, shift.ID)
}

func shiftPatch(in UpdateShiftInput) (domain.ShiftPatch, error) {
	patch := domain.ShiftPatch{
		Business: in.Business,
		RoleName: in.RoleName,
	}

	if in.Date != nil {
		date, err := domain.ParseDate(*in.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	if in.StartTime != nil {
		startTime, err := utils.NormalizeShiftTime("startTime", *in.StartTime)
		if err != nil {
			return patch, domain.Errorf(domain.ErrInvalidArgument, "%s", err.Error())
		}
		patch.StartTime = &startTime
	}
	if in.EndTime != nil {
		endTime, err := utils.NormalizeShiftTime("endTime", *in.EndTime)
		if err != nil {
			return patch, domain.Errorf(domain.ErrInvalidArgument, "%s", err.Error())
		}
		patch.EndTime = &endTime
	}
	if in.Status != nil {
		status := domain.ShiftStatus(*in.Status)
		if !status.Valid() {
			return patch, domain.Errorf(domain.ErrInvalidArgument, "Invalid status")
		}
		patch.Status = &status
	}
	if in.Pay.Set {
		patch.Pay = domain.Optional[string]{Set: true, Value: emptyToNil(in.Pay.Value)}
	}
	if in.WorkerID.Set {
		workerID, err := parseWorkerID(emptyToNil(in.WorkerID.Value))
		if err != nil {
			return patch, err
		}
		patch.WorkerID = domain.Optional[uuid.UUID]{Set: true, Value: workerID}
	}

	return patch, nil
}

func (s *Service) DeleteShift(ctx context.Context, manager *domain.User, id string) error {
	shift, err := s.ownedShift(ctx, manager, id)
	if err != nil {
		return err
	}

	return notFound(s.store.DeleteShift(ctx, shift.ID), "Shift not found")
}

// findShift loads a shift by its textual id. Ids that are not UUIDs cannot exist.
func (s *Service) findShift(ctx context.Context, id string) (*domain.Shift, error) {
	shiftID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.Errorf(domain.ErrNotFound, "Shift not found")
	}
	return s.loadShift(ctx, shiftID)
}

func (s *Service) loadShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	shift, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, notFound(err, "Shift not found")
	}
	return shift, nil
}

// ownedShift loads a shift that manager is allowed to mutate.
func (s *Service) ownedShift(ctx context.Context, manager *domain.User, id string) (*domain.Shift, error) {
	shift, err := s.findShift(ctx, id)
	if err != nil {
		return nil, err
	}

	if !shift.OwnedBy(manager.ID) {
		return nil, domain.Errorf(domain.ErrForbidden, "Forbidden")
	}

	return shift, nil
}

func (s *Service) checkWorker(ctx context.Context, id uuid.UUID) error {
	worker, err := s.store.GetUserByID(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Errorf(domain.ErrInvalidArgument, "Worker not found")
	case err != nil:
		return err
	}
	if worker.Role != domain.RoleEmployee {
		return domain.Errorf(domain.ErrInvalidArgument, "Only employees can be assigned to shifts")
	}
	return nil
}

func parseWorkerID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid workerId")
	}
	return &id, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
