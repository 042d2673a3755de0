package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository"
)

// ListOpenShifts returns every OPEN shift together with the requester's own
// application, if any.
func (s *Service) ListOpenShifts(ctx context.Context, identity *domain.User) ([]*domain.Shift, error) {
	return s.store.ListOpenShifts(ctx, identity.ID)
}

// Apply records identity's interest in an OPEN shift. Applying again resets the
// existing application to PENDING instead of creating a second one.
func (s *Service) Apply(ctx context.Context, identity *domain.User, shiftID string) (*domain.Application, error) {
	if err := RequireRole(identity, domain.RoleEmployee); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, domain.Errorf(domain.ErrForbidden, "Only employees can apply")
		}
		return nil, err
	}

	id, err := uuid.Parse(shiftID)
	if err != nil {
		return nil, domain.Errorf(domain.ErrNotFound, "Shift not found")
	}

	var app *domain.Application
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		shift, err := tx.LockShift(ctx, id, false)
		if err != nil {
			return notFound(err, "Shift not found")
		}
		if shift.Status != domain.ShiftStatusOpen {
			return domain.Errorf(domain.ErrInvalidState, "Shift is not open")
		}

		app, err = tx.UpsertApplication(ctx, shift.ID, identity.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (s *Service) ListApplicants(ctx context.Context, manager *domain.User, shiftID string) ([]*domain.Application, error) {
	shift, err := s.ownedShift(ctx, manager, shiftID)
	if err != nil {
		return nil, err
	}

	return s.store.ListApplicationsByShift(ctx, shift.ID)
}

// Assign accepts one application for an OPEN shift owned by manager. The chosen
// application becomes ACCEPTED, every other PENDING one REJECTED and the shift
// ACTIVE with the applicant as worker, all in one transaction.
//
// Exactly one application is accepted per round. A shift reopened after an
// assign and then assigned again keeps the earlier ACCEPTED row, since only
// PENDING applications are ever rejected.
func (s *Service) Assign(ctx context.Context, manager *domain.User, shiftID, applicationID string) (*domain.Assignment, error) {
	if applicationID == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "applicationId required")
	}

	shift, err := s.ownedShift(ctx, manager, shiftID)
	if err != nil {
		return nil, err
	}

	appID, err := uuid.Parse(applicationID)
	if err != nil {
		return nil, domain.Errorf(domain.ErrNotFound, "Application not found for this shift")
	}

	app, err := s.store.GetApplication(ctx, appID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.Errorf(domain.ErrNotFound, "Application not found for this shift")
	case err != nil:
		return nil, err
	}
	if app.ShiftID != shift.ID {
		return nil, domain.Errorf(domain.ErrNotFound, "Application not found for this shift")
	}

	assignment := &domain.Assignment{}
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.LockShift(ctx, shift.ID, true)
		if err != nil {
			return notFound(err, "Shift not found")
		}
		// the shift may have changed since it was first read
		if !locked.OwnedBy(manager.ID) {
			return domain.Errorf(domain.ErrForbidden, "Forbidden")
		}
		if locked.Status != domain.ShiftStatusOpen {
			return domain.Errorf(domain.ErrInvalidState, "Shift is not open")
		}

		accepted, err := tx.AcceptApplication(ctx, shift.ID, app.ID)
		if err != nil {
			return notFound(err, "Application not found for this shift")
		}

		rejected, err := tx.RejectPendingApplications(ctx, shift.ID, app.ID)
		if err != nil {
			return err
		}

		if err := tx.AssignShiftWorker(ctx, shift.ID, accepted.UserID); err != nil {
			return err
		}

		assignment.Accepted = accepted
		assignment.Rejected = rejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	assignment.Shift, err = s.loadShift(ctx, shift.ID)
	if err != nil {
		return nil, err
	}

	s.notifyAssignment(ctx, assignment)

	return assignment, nil
}

func (s *Service) notifyAssignment(ctx context.Context, assignment *domain.Assignment) {
	shift := assignment.Shift

	result := func(mailType string, app *domain.Application) {
		if app.User == nil {
			return
		}
		s.notify(ctx, domain.MailMessage{
			Type: mailType,
			To:   app.User.Email,
			Data: domain.ApplicationResultMailData{
				Username:  app.User.Username,
				Business:  shift.Business,
				RoleName:  shift.RoleName,
				Date:      shift.Date.String(),
				StartTime: shift.StartTime,
				EndTime:   shift.EndTime,
				AppURL:    s.cfg.Email.AppURL,
			},
		})
	}

	result(domain.MailTypeApplicationAccepted, assignment.Accepted)
	for _, app := range assignment.Rejected {
		result(domain.MailTypeApplicationRejected, app)
	}
}
