package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

func (r *Repository) GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	query := `
		SELECT shift_id, user_id, status, applied_at
		FROM shift_applications WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	app := &domain.Application{
		ID: id,
	}

	dst := []any{&app.ShiftID, &app.UserID, &app.Status, &app.AppliedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return app, nil
}

func (r *Repository) ListApplicationsByShift(ctx context.Context, shiftID uuid.UUID) ([]*domain.Application, error) {
	query := `
		SELECT a.id, a.shift_id, a.user_id, a.status, a.applied_at, u.email, u.username
		FROM shift_applications a
		JOIN users u ON u.id = a.user_id
		WHERE a.shift_id = $1
		ORDER BY a.applied_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplicationsWithUser(rows)
}

// txRepository runs the statements that must share one transaction.
type txRepository struct {
	tx *sql.Tx
}

func (t *txRepository) LockShift(ctx context.Context, id uuid.UUID, exclusive bool) (*domain.Shift, error) {
	lock := "FOR SHARE"
	if exclusive {
		lock = "FOR UPDATE"
	}

	query := `
		SELECT id, manager_id, worker_id, business, role_name, date, start_time, end_time, pay, status, created_at
		FROM shifts WHERE id = $1
	` + lock

	shift := &domain.Shift{}
	dst := []any{
		&shift.ID,
		&shift.ManagerID,
		&shift.WorkerID,
		&shift.Business,
		&shift.RoleName,
		&shift.Date,
		&shift.StartTime,
		&shift.EndTime,
		&shift.Pay,
		&shift.Status,
		&shift.CreatedAt,
	}
	if err := t.tx.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return shift, nil
}

func (t *txRepository) UpsertApplication(ctx context.Context, shiftID, userID uuid.UUID) (*domain.Application, error) {
	query := `
		INSERT INTO shift_applications (shift_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT shift_applications_shift_id_user_id_key
		DO UPDATE SET status = 'PENDING'
		RETURNING id, status, applied_at
	`

	app := &domain.Application{
		ShiftID: shiftID,
		UserID:  userID,
	}
	if err := t.tx.QueryRowContext(ctx, query, shiftID, userID).Scan(&app.ID, &app.Status, &app.AppliedAt); err != nil {
		return nil, err
	}

	return app, nil
}

func (t *txRepository) AcceptApplication(ctx context.Context, shiftID, applicationID uuid.UUID) (*domain.Application, error) {
	query := `
		UPDATE shift_applications a
		SET status = 'ACCEPTED'
		FROM users u
		WHERE a.id = $1 AND a.shift_id = $2 AND u.id = a.user_id
		RETURNING a.id, a.shift_id, a.user_id, a.status, a.applied_at, u.email, u.username
	`

	return scanApplicationWithUser(t.tx.QueryRowContext(ctx, query, applicationID, shiftID))
}

func (t *txRepository) RejectPendingApplications(ctx context.Context, shiftID, exceptID uuid.UUID) ([]*domain.Application, error) {
	query := `
		UPDATE shift_applications a
		SET status = 'REJECTED'
		FROM users u
		WHERE a.shift_id = $1 AND a.id <> $2 AND a.status = 'PENDING' AND u.id = a.user_id
		RETURNING a.id, a.shift_id, a.user_id, a.status, a.applied_at, u.email, u.username
	`

	rows, err := t.tx.QueryContext(ctx, query, shiftID, exceptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplicationsWithUser(rows)
}

func (t *txRepository) AssignShiftWorker(ctx context.Context, shiftID, workerID uuid.UUID) error {
	query := `
		UPDATE shifts SET worker_id = $1, status = 'ACTIVE' WHERE id = $2
	`

	result, err := t.tx.ExecContext(ctx, query, workerID, shiftID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// UpdateShift writes back every mutable column of a shift locked by LockShift.
func (t *txRepository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			worker_id = $1,
			business = $2,
			role_name = $3,
			date = $4,
			start_time = $5,
			end_time = $6,
			pay = $7,
			status = $8
		WHERE id = $9
	`

	params := []any{
		shift.WorkerID,
		shift.Business,
		shift.RoleName,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		shift.Pay,
		shift.Status,
		shift.ID,
	}

	result, err := t.tx.ExecContext(ctx, query, params...)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func scanApplicationWithUser(row rowScanner) (*domain.Application, error) {
	app := &domain.Application{}
	user := &domain.UserSummary{}

	dst := []any{&app.ID, &app.ShiftID, &app.UserID, &app.Status, &app.AppliedAt, &user.Email, &user.Username}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	user.ID = app.UserID
	app.User = user

	return app, nil
}

func scanApplicationsWithUser(rows *sql.Rows) ([]*domain.Application, error) {
	apps := make([]*domain.Application, 0)
	for rows.Next() {
		app, err := scanApplicationWithUser(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return apps, nil
}
