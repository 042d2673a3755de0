package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

const selectShiftWithPeople = `
	SELECT
		s.id,
		s.manager_id,
		s.worker_id,
		s.business,
		s.role_name,
		s.date,
		s.start_time,
		s.end_time,
		s.pay,
		s.status,
		s.created_at,
		m.email,
		m.username,
		w.email,
		w.username
	FROM shifts s
	JOIN users m ON m.id = s.manager_id
	LEFT JOIN users w ON w.id = s.worker_id
`

// scanShiftWithPeople scans a row of selectShiftWithPeople plus any extra trailing columns.
func scanShiftWithPeople(row rowScanner, extra ...any) (*domain.Shift, error) {
	var (
		shift        domain.Shift
		managerEmail string
		managerName  string
		workerEmail  sql.NullString
		workerName   sql.NullString
	)

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
		&managerEmail,
		&managerName,
		&workerEmail,
		&workerName,
	}
	if err := row.Scan(append(dst, extra...)...); err != nil {
		return nil, err
	}

	shift.Manager = &domain.UserSummary{
		ID:       shift.ManagerID,
		Email:    managerEmail,
		Username: managerName,
	}
	if shift.WorkerID != nil && workerEmail.Valid {
		shift.Worker = &domain.UserSummary{
			ID:       *shift.WorkerID,
			Email:    workerEmail.String,
			Username: workerName.String,
		}
	}

	return &shift, nil
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (manager_id, worker_id, business, role_name, date, start_time, end_time, pay, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		shift.ManagerID,
		shift.WorkerID,
		shift.Business,
		shift.RoleName,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		shift.Pay,
		shift.Status,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.ID, &shift.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanShiftWithPeople(r.dbpool.QueryRowContext(ctx, selectShiftWithPeople+` WHERE s.id = $1`, id))
}

func (r *Repository) DeleteShift(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func (r *Repository) ListShiftsByManager(ctx context.Context, managerID uuid.UUID, from, before *domain.Date) ([]*domain.Shift, error) {
	conditions := []string{"s.manager_id = $1"}
	args := []any{managerID}
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d", len(args)))
	}
	if before != nil {
		args = append(args, *before)
		conditions = append(conditions, fmt.Sprintf("s.date < $%d", len(args)))
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := selectShiftWithPeople + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY s.date, s.start_time"
	shifts, err := r.listShifts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// attach the pending application ids of each shift
	pendingQuery := `
		SELECT a.shift_id, a.id
		FROM shift_applications a
		JOIN shifts s ON s.id = a.shift_id
		WHERE s.manager_id = $1 AND a.status = 'PENDING'
		ORDER BY a.applied_at
	`
	rows, err := r.dbpool.QueryContext(ctx, pendingQuery, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := make(map[uuid.UUID][]domain.ApplicationSummary)
	for rows.Next() {
		var shiftID uuid.UUID
		summary := domain.ApplicationSummary{Status: domain.ApplicationStatusPending}
		if err := rows.Scan(&shiftID, &summary.ID); err != nil {
			return nil, err
		}
		pending[shiftID] = append(pending[shiftID], summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, shift := range shifts {
		shift.Applications = pending[shift.ID]
	}

	return shifts, nil
}

func (r *Repository) ListShiftsByWorker(ctx context.Context, workerID uuid.UUID) ([]*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := selectShiftWithPeople + `
		WHERE s.worker_id = $1 AND s.status <> 'CANCELED'
		ORDER BY s.date, s.start_time
	`
	return r.listShifts(ctx, query, workerID)
}

// ListOpenShifts returns every OPEN shift, each carrying the requester's own application if any.
func (r *Repository) ListOpenShifts(ctx context.Context, requesterID uuid.UUID) ([]*domain.Shift, error) {
	query := `
		SELECT
			s.id,
			s.manager_id,
			s.worker_id,
			s.business,
			s.role_name,
			s.date,
			s.start_time,
			s.end_time,
			s.pay,
			s.status,
			s.created_at,
			m.email,
			m.username,
			NULL::TEXT,
			NULL::TEXT,
			a.id,
			a.status
		FROM shifts s
		JOIN users m ON m.id = s.manager_id
		LEFT JOIN shift_applications a ON a.shift_id = s.id AND a.user_id = $1
		WHERE s.status = 'OPEN'
		ORDER BY s.date, s.start_time
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		var (
			applicationID     uuid.NullUUID
			applicationStatus sql.NullString
		)
		shift, err := scanShiftWithPeople(rows, &applicationID, &applicationStatus)
		if err != nil {
			return nil, err
		}
		if applicationID.Valid {
			shift.Applications = []domain.ApplicationSummary{{
				ID:     applicationID.UUID,
				Status: domain.ApplicationStatus(applicationStatus.String),
			}}
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) listShifts(ctx context.Context, query string, args ...any) ([]*domain.Shift, error) {
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift, err := scanShiftWithPeople(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
