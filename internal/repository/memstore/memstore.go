// Package memstore is an in-memory repository.Store used by tests. Transactions
// are serialised with a mutex and rolled back by restoring a snapshot.
package memstore

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository"
)

const uniqueViolation = "23505"

type state struct {
	users        map[uuid.UUID]domain.User
	shifts       map[uuid.UUID]domain.Shift
	applications map[uuid.UUID]domain.Application
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[uuid.UUID]domain.User, len(s.users)),
		shifts:       make(map[uuid.UUID]domain.Shift, len(s.shifts)),
		applications: make(map[uuid.UUID]domain.Application, len(s.applications)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	for k, v := range s.applications {
		c.applications[k] = v
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
	clock time.Time

	// TxHook, when set, runs before every transactional statement; a non-nil
	// error aborts the statement and therefore the transaction.
	TxHook func(op string) error
}

func New() *Store {
	return &Store{
		state: &state{
			users:        make(map[uuid.UUID]domain.User),
			shifts:       make(map[uuid.UUID]domain.Shift),
			applications: make(map[uuid.UUID]domain.Application),
		},
		clock: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*tx)(nil)
)

// now returns a strictly increasing timestamp so orderings are deterministic.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.state.users {
		if u.Email == user.Email {
			return &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"}
		}
		if u.Username == user.Username {
			return &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"}
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = s.now()
	s.state.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.state.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *Store) GetUserByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var byUsername *domain.User
	for _, u := range s.state.users {
		if u.Email == identifier {
			return &u, nil
		}
		if u.Username == identifier {
			byUsername = &u
		}
	}
	if byUsername == nil {
		return nil, sql.ErrNoRows
	}
	return byUsername, nil
}

func (s *Store) ListUsers(ctx context.Context, includeBosses bool) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*domain.User, 0)
	for _, u := range s.state.users {
		if !includeBosses && u.Role != domain.RoleEmployee {
			continue
		}
		u.PasswordHash = ""
		users = append(users, &u)
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return users, nil
}

func (s *Store) CreateShift(ctx context.Context, shift *domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift.ID = uuid.New()
	shift.CreatedAt = s.now()
	s.state.shifts[shift.ID] = bare(shift)
	return nil
}

func (s *Store) GetShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.state.shifts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s.withPeople(shift), nil
}

func (s *Store) DeleteShift(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.shifts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.state.shifts, id)
	for appID, app := range s.state.applications {
		if app.ShiftID == id {
			delete(s.state.applications, appID)
		}
	}
	return nil
}

func (s *Store) ListShiftsByManager(ctx context.Context, managerID uuid.UUID, from, before *domain.Date) ([]*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shifts := s.filterShifts(func(shift domain.Shift) bool {
		if shift.ManagerID != managerID {
			return false
		}
		if from != nil && shift.Date.Before(from.Time) {
			return false
		}
		if before != nil && !shift.Date.Before(before.Time) {
			return false
		}
		return true
	})

	for _, shift := range shifts {
		for _, app := range s.applicationsOf(shift.ID) {
			if app.Status == domain.ApplicationStatusPending {
				shift.Applications = append(shift.Applications, domain.ApplicationSummary{ID: app.ID, Status: app.Status})
			}
		}
	}
	return shifts, nil
}

func (s *Store) ListShiftsByWorker(ctx context.Context, workerID uuid.UUID) ([]*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterShifts(func(shift domain.Shift) bool {
		return shift.AssignedTo(workerID) && shift.Status != domain.ShiftStatusCanceled
	}), nil
}

func (s *Store) ListOpenShifts(ctx context.Context, requesterID uuid.UUID) ([]*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shifts := s.filterShifts(func(shift domain.Shift) bool {
		return shift.Status == domain.ShiftStatusOpen
	})
	for _, shift := range shifts {
		for _, app := range s.applicationsOf(shift.ID) {
			if app.UserID == requesterID {
				shift.Applications = []domain.ApplicationSummary{{ID: app.ID, Status: app.Status}}
			}
		}
	}
	return shifts, nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.state.applications[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &app, nil
}

func (s *Store) ListApplicationsByShift(ctx context.Context, shiftID uuid.UUID) ([]*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps := s.applicationsOf(shiftID)
	for _, app := range apps {
		app.User = s.summary(app.UserID)
	}
	return apps, nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&tx{store: s}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// Counts reports the number of stored rows, for assertions in tests.
func (s *Store) Counts() (users, shifts, applications int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.state.users), len(s.state.shifts), len(s.state.applications)
}

func (s *Store) filterShifts(keep func(domain.Shift) bool) []*domain.Shift {
	shifts := make([]*domain.Shift, 0)
	for _, shift := range s.state.shifts {
		if keep(shift) {
			shifts = append(shifts, s.withPeople(shift))
		}
	}
	slices.SortFunc(shifts, func(a, b *domain.Shift) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		if a.StartTime != b.StartTime {
			if a.StartTime < b.StartTime {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return shifts
}

func (s *Store) applicationsOf(shiftID uuid.UUID) []*domain.Application {
	apps := make([]*domain.Application, 0)
	for _, app := range s.state.applications {
		if app.ShiftID == shiftID {
			apps = append(apps, &app)
		}
	}
	slices.SortFunc(apps, func(a, b *domain.Application) int {
		return a.AppliedAt.Compare(b.AppliedAt)
	})
	return apps
}

func (s *Store) withPeople(shift domain.Shift) *domain.Shift {
	shift.Manager = s.summary(shift.ManagerID)
	if shift.WorkerID != nil {
		id := *shift.WorkerID
		shift.WorkerID = &id
		shift.Worker = s.summary(id)
	}
	if shift.Pay != nil {
		pay := *shift.Pay
		shift.Pay = &pay
	}
	return &shift
}

func (s *Store) summary(id uuid.UUID) *domain.UserSummary {
	u, ok := s.state.users[id]
	if !ok {
		return nil
	}
	return u.Summary()
}

// bare copies the persisted columns of a shift, dropping joined data.
func bare(shift *domain.Shift) domain.Shift {
	c := *shift
	c.Manager = nil
	c.Worker = nil
	c.Applications = nil
	if shift.WorkerID != nil {
		id := *shift.WorkerID
		c.WorkerID = &id
	}
	if shift.Pay != nil {
		pay := *shift.Pay
		c.Pay = &pay
	}
	return c
}

type tx struct {
	store *Store
}

func (t *tx) hook(op string) error {
	if t.store.TxHook == nil {
		return nil
	}
	return t.store.TxHook(op)
}

func (t *tx) LockShift(ctx context.Context, id uuid.UUID, exclusive bool) (*domain.Shift, error) {
	if err := t.hook("LockShift"); err != nil {
		return nil, err
	}
	shift, ok := t.store.state.shifts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := bare(&shift)
	return &c, nil
}

func (t *tx) UpsertApplication(ctx context.Context, shiftID, userID uuid.UUID) (*domain.Application, error) {
	if err := t.hook("UpsertApplication"); err != nil {
		return nil, err
	}
	for id, app := range t.store.state.applications {
		if app.ShiftID == shiftID && app.UserID == userID {
			app.Status = domain.ApplicationStatusPending
			t.store.state.applications[id] = app
			return &app, nil
		}
	}

	app := domain.Application{
		ID:        uuid.New(),
		ShiftID:   shiftID,
		UserID:    userID,
		Status:    domain.ApplicationStatusPending,
		AppliedAt: t.store.now(),
	}
	t.store.state.applications[app.ID] = app
	return &app, nil
}

func (t *tx) AcceptApplication(ctx context.Context, shiftID, applicationID uuid.UUID) (*domain.Application, error) {
	if err := t.hook("AcceptApplication"); err != nil {
		return nil, err
	}
	app, ok := t.store.state.applications[applicationID]
	if !ok || app.ShiftID != shiftID {
		return nil, sql.ErrNoRows
	}
	app.Status = domain.ApplicationStatusAccepted
	t.store.state.applications[applicationID] = app
	app.User = t.store.summary(app.UserID)
	return &app, nil
}

func (t *tx) RejectPendingApplications(ctx context.Context, shiftID, exceptID uuid.UUID) ([]*domain.Application, error) {
	if err := t.hook("RejectPendingApplications"); err != nil {
		return nil, err
	}
	rejected := make([]*domain.Application, 0)
	for _, app := range t.store.applicationsOf(shiftID) {
		if app.ID == exceptID || app.Status != domain.ApplicationStatusPending {
			continue
		}
		app.Status = domain.ApplicationStatusRejected
		t.store.state.applications[app.ID] = *app
		app.User = t.store.summary(app.UserID)
		rejected = append(rejected, app)
	}
	return rejected, nil
}

func (t *tx) AssignShiftWorker(ctx context.Context, shiftID, workerID uuid.UUID) error {
	if err := t.hook("AssignShiftWorker"); err != nil {
		return err
	}
	shift, ok := t.store.state.shifts[shiftID]
	if !ok {
		return sql.ErrNoRows
	}
	shift.WorkerID = &workerID
	shift.Status = domain.ShiftStatusActive
	t.store.state.shifts[shiftID] = shift
	return nil
}

func (t *tx) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	if err := t.hook("UpdateShift"); err != nil {
		return err
	}
	existing, ok := t.store.state.shifts[shift.ID]
	if !ok {
		return sql.ErrNoRows
	}
	updated := bare(shift)
	updated.ManagerID = existing.ManagerID
	updated.CreatedAt = existing.CreatedAt
	t.store.state.shifts[shift.ID] = updated
	return nil
}
