package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	worker := f.register(t, "anna", domain.RoleEmployee)
	workerID := worker.ID.String()

	base := CreateShiftInput{
		Business:  "Café Linnea",
		RoleName:  "Barista",
		Date:      "2026-02-14",
		StartTime: "18:00",
		EndTime:   "02:00",
	}

	t.Run("defaults to ACTIVE", func(t *testing.T) {
		in := base
		in.WorkerID = &workerID
		in.Pay = strPtr("")

		shift, err := f.svc.CreateShift(ctx, boss, in)
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftStatusActive, shift.Status)
		assert.Equal(t, "2026-02-14", shift.Date.String())
		assert.Nil(t, shift.Pay)
		require.NotNil(t, shift.Worker)
		assert.Equal(t, "anna", shift.Worker.Username)
		assert.Equal(t, "boss", shift.Manager.Username)
	})

	t.Run("OPEN never keeps a worker", func(t *testing.T) {
		in := base
		in.Status = "OPEN"
		in.WorkerID = &workerID

		shift, err := f.svc.CreateShift(ctx, boss, in)
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftStatusOpen, shift.Status)
		assert.Nil(t, shift.WorkerID)
	})

	t.Run("unknown status means ACTIVE", func(t *testing.T) {
		in := base
		in.Status = "open"

		shift, err := f.svc.CreateShift(ctx, boss, in)
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftStatusActive, shift.Status)
	})

	t.Run("times are stored zero-padded", func(t *testing.T) {
		late := base
		late.Date = "2026-03-01"
		early := late
		early.StartTime = "9:00"
		early.EndTime = "17:00:00"

		_, err := f.svc.CreateShift(ctx, boss, late)
		require.NoError(t, err)
		shift, err := f.svc.CreateShift(ctx, boss, early)
		require.NoError(t, err)
		assert.Equal(t, "09:00", shift.StartTime)
		assert.Equal(t, "17:00", shift.EndTime)

		shifts, err := f.svc.ListManagerShifts(ctx, boss, "2026-03-01", "2026-03-01")
		require.NoError(t, err)
		require.Len(t, shifts, 2)
		assert.Equal(t, []string{"09:00", "18:00"}, []string{shifts[0].StartTime, shifts[1].StartTime})
	})

	invalid := []struct {
		name   string
		modify func(in *CreateShiftInput)
		msg    string
	}{
		{"date", func(in *CreateShiftInput) { in.Date = "14.02.2026" }, "Invalid date (expected YYYY-MM-DD)"},
		{"time", func(in *CreateShiftInput) { in.EndTime = "2am" }, "Invalid endTime (expected HH:MM)"},
		{"worker id", func(in *CreateShiftInput) { in.WorkerID = strPtr("42") }, "Invalid workerId"},
		{"unknown worker", func(in *CreateShiftInput) { in.WorkerID = strPtr(uuid.NewString()) }, "Worker not found"},
		{"boss as worker", func(in *CreateShiftInput) { in.WorkerID = strPtr(boss.ID.String()) }, "Only employees can be assigned to shifts"},
	}
	for _, tt := range invalid {
		t.Run("invalid "+tt.name, func(t *testing.T) {
			in := base
			tt.modify(&in)

			_, err := f.svc.CreateShift(ctx, boss, in)
			assertKind(t, err, domain.ErrInvalidArgument, tt.msg)
		})
	}
}

func TestListManagerShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	other := f.register(t, "other", domain.RoleBoss)
	worker := f.register(t, "anna", domain.RoleEmployee)

	feb13 := f.openShift(t, boss, "2026-02-13")
	feb14 := f.openShift(t, boss, "2026-02-14")
	feb15 := f.openShift(t, boss, "2026-02-15")
	f.openShift(t, other, "2026-02-14")

	app := f.apply(t, worker, feb14)

	all, err := f.svc.ListManagerShifts(ctx, boss, "", "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{feb13.ID, feb14.ID, feb15.ID}, shiftIDs(all))

	ranged, err := f.svc.ListManagerShifts(ctx, boss, "2026-02-14", "2026-02-14")
	require.NoError(t, err)
	require.Len(t, ranged, 1, "the to date is inclusive")
	assert.Equal(t, feb14.ID, ranged[0].ID)
	assert.Equal(t, []domain.ApplicationSummary{{ID: app.ID, Status: domain.ApplicationStatusPending}}, ranged[0].Applications)

	from, err := f.svc.ListManagerShifts(ctx, boss, "2026-02-14", "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{feb14.ID, feb15.ID}, shiftIDs(from))

	_, err = f.svc.ListManagerShifts(ctx, boss, "yesterday", "")
	assertKind(t, err, domain.ErrInvalidArgument, "Invalid date (expected YYYY-MM-DD)")
	_, err = f.svc.ListManagerShifts(ctx, boss, "", "2026-13-01")
	assertKind(t, err, domain.ErrInvalidArgument, "")
}

func TestListWorkerShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)

	create := func(date, status string, worker *domain.User) *domain.Shift {
		id := worker.ID.String()
		shift, err := f.svc.CreateShift(ctx, boss, CreateShiftInput{
			Business: "Lagerhuset", RoleName: "Warehouse", Date: date,
			StartTime: "07:00", EndTime: "15:00", Status: status, WorkerID: &id,
		})
		require.NoError(t, err)
		return shift
	}

	second := create("2026-02-15", "ACTIVE", anna)
	first := create("2026-02-14", "ACTIVE", anna)
	create("2026-02-16", "CANCELED", anna)
	create("2026-02-14", "ACTIVE", erik)

	shifts, err := f.svc.ListWorkerShifts(ctx, anna)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, shiftIDs(shifts))
	assert.Equal(t, "boss", shifts[0].Manager.Username)
}

func TestGetShiftAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	other := f.register(t, "other", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)

	annaID := anna.ID.String()
	shift, err := f.svc.CreateShift(ctx, boss, CreateShiftInput{
		Business: "Sushi Ya", RoleName: "Cook", Date: "2026-02-14",
		StartTime: "11:00", EndTime: "19:00", WorkerID: &annaID,
	})
	require.NoError(t, err)

	for _, u := range []*domain.User{boss, anna} {
		got, err := f.svc.GetShift(ctx, u, shift.ID.String())
		require.NoError(t, err, u.Username)
		assert.Equal(t, "anna", got.Worker.Username)
		assert.Equal(t, "boss", got.Manager.Username)
	}

	for _, u := range []*domain.User{other, erik} {
		_, err := f.svc.GetShift(ctx, u, shift.ID.String())
		assertKind(t, err, domain.ErrForbidden, "Forbidden")
	}

	_, err = f.svc.GetShift(ctx, boss, uuid.NewString())
	assertKind(t, err, domain.ErrNotFound, "Shift not found")
	_, err = f.svc.GetShift(ctx, boss, "not-a-uuid")
	assertKind(t, err, domain.ErrNotFound, "Shift not found")
}

func TestUpdateShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	other := f.register(t, "other", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)

	shift := f.openShift(t, boss, "2026-02-14")
	annaID := anna.ID.String()
	active := "ACTIVE"

	updated, err := f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{
		Business: strPtr("Hotell Strand"),
		Date:     strPtr("2026-02-20"),
		Status:   &active,
		WorkerID: domain.Some(annaID),
		Pay:      domain.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hotell Strand", updated.Business)
	assert.Equal(t, "Barista", updated.RoleName, "absent fields are kept")
	assert.Equal(t, "2026-02-20", updated.Date.String())
	assert.Equal(t, domain.ShiftStatusActive, updated.Status)
	assert.Nil(t, updated.Pay)
	require.NotNil(t, updated.Worker)
	assert.Equal(t, anna.ID, updated.Worker.ID)

	updated, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{StartTime: strPtr("7:30"), EndTime: strPtr("16:00:00")})
	require.NoError(t, err)
	assert.Equal(t, "07:30", updated.StartTime)
	assert.Equal(t, "16:00", updated.EndTime)
	assert.Equal(t, domain.ShiftStatusActive, updated.Status)

	// reopening drops the worker even when the patch names one
	open := "OPEN"
	updated, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Status: &open, WorkerID: domain.Some(annaID)})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusOpen, updated.Status)
	assert.Nil(t, updated.WorkerID)

	// a worker set on an OPEN shift is dropped too
	updated, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{WorkerID: domain.Some(annaID)})
	require.NoError(t, err)
	assert.Nil(t, updated.WorkerID)

	_, err = f.svc.UpdateShift(ctx, other, shift.ID.String(), UpdateShiftInput{Business: strPtr("x")})
	assertKind(t, err, domain.ErrForbidden, "Forbidden")

	_, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Status: strPtr("DONE")})
	assertKind(t, err, domain.ErrInvalidArgument, "Invalid status")
	_, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Date: strPtr("2026/02/14")})
	assertKind(t, err, domain.ErrInvalidArgument, "Invalid date (expected YYYY-MM-DD)")
	_, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{StartTime: strPtr("25:00")})
	assertKind(t, err, domain.ErrInvalidArgument, "Invalid startTime (expected HH:MM)")
	_, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Status: &active, WorkerID: domain.Some(other.ID.String())})
	assertKind(t, err, domain.ErrInvalidArgument, "Only employees can be assigned to shifts")
	_, err = f.svc.UpdateShift(ctx, boss, uuid.NewString(), UpdateShiftInput{})
	assertKind(t, err, domain.ErrNotFound, "Shift not found")

	got, err := f.svc.GetShift(ctx, boss, shift.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusOpen, got.Status, "failed updates leave the shift alone")
}

// assignOnFirstRead runs assign right after the first shift lookup, between the
// ownership check of an update and its transaction.
type assignOnFirstRead struct {
	*memstore.Store
	once   sync.Once
	assign func()
}

func (s *assignOnFirstRead) GetShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	shift, err := s.Store.GetShift(ctx, id)
	s.once.Do(s.assign)
	return shift, err
}

func TestUpdateShiftKeepsConcurrentAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)

	shift := f.openShift(t, boss, "2026-02-14")
	chosen := f.apply(t, anna, shift)
	f.apply(t, erik, shift)

	var assignErr error
	store := &assignOnFirstRead{
		Store: f.store,
		assign: func() {
			_, assignErr = f.svc.Assign(ctx, boss, shift.ID.String(), chosen.ID.String())
		},
	}
	svc := New(testConfig(), store, f.notifier)

	updated, err := svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Pay: domain.Some("200 kr/h")})
	require.NoError(t, err)
	require.NoError(t, assignErr)

	assert.Equal(t, domain.ShiftStatusActive, updated.Status)
	require.NotNil(t, updated.WorkerID)
	assert.Equal(t, anna.ID, *updated.WorkerID)
	assert.Equal(t, "200 kr/h", *updated.Pay)
	assert.Equal(t, map[string]domain.ApplicationStatus{
		"anna": domain.ApplicationStatusAccepted,
		"erik": domain.ApplicationStatusRejected,
	}, applicationStatuses(t, f, shift))
}

func TestUpdateShiftIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	shift := f.openShift(t, boss, "2026-02-14")

	boom := errors.New("boom")
	f.store.TxHook = func(op string) error {
		if op == "UpdateShift" {
			return boom
		}
		return nil
	}

	_, err := f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Business: strPtr("Hotell Strand")})
	assert.ErrorIs(t, err, boom)

	f.store.TxHook = nil
	got, err := f.svc.GetShift(ctx, boss, shift.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Café Linnea", got.Business)
}

func TestDeleteShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	other := f.register(t, "other", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)

	shift := f.openShift(t, boss, "2026-02-14")
	f.apply(t, anna, shift)

	err := f.svc.DeleteShift(ctx, other, shift.ID.String())
	assertKind(t, err, domain.ErrForbidden, "Forbidden")

	require.NoError(t, f.svc.DeleteShift(ctx, boss, shift.ID.String()))
	_, shifts, applications := f.store.Counts()
	assert.Zero(t, shifts)
	assert.Zero(t, applications, "applications go with their shift")

	err = f.svc.DeleteShift(ctx, boss, shift.ID.String())
	assertKind(t, err, domain.ErrNotFound, "Shift not found")
}

func shiftIDs(shifts []*domain.Shift) []uuid.UUID {
	ids := make([]uuid.UUID, len(shifts))
	for i, s := range shifts {
		ids[i] = s.ID
	}
	return ids
}
