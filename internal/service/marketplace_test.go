package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applicationStatuses maps applicant usernames to their application status.
func applicationStatuses(t *testing.T, f *fixture, shift *domain.Shift) map[string]domain.ApplicationStatus {
	t.Helper()

	apps, err := f.store.ListApplicationsByShift(context.Background(), shift.ID)
	require.NoError(t, err)

	statuses := make(map[string]domain.ApplicationStatus, len(apps))
	for _, app := range apps {
		statuses[app.User.Username] = app.Status
	}
	return statuses
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	shift := f.openShift(t, boss, "2026-02-14")

	first := f.apply(t, anna, shift)
	second := f.apply(t, anna, shift)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.ApplicationStatusPending, second.Status)

	_, _, applications := f.store.Counts()
	assert.Equal(t, 1, applications)
}

func TestApplyRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	shift := f.openShift(t, boss, "2026-02-14")

	active := "ACTIVE"
	_, err := f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Status: &active})
	require.NoError(t, err)

	_, err = f.svc.Apply(ctx, anna, shift.ID.String())
	assertKind(t, err, domain.ErrInvalidState, "Shift is not open")

	_, err = f.svc.Apply(ctx, boss, shift.ID.String())
	assertKind(t, err, domain.ErrForbidden, "Only employees can apply")

	_, err = f.svc.Apply(ctx, anna, uuid.NewString())
	assertKind(t, err, domain.ErrNotFound, "Shift not found")

	_, _, applications := f.store.Counts()
	assert.Zero(t, applications)
}

func TestListOpenShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)

	later := f.openShift(t, boss, "2026-02-15")
	sooner := f.openShift(t, boss, "2026-02-14")
	app := f.apply(t, anna, later)
	f.apply(t, erik, sooner)

	shifts, err := f.svc.ListOpenShifts(ctx, anna)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{sooner.ID, later.ID}, shiftIDs(shifts))

	assert.Empty(t, shifts[0].Applications, "other people's applications are not shown")
	assert.Equal(t, []domain.ApplicationSummary{{ID: app.ID, Status: domain.ApplicationStatusPending}}, shifts[1].Applications)
	assert.Equal(t, "boss", shifts[1].Manager.Username)
}

func TestListApplicants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	other := f.register(t, "other", domain.RoleBoss)
	shift := f.openShift(t, boss, "2026-02-14")

	var want []string
	for _, name := range []string{"erik", "anna", "maja"} {
		f.apply(t, f.register(t, name, domain.RoleEmployee), shift)
		want = append(want, name)
	}

	applicants, err := f.svc.ListApplicants(ctx, boss, shift.ID.String())
	require.NoError(t, err)

	var got []string
	for _, app := range applicants {
		got = append(got, app.User.Username)
	}
	assert.Equal(t, want, got, "ordered by application time")

	_, err = f.svc.ListApplicants(ctx, other, shift.ID.String())
	assertKind(t, err, domain.ErrForbidden, "Forbidden")
}

func TestAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)
	maja := f.register(t, "maja", domain.RoleEmployee)

	shift := f.openShift(t, boss, "2026-02-14")
	f.apply(t, anna, shift)
	chosen := f.apply(t, erik, shift)
	f.apply(t, maja, shift)

	assignment, err := f.svc.Assign(ctx, boss, shift.ID.String(), chosen.ID.String())
	require.NoError(t, err)

	assert.Equal(t, chosen.ID, assignment.Accepted.ID)
	assert.Equal(t, domain.ApplicationStatusAccepted, assignment.Accepted.Status)
	assert.Equal(t, domain.ShiftStatusActive, assignment.Shift.Status)
	require.NotNil(t, assignment.Shift.WorkerID)
	assert.Equal(t, erik.ID, *assignment.Shift.WorkerID)
	assert.Equal(t, "erik", assignment.Shift.Worker.Username)

	want := map[string]domain.ApplicationStatus{
		"anna": domain.ApplicationStatusRejected,
		"erik": domain.ApplicationStatusAccepted,
		"maja": domain.ApplicationStatusRejected,
	}
	if diff := cmp.Diff(want, applicationStatuses(t, f, shift)); diff != "" {
		t.Errorf("application statuses mismatch (-want +got):\n%s", diff)
	}

	accepted := f.notifier.ofType(domain.MailTypeApplicationAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, "erik@example.com", accepted[0].To)
	assert.Equal(t, "Café Linnea", accepted[0].Data.(domain.ApplicationResultMailData).Business)

	var rejected []string
	for _, msg := range f.notifier.ofType(domain.MailTypeApplicationRejected) {
		rejected = append(rejected, msg.To)
	}
	assert.ElementsMatch(t, []string{"anna@example.com", "maja@example.com"}, rejected)

	// the worker now sees the shift
	mine, err := f.svc.ListWorkerShifts(ctx, erik)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{shift.ID}, shiftIDs(mine))

	// and it has left the marketplace
	open, err := f.svc.ListOpenShifts(ctx, anna)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestAssignRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	other := f.register(t, "other", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)

	shift := f.openShift(t, boss, "2026-02-14")
	elsewhere := f.openShift(t, boss, "2026-02-15")
	app := f.apply(t, anna, shift)
	foreign := f.apply(t, anna, elsewhere)
	late := f.apply(t, erik, shift)

	_, err := f.svc.Assign(ctx, boss, shift.ID.String(), "")
	assertKind(t, err, domain.ErrInvalidArgument, "applicationId required")

	_, err = f.svc.Assign(ctx, other, shift.ID.String(), app.ID.String())
	assertKind(t, err, domain.ErrForbidden, "Forbidden")

	_, err = f.svc.Assign(ctx, boss, uuid.NewString(), app.ID.String())
	assertKind(t, err, domain.ErrNotFound, "Shift not found")

	for _, id := range []string{foreign.ID.String(), uuid.NewString(), "nope"} {
		_, err = f.svc.Assign(ctx, boss, shift.ID.String(), id)
		assertKind(t, err, domain.ErrNotFound, "Application not found for this shift")
	}

	_, err = f.svc.Assign(ctx, boss, shift.ID.String(), app.ID.String())
	require.NoError(t, err)

	// an ACTIVE shift cannot be assigned again
	_, err = f.svc.Assign(ctx, boss, shift.ID.String(), late.ID.String())
	assertKind(t, err, domain.ErrInvalidState, "Shift is not open")

	want := map[string]domain.ApplicationStatus{
		"anna": domain.ApplicationStatusAccepted,
		"erik": domain.ApplicationStatusRejected,
	}
	if diff := cmp.Diff(want, applicationStatuses(t, f, shift)); diff != "" {
		t.Errorf("application statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignIsAtomic(t *testing.T) {
	for _, op := range []string{"AcceptApplication", "RejectPendingApplications", "AssignShiftWorker"} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			boss := f.register(t, "boss", domain.RoleBoss)
			anna := f.register(t, "anna", domain.RoleEmployee)
			erik := f.register(t, "erik", domain.RoleEmployee)

			shift := f.openShift(t, boss, "2026-02-14")
			app := f.apply(t, anna, shift)
			f.apply(t, erik, shift)

			before := applicationStatuses(t, f, shift)

			boom := errors.New("injected failure")
			f.store.TxHook = func(name string) error {
				if name == op {
					return boom
				}
				return nil
			}

			_, err := f.svc.Assign(ctx, boss, shift.ID.String(), app.ID.String())
			require.ErrorIs(t, err, boom)

			f.store.TxHook = nil
			if diff := cmp.Diff(before, applicationStatuses(t, f, shift)); diff != "" {
				t.Errorf("applications changed (-before +after):\n%s", diff)
			}

			got, err := f.svc.GetShift(ctx, boss, shift.ID.String())
			require.NoError(t, err)
			assert.Equal(t, domain.ShiftStatusOpen, got.Status)
			assert.Nil(t, got.WorkerID)

			assert.Empty(t, f.notifier.ofType(domain.MailTypeApplicationAccepted))
			assert.Empty(t, f.notifier.ofType(domain.MailTypeApplicationRejected))
		})
	}
}

func TestConcurrentAssignHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	shift := f.openShift(t, boss, "2026-02-14")

	var apps []*domain.Application
	for _, name := range []string{"anna", "erik", "maja", "nils"} {
		apps = append(apps, f.apply(t, f.register(t, name, domain.RoleEmployee), shift))
	}

	errs := make([]error, len(apps))
	var wg sync.WaitGroup
	for i, app := range apps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Assign(ctx, boss, shift.ID.String(), app.ID.String())
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}
	assert.Equal(t, 1, winners)

	accepted := 0
	for _, status := range applicationStatuses(t, f, shift) {
		if status == domain.ApplicationStatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestReapplyAfterRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)

	shift := f.openShift(t, boss, "2026-02-14")
	rejected := f.apply(t, anna, shift)
	chosen := f.apply(t, erik, shift)

	_, err := f.svc.Assign(ctx, boss, shift.ID.String(), chosen.ID.String())
	require.NoError(t, err)

	// the boss reopens the shift and anna tries again
	open := "OPEN"
	_, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Status: &open})
	require.NoError(t, err)

	again := f.apply(t, anna, shift)
	assert.Equal(t, rejected.ID, again.ID)
	assert.Equal(t, domain.ApplicationStatusPending, again.Status)
}

func TestAssignAfterReopenKeepsEarlierRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "boss", domain.RoleBoss)
	anna := f.register(t, "anna", domain.RoleEmployee)
	erik := f.register(t, "erik", domain.RoleEmployee)
	maja := f.register(t, "maja", domain.RoleEmployee)

	shift := f.openShift(t, boss, "2026-02-14")
	first := f.apply(t, anna, shift)
	f.apply(t, erik, shift)

	_, err := f.svc.Assign(ctx, boss, shift.ID.String(), first.ID.String())
	require.NoError(t, err)

	open := "OPEN"
	_, err = f.svc.UpdateShift(ctx, boss, shift.ID.String(), UpdateShiftInput{Status: &open})
	require.NoError(t, err)

	second := f.apply(t, maja, shift)
	assignment, err := f.svc.Assign(ctx, boss, shift.ID.String(), second.ID.String())
	require.NoError(t, err)
	assert.Empty(t, assignment.Rejected, "earlier rounds are not rejected again")
	require.NotNil(t, assignment.Shift.WorkerID)
	assert.Equal(t, maja.ID, *assignment.Shift.WorkerID)

	assert.Equal(t, map[string]domain.ApplicationStatus{
		"anna": domain.ApplicationStatusAccepted,
		"erik": domain.ApplicationStatusRejected,
		"maja": domain.ApplicationStatusAccepted,
	}, applicationStatuses(t, f, shift))
}
