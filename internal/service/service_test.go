package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shiftly-dev/shiftly/backend/internal/config"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.MailMessage
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, msg domain.MailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) ofType(mailType string) []domain.MailMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	var msgs []domain.MailMessage
	for _, msg := range n.sent {
		if msg.Type == mailType {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.Email.AppURL = "http://localhost:5173"
	return cfg
}

type fixture struct {
	svc      *Service
	store    *memstore.Store
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	notifier := &fakeNotifier{}

	return &fixture{
		svc:      New(testConfig(), store, notifier),
		store:    store,
		notifier: notifier,
	}
}

func (f *fixture) register(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()

	user, _, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
		Role:     string(role),
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) openShift(t *testing.T, manager *domain.User, date string) *domain.Shift {
	t.Helper()

	pay := "180 kr/h"
	shift, err := f.svc.CreateShift(context.Background(), manager, CreateShiftInput{
		Business:  "Café Linnea",
		RoleName:  "Barista",
		Date:      date,
		StartTime: "18:00",
		EndTime:   "02:00",
		Pay:       &pay,
		Status:    string(domain.ShiftStatusOpen),
	})
	require.NoError(t, err)
	return shift
}

func (f *fixture) apply(t *testing.T, worker *domain.User, shift *domain.Shift) *domain.Application {
	t.Helper()

	app, err := f.svc.Apply(context.Background(), worker, shift.ID.String())
	require.NoError(t, err)
	return app
}

// assertKind checks that err is a domain error of the given kind and message.
func assertKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()

	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	if msg != "" {
		assert.EqualError(t, err, msg)
	}
}
