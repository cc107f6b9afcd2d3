package twofactor_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/datumlabs/totpgate/svc/twofactor"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetProfile(ctx context.Context, identityID string) (*twofactor.Profile, error) {
	args := m.Called(ctx, identityID)
	p, _ := args.Get(0).(*twofactor.Profile)
	return p, args.Error(1)
}

func (m *mockStore) GetProfileByEmail(ctx context.Context, email string) (*twofactor.Profile, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*twofactor.Profile)
	return p, args.Error(1)
}

func (m *mockStore) EnsureProfile(ctx context.Context, id twofactor.Identity, trial bool, now time.Time) (*twofactor.Profile, error) {
	args := m.Called(ctx, id, trial, now)
	p, _ := args.Get(0).(*twofactor.Profile)
	return p, args.Error(1)
}

func (m *mockStore) UpsertPendingSetup(ctx context.Context, p twofactor.PendingSetup) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) GetPendingSetup(ctx context.Context, identityID string) (*twofactor.PendingSetup, error) {
	args := m.Called(ctx, identityID)
	p, _ := args.Get(0).(*twofactor.PendingSetup)
	return p, args.Error(1)
}

func (m *mockStore) DeletePendingSetup(ctx context.Context, identityID string) error {
	return m.Called(ctx, identityID).Error(0)
}

func (m *mockStore) PromotePendingSetup(ctx context.Context, p twofactor.Promotion, now time.Time) (*twofactor.Profile, error) {
	args := m.Called(ctx, p, now)
	pr, _ := args.Get(0).(*twofactor.Profile)
	return pr, args.Error(1)
}

func (m *mockStore) ResetTrial(ctx context.Context, identityID string, start, end, now time.Time) (*twofactor.Profile, error) {
	args := m.Called(ctx, identityID, start, end, now)
	p, _ := args.Get(0).(*twofactor.Profile)
	return p, args.Error(1)
}

func (m *mockStore) DeleteExpiredPendingSetups(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) TwoFactorEnabled(ctx context.Context, to string, trialEnds time.Time) {
	m.Called(ctx, to, trialEnds)
}

func (m *mockNotifier) TrialReset(ctx context.Context, to string, trialEnds time.Time) {
	m.Called(ctx, to, trialEnds)
}
