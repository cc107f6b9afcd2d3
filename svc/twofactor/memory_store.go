package twofactor

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a Store kept in process memory, for tests and single-node
// development.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
	pending  map[string]PendingSetup
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		pending:  make(map[string]PendingSetup),
	}
}

// GetProfile returns a copy of the profile or ErrProfileNotFound.
func (m *MemoryStore) GetProfile(_ context.Context, identityID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[identityID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

// GetProfileByEmail matches email case-insensitively.
func (m *MemoryStore) GetProfileByEmail(_ context.Context, email string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, ErrProfileNotFound
}

// EnsureProfile creates the profile on first use and fills in a missing email.
func (m *MemoryStore) EnsureProfile(_ context.Context, id Identity, trial bool, now time.Time) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id.ID]
	switch {
	case !ok:
		p = Profile{
			IdentityID:  id.ID,
			Email:       id.Email,
			IsTrialUser: trial,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		m.profiles[id.ID] = p
	case p.Email == "" && id.Email != "":
		p.Email = id.Email
		p.UpdatedAt = now
		m.profiles[id.ID] = p
	}
	return &p, nil
}

// UpsertPendingSetup replaces any earlier pending setup for the identity.
func (m *MemoryStore) UpsertPendingSetup(_ context.Context, p PendingSetup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[p.IdentityID] = p
	return nil
}

// GetPendingSetup returns ErrSetupNotFound when there is none.
func (m *MemoryStore) GetPendingSetup(_ context.Context, identityID string) (*PendingSetup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[identityID]
	if !ok {
		return nil, ErrSetupNotFound
	}
	return &p, nil
}

// DeletePendingSetup is a no-op when nothing is pending.
func (m *MemoryStore) DeletePendingSetup(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, identityID)
	return nil
}

// PromotePendingSetup enables the profile and drops the pending record.
// It returns ErrAlreadyEnabled when the profile was enabled first.
func (m *MemoryStore) PromotePendingSetup(_ context.Context, pr Promotion, now time.Time) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[pr.IdentityID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if p.TOTPEnabled {
		delete(m.pending, pr.IdentityID)
		return nil, ErrAlreadyEnabled
	}
	if pr.EncryptedSecret == "" || pr.TrialExpiration.Before(pr.TrialStart) {
		return nil, ErrConstraint
	}
	delete(m.pending, pr.IdentityID)

	p.EncryptedSecret = pr.EncryptedSecret
	p.TOTPEnabled = true
	p.TrialStart = pr.TrialStart
	p.TrialExpiration = pr.TrialExpiration
	p.UpdatedAt = now
	m.profiles[pr.IdentityID] = p
	return &p, nil
}

// ResetTrial marks the profile as a trial user running from start to end.
func (m *MemoryStore) ResetTrial(_ context.Context, identityID string, start, end, now time.Time) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[identityID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if end.Before(start) {
		return nil, ErrConstraint
	}
	p.IsTrialUser = true
	p.TrialStart = start
	p.TrialExpiration = end
	p.UpdatedAt = now
	m.profiles[identityID] = p
	return &p, nil
}

// DeleteExpiredPendingSetups removes setups expired at now and reports how
// many were removed.
func (m *MemoryStore) DeleteExpiredPendingSetups(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, p := range m.pending {
		if p.Expired(now) {
			delete(m.pending, id)
			n++
		}
	}
	return n, nil
}
