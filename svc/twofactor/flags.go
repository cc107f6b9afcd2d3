package twofactor

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultFlagPrefix namespaces RedisSessionFlags keys.
const DefaultFlagPrefix = "totp:verified:"

func flagKey(prefix, sessionID, identityID string) string {
	return prefix + sessionID + ":" + identityID
}

// MemorySessionFlags keeps flags in process memory. Expired entries are
// dropped lazily on lookup and on each Set.
type MemorySessionFlags struct {
	mu    sync.Mutex
	flags map[string]time.Time
	now   func() time.Time
}

// MemoryFlagsOption configures MemorySessionFlags.
type MemoryFlagsOption func(*MemorySessionFlags)

// WithFlagClock overrides the time source used for expiry.
func WithFlagClock(now func() time.Time) MemoryFlagsOption {
	return func(m *MemorySessionFlags) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemorySessionFlags returns an empty flag set using the wall clock
// unless WithFlagClock is given.
func NewMemorySessionFlags(opts ...MemoryFlagsOption) *MemorySessionFlags {
	m := &MemorySessionFlags{flags: make(map[string]time.Time), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set marks the session verified for ttl.
func (m *MemorySessionFlags) Set(_ context.Context, sessionID, identityID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.flags {
		if !exp.After(now) {
			delete(m.flags, k)
		}
	}
	m.flags[flagKey("", sessionID, identityID)] = now.Add(ttl)
	return nil
}

// IsSet reports whether an unexpired flag exists.
func (m *MemorySessionFlags) IsSet(_ context.Context, sessionID, identityID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := flagKey("", sessionID, identityID)
	exp, ok := m.flags[key]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.flags, key)
		return false, nil
	}
	return true, nil
}

// Clear removes the flag, if any.
func (m *MemorySessionFlags) Clear(_ context.Context, sessionID, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.flags, flagKey("", sessionID, identityID))
	return nil
}

// RedisSessionFlags stores flags as expiring Redis keys, shared by all
// service replicas.
type RedisSessionFlags struct {
	client redis.Cmdable
	prefix string
}

// NewRedisSessionFlags uses DefaultFlagPrefix when prefix is empty.
func NewRedisSessionFlags(client redis.Cmdable, prefix string) *RedisSessionFlags {
	if prefix == "" {
		prefix = DefaultFlagPrefix
	}
	return &RedisSessionFlags{client: client, prefix: prefix}
}

// Set writes the flag key with ttl as its expiry.
func (r *RedisSessionFlags) Set(ctx context.Context, sessionID, identityID string, ttl time.Duration) error {
	return r.client.Set(ctx, flagKey(r.prefix, sessionID, identityID), "1", ttl).Err()
}

// IsSet reports whether the flag key exists. Redis expires it.
func (r *RedisSessionFlags) IsSet(ctx context.Context, sessionID, identityID string) (bool, error) {
	n, err := r.client.Exists(ctx, flagKey(r.prefix, sessionID, identityID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Clear deletes the flag key.
func (r *RedisSessionFlags) Clear(ctx context.Context, sessionID, identityID string) error {
	return r.client.Del(ctx, flagKey(r.prefix, sessionID, identityID)).Err()
}
