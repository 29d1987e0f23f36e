package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Keys used in the local key/value store
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// KV is a string key/value store, the "local storage" half of a session.
// Get reports a missing key with found=false and a nil error.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// storedUser is the JSON shape of the "user" entry
type storedUser struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// LocalBackend keeps the token and a serialized user object in a KV.
type LocalBackend struct {
	kv KV
}

// NewLocalBackend creates a backend over kv
func NewLocalBackend(kv KV) *LocalBackend {
	return &LocalBackend{kv: kv}
}

// Load implements Backend
func (b *LocalBackend) Load(ctx context.Context) (*Session, error) {
	token, err := b.Token(ctx)
	if err != nil {
		return nil, err
	}

	raw, found, err := b.kv.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: token without user", ErrNoSession)
	}

	var u storedUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: malformed user entry: %v", ErrNoSession, err)
	}

	role, ok := ParseRole(u.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrNoSession, u.Role)
	}

	return &Session{
		Token:  token,
		Role:   role,
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
	}, nil
}

// Save implements Backend
func (b *LocalBackend) Save(ctx context.Context, s Session) error {
	data, err := json.Marshal(storedUser{
		ID:    s.UserID,
		Role:  string(s.Role),
		Name:  s.Name,
		Email: s.Email,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := b.kv.Set(ctx, KeyToken, s.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := b.kv.Set(ctx, KeyUser, string(data)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// Clear implements Backend
func (b *LocalBackend) Clear(ctx context.Context) error {
	return errors.Join(
		b.kv.Delete(ctx, KeyToken),
		b.kv.Delete(ctx, KeyUser),
	)
}

// Token implements Backend
func (b *LocalBackend) Token(ctx context.Context) (string, error) {
	token, found, err := b.kv.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if !found || token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// memorySweepInterval bounds how often Set scans for expired entries
const memorySweepInterval = time.Minute

type memoryEntry struct {
	value   string
	expires time.Time // zero means never
}

// MemoryKV is an in-process KV. Safe for concurrent use. With a TTL, entries
// expire that long after they were written; expired entries read as missing
// and are swept out on later writes.
type MemoryKV struct {
	mu        sync.RWMutex
	data      map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// MemoryOption configures a MemoryKV
type MemoryOption func(*MemoryKV)

// WithEntryTTL expires every entry ttl after it was set
func WithEntryTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryKV) {
		m.ttl = ttl
	}
}

// WithMemoryClock overrides time.Now, for tests
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryKV) {
		m.now = now
	}
}

// NewMemoryKV creates an empty MemoryKV. Without WithEntryTTL entries never
// expire.
func NewMemoryKV(opts ...MemoryOption) *MemoryKV {
	m := &MemoryKV{data: make(map[string]memoryEntry), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.now()
	return m
}

func (e memoryEntry) expiredAt(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Get implements KV
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	if e.expiredAt(m.now()) {
		m.mu.Lock()
		// Recheck under the write lock, a concurrent Set may have refreshed it
		if cur, ok := m.data[key]; ok && cur.expiredAt(m.now()) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

// Set implements KV
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
		if now.Sub(m.lastSweep) >= memorySweepInterval {
			m.sweepLocked(now)
		}
	}
	m.data[key] = e
	return nil
}

func (m *MemoryKV) sweepLocked(now time.Time) {
	for k, e := range m.data {
		if e.expiredAt(now) {
			delete(m.data, k)
		}
	}
	m.lastSweep = now
}

// Delete implements KV
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys, including expired ones not yet
// swept
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

type prefixedKV struct {
	kv     KV
	prefix string
}

// Prefixed scopes every key of kv under prefix. The web front end uses it to
// give each browser its own slice of a shared store.
func Prefixed(kv KV, prefix string) KV {
	return &prefixedKV{kv: kv, prefix: prefix}
}

func (p *prefixedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p *prefixedKV) Set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p *prefixedKV) Delete(ctx context.Context, key string) error {
	return p.kv.Delete(ctx, p.prefix+key)
}
