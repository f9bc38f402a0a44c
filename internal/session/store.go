// Package session owns the bearer credential used to authorise backend ledger
// calls. The credential is written at login and cleared at logout or when the
// backend rejects it; every outbound call reads it fresh so rotation between
// calls is observed. Callers other than the login/logout flows treat the store
// as read-only.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store provides access to the per-session bearer credential.
type Store interface {
	// Token returns the bearer credential for the session, or "" when absent.
	Token(ctx context.Context, sessionID string) (string, error)
	// Init records the credential for a session, replacing any previous value.
	Init(ctx context.Context, sessionID, token string) error
	// Clear discards the credential for a session. Clearing an absent session
	// is not an error.
	Clear(ctx context.Context, sessionID string) error
}

// RedisStore keeps session credentials in Redis so multiple instances share
// one view of who is logged in.
type RedisStore struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s RedisStore) key(sessionID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "session:token:"
	}
	return prefix + sessionID
}

// Token implements Store.
func (s RedisStore) Token(ctx context.Context, sessionID string) (string, error) {
	if s.R == nil {
		return "", errors.New("session: redis client not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", nil
	}
	value, err := s.R.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Init implements Store.
func (s RedisStore) Init(ctx context.Context, sessionID, token string) error {
	if s.R == nil {
		return errors.New("session: redis client not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session: session id is required")
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return s.R.Set(ctx, s.key(sessionID), token, ttl).Err()
}

// Clear implements Store.
func (s RedisStore) Clear(ctx context.Context, sessionID string) error {
	if s.R == nil {
		return errors.New("session: redis client not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return s.R.Del(ctx, s.key(sessionID)).Err()
}

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: map[string]string{}}
}

// Token implements Store.
func (s *MemoryStore) Token(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[sessionID], nil
}

// Init implements Store.
func (s *MemoryStore) Init(_ context.Context, sessionID, token string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session: session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}
