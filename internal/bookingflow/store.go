package bookingflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
)

// ErrSessionNotFound means the session never existed or expired.
var ErrSessionNotFound = errors.New("bookingflow: session not found")

const sessionKeyPrefix = "bookingsession:"

// SessionStore persists sessions between customer interactions.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions as JSON under a TTL so abandoned
// flows expire on their own.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore wraps an existing redis client.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		panic("bookingflow: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Save stores the session and refreshes its TTL.
func (s *RedisSessionStore) Save(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return &schedule.FatalError{Reason: "bookingflow: encode session: " + err.Error()}
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return &schedule.TransientError{Op: "bookingflow: save session", Err: err}
	}
	return nil
}

// Load fetches one session.
func (s *RedisSessionStore) Load(ctx context.Context, id string) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, &schedule.TransientError{Op: "bookingflow: load session", Err: err}
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, &schedule.TransientError{Op: "bookingflow: decode session", Err: err}
	}
	return &sess, nil
}

// Delete removes the session outright.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return &schedule.TransientError{Op: "bookingflow: delete session", Err: err}
	}
	return nil
}

// MemorySessionStore is a mutex-guarded SessionStore for tests and
// single-instance deploys.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
