package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizforge-session-service/internal/session"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Engines stay in a local in-memory map; a session's countdown and
//     subscriber channels cannot cross processes.
//   - Redis marks session liveness so operators can see active sessions
//     across instances (and it could back cross-instance routing later).
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*session.Engine
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*session.Engine),
	}
}

func (s *SessionStore) Put(eng *session.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[eng.ID()] = eng
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(eng.ID()), "1", s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*session.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eng, ok := s.sessions[id]
	return eng, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
