package memory

import (
	"sync"

	"quizforge-session-service/internal/session"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Engine
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Engine),
	}
}

func (s *SessionStore) Put(eng *session.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[eng.ID()] = eng
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
}
