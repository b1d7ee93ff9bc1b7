package memory

import (
	"sync"

	"live-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Insert(code string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.sessions[code]; taken {
		return false
	}
	s.sessions[code] = session
	return true
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
}

// Range calls fn for each session until fn returns false. fn runs without
// the store lock held, so it may call back into the store.
func (s *SessionStore) Range(fn func(*app.Session) bool) {
	s.mu.RLock()
	sessions := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		if !fn(session) {
			return
		}
	}
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
