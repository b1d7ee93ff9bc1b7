package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
)

// releaseScript deletes a code reservation only if this session still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves live in this process; Redis holds one liveness key per
// join code, reserved with SETNX, so two instances sharing a Redis never hand
// out the same code.
type SessionStore struct {
	client    *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
	mu        sync.RWMutex
	sessions  map[string]*app.Session
}

// defaultOpTimeout bounds each reservation round trip.
const defaultOpTimeout = 2 * time.Second

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:    client,
		ttl:       ttl,
		opTimeout: defaultOpTimeout,
		sessions:  make(map[string]*app.Session),
	}
}

// Insert reserves the code in Redis before touching the local map, so Redis
// round trips never hold the lock that every lookup goes through.
func (s *SessionStore) Insert(code string, session *app.Session) bool {
	if _, taken := s.Get(code); taken {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	reserved, err := s.client.SetNX(ctx, s.key(code), session.ID(), s.ttl).Result()
	cancel()
	if err != nil {
		// Redis is down: keep serving from this instance alone.
		log.Printf("[Registry] redis reservation for %s failed, using local registry only: %v", code, err)
		reserved = true
	}
	if !reserved {
		return false
	}

	s.mu.Lock()
	_, taken := s.sessions[code]
	if !taken {
		s.sessions[code] = session
	}
	s.mu.Unlock()

	if taken {
		// Lost a local race after reserving; give the reservation back.
		s.release(code, session.ID())
		return false
	}
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
	session, ok := s.sessions[code]
	delete(s.sessions, code)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.release(code, session.ID())
}

// release deletes the reservation only if sessionID still owns it.
func (s *SessionStore) release(code, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, s.client, []string{s.key(code)}, sessionID).Err(); err != nil {
		log.Printf("[Registry] release of code %s failed: %v", code, err)
	}
}

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

// KeepAlive extends the reservation of every live code by the store TTL.
func (s *SessionStore) KeepAlive(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	s.mu.RLock()
	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	s.mu.RUnlock()
	if len(codes) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, code := range codes {
		pipe.Expire(ctx, s.key(code), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RunKeepAlive refreshes reservations on every tick until ctx is done.
func (s *SessionStore) RunKeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.KeepAlive(ctx); err != nil {
				log.Printf("[Registry] refreshing code reservations: %v", err)
			}
		}
	}
}

func (s *SessionStore) key(code string) string {
	return "quiz:session:" + code
}
