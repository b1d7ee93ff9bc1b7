package app

import (
	"fmt"
	"log"
	"math/rand"

	"live-quiz-service/internal/common/clock"
	"live-quiz-service/internal/common/uuid"
	"live-quiz-service/internal/domain"
)

// SessionRepository stores live sessions by join code. Insert must be atomic:
// it reports false, without replacing anything, when the code is taken.
type SessionRepository interface {
	Insert(code string, session *Session) bool
	Get(code string) (*Session, bool)
	Remove(code string)
	Range(fn func(*Session) bool)
}

// CodeGenerator proposes candidate join codes.
type CodeGenerator func() string

// RandomCode draws a uniformly random code in [MinCode, MaxCode].
func RandomCode() string {
	return fmt.Sprintf("%06d", domain.MinCode+rand.Intn(domain.MaxCode-domain.MinCode+1))
}

const defaultCodeAttempts = 64

// Registry issues join codes and keeps the code -> Session mapping.
type Registry struct {
	store    SessionRepository
	codes    CodeGenerator
	ids      uuid.UUID
	clock    clock.Clock
	buffer   int
	topN     int
	attempts int
}

func NewRegistry(store SessionRepository, codes CodeGenerator, ids uuid.UUID, c clock.Clock, buffer, topN int) *Registry {
	if codes == nil {
		codes = RandomCode
	}
	return &Registry{
		store:    store,
		codes:    codes,
		ids:      ids,
		clock:    c,
		buffer:   buffer,
		topN:     topN,
		attempts: defaultCodeAttempts,
	}
}

// Create builds a Waiting session for an already validated quiz snapshot and
// reserves a code for it. Collisions with live sessions are retried and never
// reach the caller unless the code space is exhausted.
func (r *Registry) Create(quiz domain.Quiz, hostOwnerID string, simplified bool) (*Session, error) {
	id := r.ids.NewUUID()
	now := r.clock.Now()
	for attempt := 0; attempt < r.attempts; attempt++ {
		code := r.codes()
		if !domain.ValidCode(code) {
			continue
		}
		session := newSession(sessionConfig{
			id:          id,
			code:        code,
			quiz:        quiz,
			hostOwnerID: hostOwnerID,
			simplified:  simplified,
			now:         now,
			buffer:      r.buffer,
			topN:        r.topN,
		})
		if r.store.Insert(code, session) {
			return session, nil
		}
		log.Printf("[Registry] code %s in use, retrying", code)
	}
	return nil, domain.ErrCodeSpaceExhausted
}

// Lookup resolves a code to its live session.
func (r *Registry) Lookup(code string) (*Session, error) {
	if !domain.ValidCode(code) {
		return nil, domain.ErrInvalidCode
	}
	session, ok := r.store.Get(code)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Remove evicts a session; removing an unknown code is a no-op.
func (r *Registry) Remove(code string) {
	r.store.Remove(code)
}

// Sessions returns the live sessions at the time of the call.
func (r *Registry) Sessions() []*Session {
	var out []*Session
	r.store.Range(func(s *Session) bool {
		out = append(out, s)
		return true
	})
	return out
}
