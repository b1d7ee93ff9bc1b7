package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

type creditKey struct {
	sessionID     string
	participantID string
}

// Persistence is an in-process app.PersistenceBridge. A repeated credit for
// the same session and participant is accepted and ignored.
type Persistence struct {
	mu        sync.Mutex
	credits   map[creditKey]domain.PointCredit
	balances  map[string]int
	summaries map[string]domain.SessionSummary
}

func NewPersistence() *Persistence {
	return &Persistence{
		credits:   make(map[creditKey]domain.PointCredit),
		balances:  make(map[string]int),
		summaries: make(map[string]domain.SessionSummary),
	}
}

func (p *Persistence) CreditPoints(_ context.Context, credit domain.PointCredit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := creditKey{sessionID: credit.SessionID, participantID: credit.ParticipantID}
	if _, done := p.credits[key]; done {
		return nil
	}
	p.credits[key] = credit
	if !credit.Guest && credit.Points > 0 {
		p.balances[credit.ParticipantID] += credit.Points
	}
	return nil
}

func (p *Persistence) RecordSessionSummary(_ context.Context, summary domain.SessionSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries[summary.SessionID] = summary
	return nil
}

// Balance returns the points credited to an authenticated user.
func (p *Persistence) Balance(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[userID]
}

// Credits returns the credits recorded for a session.
func (p *Persistence) Credits(sessionID string) []domain.PointCredit {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.PointCredit
	for key, credit := range p.credits {
		if key.sessionID == sessionID {
			out = append(out, credit)
		}
	}
	return out
}

// Summary returns the recorded summary of a session.
func (p *Persistence) Summary(sessionID string) (domain.SessionSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	summary, ok := p.summaries[sessionID]
	return summary, ok
}
