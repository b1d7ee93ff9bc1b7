package app

import (
	"context"
	"log"
	"time"

	"live-quiz-service/internal/domain"
)

// SweepIdle ends every live session without activity for the idle timeout
// and returns how many it evicted. A zero timeout disables sweeping.
func (svc *QuizService) SweepIdle(ctx context.Context) int {
	if svc.opts.IdleTimeout <= 0 {
		return 0
	}
	evicted := 0
	for _, session := range svc.registry.Sessions() {
		now := svc.clock.Now()
		session.mu.Lock()
		if session.phase == domain.PhaseFinished || now.Sub(session.lastActivity) < svc.opts.IdleTimeout {
			session.mu.Unlock()
			continue
		}
		idleSince := session.lastActivity
		summary, credits := svc.finishLocked(session, now)
		session.mu.Unlock()

		log.Printf("[Sweeper] room %s idle since %s, ending", session.code, idleSince.Format(time.RFC3339))
		svc.persistAndEvict(ctx, session, summary, credits)
		evicted++
	}
	return evicted
}

// RunSweeper sweeps on every tick until ctx is done.
func (svc *QuizService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || svc.opts.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.SweepIdle(ctx); n > 0 {
				log.Printf("[Sweeper] evicted %d idle sessions", n)
			}
		}
	}
}
