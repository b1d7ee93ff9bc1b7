package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/domain"
)

// persistAndEvict runs after the session lock is released. The session is
// already Finished, so nothing here races with gameplay.
func (svc *QuizService) persistAndEvict(ctx context.Context, s *Session, summary domain.SessionSummary, credits []domain.PointCredit) domain.SessionResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), svc.opts.PersistTimeout)
	defer cancel()

	result := domain.SessionResult{Summary: summary}
	if err := svc.persist(ctx, summary, credits); err != nil {
		log.Printf("[Persistence] room %s (session %s): %v", s.code, s.id, err)
		result.Warning = fmt.Sprintf("session finished but results were not fully saved: %v", err)
	}
	svc.registry.Remove(s.code)
	return result
}

// persist retries only what is still outstanding. Re-sending a credit that
// did land is harmless because credits are idempotent per participant.
func (svc *QuizService) persist(ctx context.Context, summary domain.SessionSummary, credits []domain.PointCredit) error {
	if svc.bridge == nil {
		return nil
	}
	pending := credits
	summarySaved := false
	var lastErr error

	for attempt := 1; attempt <= svc.opts.PersistAttempts; attempt++ {
		if len(pending) > 0 {
			failed, err := svc.creditAll(ctx, pending)
			pending = failed
			if err != nil {
				lastErr = err
			}
		}
		if !summarySaved {
			if err := svc.bridge.RecordSessionSummary(ctx, summary); err != nil {
				lastErr = err
			} else {
				summarySaved = true
			}
		}
		if len(pending) == 0 && summarySaved {
			return nil
		}
		if attempt == svc.opts.PersistAttempts {
			break
		}

		log.Printf("[Persistence] session %s attempt %d/%d: %d credits pending, summary saved=%t: %v",
			summary.SessionID, attempt, svc.opts.PersistAttempts, len(pending), summarySaved, lastErr)
		wait := time.NewTimer(svc.opts.PersistBackoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			wait.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-wait.C:
		}
	}
	return fmt.Errorf("%d point credits pending, summary saved=%t: %w", len(pending), summarySaved, lastErr)
}

// creditAll sends every credit concurrently and returns the ones that failed.
func (svc *QuizService) creditAll(ctx context.Context, credits []domain.PointCredit) ([]domain.PointCredit, error) {
	var (
		mu     sync.Mutex
		failed []domain.PointCredit
		g      errgroup.Group
	)
	g.SetLimit(svc.opts.PersistWorkers)
	for _, credit := range credits {
		credit := credit
		g.Go(func() error {
			if err := svc.bridge.CreditPoints(ctx, credit); err != nil {
				mu.Lock()
				failed = append(failed, credit)
				mu.Unlock()
				return fmt.Errorf("credit %s: %w", credit.ParticipantID, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return failed, err
}
