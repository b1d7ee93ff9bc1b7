package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"live-quiz-service/internal/domain"
)

// hostCommand runs a phase transition for the session host and returns the
// snapshot it published.
func (svc *QuizService) hostCommand(code, hostID string, fn func(s *Session, now time.Time) error) (domain.Snapshot, error) {
	session, err := svc.registry.Lookup(code)
	if err != nil {
		return domain.Snapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := session.authorizeLocked(hostID); err != nil {
		return domain.Snapshot{}, err
	}
	if session.phase == domain.PhaseFinished {
		return domain.Snapshot{}, domain.ErrSessionFinished
	}
	if err := fn(session, svc.clock.Now()); err != nil {
		return domain.Snapshot{}, err
	}
	return session.snapshotLocked(), nil
}

// BroadcastQuestion opens question index for answers. The first question is
// opened from Waiting; each next one only from ShowingLeaderboard.
func (svc *QuizService) BroadcastQuestion(_ context.Context, code, hostID string, index int) (domain.Snapshot, error) {
	return svc.hostCommand(code, hostID, func(s *Session, now time.Time) error {
		if index < 0 || index >= len(s.questions) {
			return fmt.Errorf("%w: index %d of %d", domain.ErrQuestionNotFound, index, len(s.questions))
		}
		switch {
		case s.phase == domain.PhaseWaiting && index == 0:
		case s.phase == domain.PhaseShowingLeaderboard && index == s.currentIndex+1:
		default:
			return fmt.Errorf("%w: broadcast question %d from %s", domain.ErrInvalidTransition, index, s.phase)
		}

		q := s.questions[index]
		s.currentIndex = index
		s.phase = domain.PhaseQuestionActive
		s.deadline = now.Add(q.TimeLimit())
		s.tally = nil
		if s.answers[q.ID] == nil {
			s.answers[q.ID] = make(map[string]domain.AnswerRecord)
		}
		s.expected = make(map[string]struct{}, len(s.participants))
		for id, p := range s.participants {
			if !p.Left {
				s.expected[id] = struct{}{}
			}
		}
		s.touchLocked(now)
		svc.timers.arm(s, s.deadline, func() { svc.onDeadlineExpired(s, index) })
		s.publishLocked()
		return nil
	})
}

// Reveal closes the active question ahead of its deadline.
func (svc *QuizService) Reveal(_ context.Context, code, hostID string) (domain.Snapshot, error) {
	return svc.hostCommand(code, hostID, func(s *Session, now time.Time) error {
		if s.phase != domain.PhaseQuestionActive {
			return fmt.Errorf("%w: reveal from %s", domain.ErrInvalidTransition, s.phase)
		}
		s.touchLocked(now)
		svc.revealLocked(s)
		return nil
	})
}

// ShowLeaderboard exposes the standings after a reveal.
func (svc *QuizService) ShowLeaderboard(_ context.Context, code, hostID string) (domain.Snapshot, error) {
	return svc.hostCommand(code, hostID, func(s *Session, now time.Time) error {
		if s.phase != domain.PhaseRevealingAnswer {
			return fmt.Errorf("%w: show leaderboard from %s", domain.ErrInvalidTransition, s.phase)
		}
		s.touchLocked(now)
		svc.showLeaderboardLocked(s)
		return nil
	})
}

// EndSession finishes the session from any live phase, then hardens its
// results and evicts it. Persistence failures come back as a warning on the
// result; the session is finished either way.
func (svc *QuizService) EndSession(ctx context.Context, code, hostID string) (domain.SessionResult, error) {
	var (
		session *Session
		summary domain.SessionSummary
		credits []domain.PointCredit
	)
	_, err := svc.hostCommand(code, hostID, func(s *Session, now time.Time) error {
		session = s
		summary, credits = svc.finishLocked(s, now)
		return nil
	})
	if err != nil {
		return domain.SessionResult{}, err
	}
	return svc.persistAndEvict(ctx, session, summary, credits), nil
}

func (svc *QuizService) revealLocked(s *Session) {
	svc.timers.cancel(s)
	s.phase = domain.PhaseRevealingAnswer
	s.deadline = time.Time{}
	s.freezeTallyLocked()
	s.publishLocked()

	if after := svc.opts.AutoLeaderboardAfter; after > 0 {
		index := s.currentIndex
		svc.timers.arm(s, svc.clock.Now().Add(after), func() { svc.onRevealElapsed(s, index) })
	}
}

func (svc *QuizService) showLeaderboardLocked(s *Session) {
	svc.timers.cancel(s)
	s.leaderboard = ComputeLeaderboard(s.rosterLocked(), s.answers)
	s.phase = domain.PhaseShowingLeaderboard
	s.publishLocked()
}

// finishLocked freezes the session, publishes the final snapshot and closes
// every subscription. It returns what still has to be persisted.
func (svc *QuizService) finishLocked(s *Session, now time.Time) (domain.SessionSummary, []domain.PointCredit) {
	svc.timers.cancel(s)
	if s.phase == domain.PhaseQuestionActive {
		s.freezeTallyLocked()
	}
	s.phase = domain.PhaseFinished
	s.deadline = time.Time{}
	s.touchLocked(now)

	roster := s.rosterLocked()
	s.leaderboard = ComputeLeaderboard(roster, s.answers)
	s.publishLocked()
	subscribers := s.hub.count()
	s.hub.closeAll()

	guests := make(map[string]bool, len(roster))
	for _, p := range roster {
		guests[p.ID] = p.Guest
	}
	reason := "Quiz participation: " + s.quizTitle
	credits := make([]domain.PointCredit, 0, len(s.leaderboard))
	for _, entry := range s.leaderboard {
		credits = append(credits, domain.PointCredit{
			SessionID:     s.id,
			ParticipantID: entry.ParticipantID,
			Points:        entry.Score,
			Reason:        reason,
			Guest:         guests[entry.ParticipantID],
		})
	}

	summary := domain.SessionSummary{
		SessionID:        s.id,
		Code:             s.code,
		QuizID:           s.quizID,
		QuizTitle:        s.quizTitle,
		StartedAt:        s.createdAt,
		FinishedAt:       now,
		ParticipantCount: len(roster),
		QuestionCount:    len(s.questions),
		Leaderboard:      append([]domain.LeaderboardEntry(nil), s.leaderboard...),
	}
	log.Printf("[Session] room %s finished with %d participants, %d subscribers closed", s.code, len(roster), subscribers)
	return summary, credits
}

// onDeadlineExpired is the timer callback of question index.
func (svc *QuizService) onDeadlineExpired(s *Session, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseQuestionActive || s.currentIndex != index {
		log.Printf("[Timer] room %s: stale deadline for question %d ignored", s.code, index)
		return
	}
	svc.revealLocked(s)
}

// onRevealElapsed is the auto leaderboard callback of question index.
func (svc *QuizService) onRevealElapsed(s *Session, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseRevealingAnswer || s.currentIndex != index {
		log.Printf("[Timer] room %s: stale reveal timer for question %d ignored", s.code, index)
		return
	}
	svc.showLeaderboardLocked(s)
}
