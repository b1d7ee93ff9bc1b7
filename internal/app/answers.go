package app

import (
	"context"
	"fmt"

	"live-quiz-service/internal/domain"
)

type AnswerInput struct {
	Code       string
	QuestionID string
	// ParticipantID names a guest participant; it is ignored when CallerID is set.
	ParticipantID string
	// CallerID is the authenticated identity of the request, if any.
	CallerID      string
	SelectedIndex int
}

// SubmitAnswer records the participant's single answer to the active
// question. Rejections carry a sentinel that domain.RejectionReason maps to
// the reason shown to the client; a rejected submission changes nothing.
func (svc *QuizService) SubmitAnswer(_ context.Context, input AnswerInput) (domain.AnswerRecord, error) {
	session, err := svc.registry.Lookup(input.Code)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	p, err := session.actorLocked(input.CallerID, input.ParticipantID)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	if p.Left {
		return domain.AnswerRecord{}, domain.ErrUnknownParticipant
	}
	if session.phase != domain.PhaseQuestionActive {
		return domain.AnswerRecord{}, fmt.Errorf("%w: session is %s", domain.ErrQuestionClosed, session.phase)
	}
	q, _ := session.currentQuestionLocked()
	if q.ID != input.QuestionID {
		return domain.AnswerRecord{}, fmt.Errorf("%w: %q is not the current question", domain.ErrQuestionClosed, input.QuestionID)
	}
	now := svc.clock.Now()
	if !now.Before(session.deadline) {
		return domain.AnswerRecord{}, fmt.Errorf("%w: deadline passed", domain.ErrQuestionClosed)
	}
	if _, dup := session.answers[q.ID][p.ID]; dup {
		return domain.AnswerRecord{}, domain.ErrDuplicateSubmission
	}
	if input.SelectedIndex < 0 || input.SelectedIndex >= len(q.Alternatives) {
		return domain.AnswerRecord{}, domain.ErrInvalidAlternative
	}

	correct, points := Score(q, input.SelectedIndex)
	record := domain.AnswerRecord{
		ParticipantID:            p.ID,
		QuestionID:               q.ID,
		SelectedAlternativeIndex: input.SelectedIndex,
		IsCorrect:                correct,
		AwardedPoints:            points,
		SubmittedAt:              now,
	}
	session.answers[q.ID][p.ID] = record
	session.touchLocked(now)
	session.publishLocked()

	if session.allAnsweredLocked() {
		svc.revealLocked(session)
	}
	return record, nil
}
