package domain

import "fmt"

// Snapshot returns a deep copy of the quiz with defaults applied, so later
// edits to the source definition cannot reach a running session.
func (q Quiz) Snapshot() (Quiz, error) {
	if len(q.Questions) == 0 {
		return Quiz{}, fmt.Errorf("%w: quiz %q has no questions", ErrInvalidQuiz, q.ID)
	}
	out := Quiz{ID: q.ID, Title: q.Title, Questions: make([]Question, len(q.Questions))}
	for i, question := range q.Questions {
		if len(question.Alternatives) < 2 {
			return Quiz{}, fmt.Errorf("%w: question %d needs at least two alternatives", ErrInvalidQuiz, i)
		}
		if question.CorrectAlternativeIndex < 0 || question.CorrectAlternativeIndex >= len(question.Alternatives) {
			return Quiz{}, fmt.Errorf("%w: question %d has no valid correct alternative", ErrInvalidQuiz, i)
		}
		if question.ID == "" {
			question.ID = fmt.Sprintf("q%d", i+1)
		}
		if question.TimeLimitSeconds <= 0 {
			question.TimeLimitSeconds = DefaultTimeLimitSeconds
		}
		if question.PointValue <= 0 {
			question.PointValue = DefaultPointValue
		}
		question.Alternatives = append([]string(nil), question.Alternatives...)
		out.Questions[i] = question
	}
	seen := make(map[string]struct{}, len(out.Questions))
	for i, question := range out.Questions {
		if _, dup := seen[question.ID]; dup {
			return Quiz{}, fmt.Errorf("%w: duplicate question id %q at %d", ErrInvalidQuiz, question.ID, i)
		}
		seen[question.ID] = struct{}{}
	}
	return out, nil
}

// View strips the answer key from a question.
func (q Question) View() *QuestionView {
	return &QuestionView{
		ID:               q.ID,
		Statement:        q.Statement,
		Alternatives:     append([]string(nil), q.Alternatives...),
		TimeLimitSeconds: q.TimeLimitSeconds,
		PointValue:       q.PointValue,
	}
}
