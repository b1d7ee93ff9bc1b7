package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session has the given code.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionFinished is returned for commands against a finished session.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates the quiz definition cannot be played.
	ErrInvalidQuiz = errors.New("quiz definition is not playable")
	// ErrQuestionNotFound indicates a question index outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidTransition is returned when a command is not allowed in the current phase.
	ErrInvalidTransition = errors.New("command not allowed in current phase")
	// ErrNotHost is returned when a control command comes from someone other than the host.
	ErrNotHost = errors.New("only the session host may do this")
	// ErrAuthenticationRequired is returned when an anonymous caller joins a
	// non-simplified session or acts for a participant that is not a guest.
	ErrAuthenticationRequired = errors.New("authentication required for this participant")
	// ErrNotParticipant is returned when a caller acts for another participant.
	ErrNotParticipant = errors.New("caller may not act for this participant")
	// ErrInvalidCode indicates a malformed join code.
	ErrInvalidCode = errors.New("invalid join code")
	// ErrInvalidDisplayName indicates an empty display name.
	ErrInvalidDisplayName = errors.New("display name is required")
	// ErrInvalidAlternative indicates a selected index outside the alternatives.
	ErrInvalidAlternative = errors.New("selected alternative does not exist")
	// ErrCodeSpaceExhausted is returned when no free join code could be found.
	ErrCodeSpaceExhausted = errors.New("no free join code available")

	// ErrDuplicateSubmission is returned when the participant already answered the question.
	ErrDuplicateSubmission = errors.New("answer already submitted for this question")
	// ErrQuestionClosed is returned when the question is not accepting answers.
	ErrQuestionClosed = errors.New("question is not accepting answers")
	// ErrUnknownParticipant is returned when the participant is not in the session.
	ErrUnknownParticipant = errors.New("participant not found in session")
)

// Rejection reasons reported to clients for refused answers.
const (
	ReasonDuplicateSubmission = "DuplicateSubmission"
	ReasonQuestionClosed      = "QuestionClosed"
	ReasonUnknownParticipant  = "UnknownParticipant"
	ReasonInvalidAlternative  = "InvalidAlternative"
)

// RejectionReason maps an answer rejection error to its wire reason, or "" if
// err is not an answer rejection.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateSubmission):
		return ReasonDuplicateSubmission
	case errors.Is(err, ErrQuestionClosed):
		return ReasonQuestionClosed
	case errors.Is(err, ErrUnknownParticipant):
		return ReasonUnknownParticipant
	case errors.Is(err, ErrInvalidAlternative):
		return ReasonInvalidAlternative
	}
	return ""
}
