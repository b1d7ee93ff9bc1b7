package domain

import "time"

// Phase is the lifecycle stage of a live session.
type Phase string

const (
	PhaseIdle               Phase = "Idle"
	PhaseWaiting            Phase = "Waiting"
	PhaseQuestionActive     Phase = "QuestionActive"
	PhaseRevealingAnswer    Phase = "RevealingAnswer"
	PhaseShowingLeaderboard Phase = "ShowingLeaderboard"
	PhaseFinished           Phase = "Finished"
)

const (
	// DefaultTimeLimitSeconds applies to questions authored without a time limit.
	DefaultTimeLimitSeconds = 30
	// DefaultPointValue applies to questions authored without a point value.
	DefaultPointValue = 100
)

// Question models a multiple-choice question with exactly one correct alternative.
type Question struct {
	ID                      string   `json:"id"`
	Statement               string   `json:"statement"`
	Alternatives            []string `json:"alternatives"`
	CorrectAlternativeIndex int      `json:"correctAlternativeIndex"`
	TimeLimitSeconds        int      `json:"timeLimitSeconds"`
	PointValue              int      `json:"pointValue"`
}

// TimeLimit returns the question's answer window.
func (q Question) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitSeconds) * time.Second
}

// Quiz is the external quiz definition a session is opened from.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Participant is a player attached to a session.
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
	// Guest is set for participants without an authenticated user id.
	Guest bool `json:"guest"`
	// Left is set when the participant left the room; they keep their score.
	Left bool `json:"left,omitempty"`
}

// AnswerRecord is the single accepted answer of a participant to a question.
type AnswerRecord struct {
	ParticipantID            string    `json:"participantId"`
	QuestionID               string    `json:"questionId"`
	SelectedAlternativeIndex int       `json:"selectedAlternativeIndex"`
	IsCorrect                bool      `json:"isCorrect"`
	AwardedPoints            int       `json:"awardedPoints"`
	SubmittedAt              time.Time `json:"submittedAt"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
}

// QuestionView is the participant-safe projection of the active question.
type QuestionView struct {
	ID               string   `json:"id"`
	Statement        string   `json:"statement"`
	Alternatives     []string `json:"alternatives"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	PointValue       int      `json:"pointValue"`
}

// Snapshot is the immutable view of a session pushed to every subscriber.
// While a question is active, ParticipantCount and AnsweredCount cover only
// the participants expected for it who are still present; otherwise they are
// everyone present and every record for the current question.
type Snapshot struct {
	Code                 string             `json:"code"`
	Version              uint64             `json:"version"`
	QuizTitle            string             `json:"quizTitle"`
	Phase                Phase              `json:"phase"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	QuestionCount        int                `json:"questionCount"`
	CurrentQuestion      *QuestionView      `json:"currentQuestion,omitempty"`
	CorrectAlternative   *int               `json:"correctAlternativeIndex,omitempty"`
	Deadline             *time.Time         `json:"deadline,omitempty"`
	Tally                map[int]int        `json:"tally,omitempty"`
	ParticipantCount     int                `json:"participantCount"`
	AnsweredCount        int                `json:"answeredCount"`
	Leaderboard          []LeaderboardEntry `json:"leaderboard,omitempty"`
	SimplifiedMode       bool               `json:"simplifiedMode"`
}

// PointCredit is one end-of-session credit for a participant.
// SessionID and ParticipantID together form the idempotency key.
type PointCredit struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	Points        int    `json:"points"`
	Reason        string `json:"reason"`
	Guest         bool   `json:"guest"`
}

// SessionSummary is the durable record of a finished session.
type SessionSummary struct {
	SessionID        string             `json:"sessionId"`
	Code             string             `json:"code"`
	QuizID           string             `json:"quizId"`
	QuizTitle        string             `json:"quizTitle"`
	StartedAt        time.Time          `json:"startedAt"`
	FinishedAt       time.Time          `json:"finishedAt"`
	ParticipantCount int                `json:"participantCount"`
	QuestionCount    int                `json:"questionCount"`
	Leaderboard      []LeaderboardEntry `json:"leaderboard"`
}

// SessionResult is returned to the host when a session ends.
type SessionResult struct {
	Summary SessionSummary `json:"summary"`
	// Warning is set when durable effects could not be fully persisted.
	Warning string `json:"warning,omitempty"`
}
