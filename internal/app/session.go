package app

import (
	"sync"
	"time"

	"live-quiz-service/internal/common/clock"
	"live-quiz-service/internal/domain"
)

// Session is the live state of one quiz room. Every field below mu is guarded
// by it; all mutations go through the phase controller or the answer collector.
type Session struct {
	id          string
	code        string
	quizID      string
	quizTitle   string
	hostOwnerID string
	simplified  bool
	questions   []domain.Question
	createdAt   time.Time
	topN        int

	mu           sync.Mutex
	phase        domain.Phase
	currentIndex int
	deadline     time.Time
	participants map[string]*domain.Participant
	roster       []string
	// answers is keyed by question id, then participant id.
	answers map[string]map[string]domain.AnswerRecord
	// expected holds the participants present when the current question opened.
	expected     map[string]struct{}
	tally        map[int]int
	leaderboard  []domain.LeaderboardEntry
	lastActivity time.Time
	timer        clock.Timer
	hub          *hub
}

type sessionConfig struct {
	id          string
	code        string
	quiz        domain.Quiz
	hostOwnerID string
	simplified  bool
	now         time.Time
	buffer      int
	topN        int
}

func newSession(cfg sessionConfig) *Session {
	return &Session{
		id:           cfg.id,
		code:         cfg.code,
		quizID:       cfg.quiz.ID,
		quizTitle:    cfg.quiz.Title,
		hostOwnerID:  cfg.hostOwnerID,
		simplified:   cfg.simplified,
		questions:    cfg.quiz.Questions,
		createdAt:    cfg.now,
		topN:         cfg.topN,
		phase:        domain.PhaseWaiting,
		currentIndex: -1,
		participants: make(map[string]*domain.Participant),
		answers:      make(map[string]map[string]domain.AnswerRecord),
		lastActivity: cfg.now,
		hub:          newHub(cfg.buffer),
	}
}

// ID is the unique id of this session instance; codes are reused, ids are not.
func (s *Session) ID() string { return s.id }

// Code is the join code.
func (s *Session) Code() string { return s.code }

// QuizID is the quiz the session was opened from.
func (s *Session) QuizID() string { return s.quizID }

// HostOwnerID is the identity allowed to drive the session.
func (s *Session) HostOwnerID() string { return s.hostOwnerID }

// SimplifiedMode reports whether anonymous participants may join.
func (s *Session) SimplifiedMode() bool { return s.simplified }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns the current view without publishing it.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Participants returns the roster in join order.
func (s *Session) Participants() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

// Answers returns a copy of the records stored for a question.
func (s *Session) Answers(questionID string) map[string]domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.AnswerRecord, len(s.answers[questionID]))
	for id, rec := range s.answers[questionID] {
		out[id] = rec
	}
	return out
}

// LastActivity is the time of the last accepted command or answer.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) touchLocked(now time.Time) {
	s.lastActivity = now
}

func (s *Session) authorizeLocked(hostID string) error {
	if hostID == "" || hostID != s.hostOwnerID {
		return domain.ErrNotHost
	}
	return nil
}

// actorLocked resolves the participant a command acts for. An authenticated
// caller always acts as itself and the requested id is ignored. An anonymous
// caller may only act for a guest, whose issued id is its credential.
func (s *Session) actorLocked(callerID, participantID string) (*domain.Participant, error) {
	id := participantID
	if callerID != "" {
		id = callerID
	}
	p, ok := s.participants[id]
	if !ok {
		return nil, domain.ErrUnknownParticipant
	}
	if callerID == "" && !p.Guest {
		return nil, domain.ErrAuthenticationRequired
	}
	return p, nil
}

func (s *Session) currentQuestionLocked() (domain.Question, bool) {
	if s.currentIndex < 0 || s.currentIndex >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.currentIndex], true
}

func (s *Session) rosterLocked() []domain.Participant {
	out := make([]domain.Participant, 0, len(s.roster))
	for _, id := range s.roster {
		out = append(out, *s.participants[id])
	}
	return out
}

func (s *Session) activeCountLocked() int {
	n := 0
	for _, p := range s.participants {
		if !p.Left {
			n++
		}
	}
	return n
}

// expectedCountsLocked counts the participants expected for the current
// question who are still present, and how many of them have answered. Late
// joiners are not expected and never hold the question open.
func (s *Session) expectedCountsLocked() (present, answered int) {
	q, ok := s.currentQuestionLocked()
	if !ok {
		return 0, 0
	}
	records := s.answers[q.ID]
	for id := range s.expected {
		p := s.participants[id]
		if p == nil || p.Left {
			continue
		}
		present++
		if _, ok := records[id]; ok {
			answered++
		}
	}
	return present, answered
}

// allAnsweredLocked reports whether every expected participant still present
// has answered.
func (s *Session) allAnsweredLocked() bool {
	present, answered := s.expectedCountsLocked()
	return present > 0 && answered == present
}

func (s *Session) freezeTallyLocked() {
	q, ok := s.currentQuestionLocked()
	if !ok {
		return
	}
	tally := make(map[int]int, len(q.Alternatives))
	for _, rec := range s.answers[q.ID] {
		tally[rec.SelectedAlternativeIndex]++
	}
	s.tally = tally
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Code:                 s.code,
		Version:              s.hub.version,
		QuizTitle:            s.quizTitle,
		Phase:                s.phase,
		CurrentQuestionIndex: s.currentIndex,
		QuestionCount:        len(s.questions),
		ParticipantCount:     s.activeCountLocked(),
		SimplifiedMode:       s.simplified,
	}

	q, ok := s.currentQuestionLocked()
	if ok {
		snap.CurrentQuestion = q.View()
		snap.AnsweredCount = len(s.answers[q.ID])
	}

	switch s.phase {
	case domain.PhaseQuestionActive:
		deadline := s.deadline
		snap.Deadline = &deadline
		// Both counts cover the same participants auto reveal waits for.
		snap.ParticipantCount, snap.AnsweredCount = s.expectedCountsLocked()
	case domain.PhaseRevealingAnswer, domain.PhaseShowingLeaderboard, domain.PhaseFinished:
		if ok {
			correct := q.CorrectAlternativeIndex
			snap.CorrectAlternative = &correct
			snap.Tally = make(map[int]int, len(s.tally))
			for idx, n := range s.tally {
				snap.Tally[idx] = n
			}
		}
	}

	if s.phase == domain.PhaseShowingLeaderboard || s.phase == domain.PhaseFinished {
		snap.Leaderboard = TopN(s.leaderboard, s.topN)
	}
	return snap
}

// publishLocked bumps the version and fans the new snapshot out. Called with
// mu held so every subscriber sees the same order.
func (s *Session) publishLocked() domain.Snapshot {
	s.hub.version++
	snap := s.snapshotLocked()
	s.hub.publish(s.code, snap)
	return snap
}

func (s *Session) subscribe() (<-chan domain.Snapshot, func()) {
	s.mu.Lock()
	ch := s.hub.add(s.snapshotLocked(), s.phase == domain.PhaseFinished)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		s.hub.remove(ch)
		s.mu.Unlock()
	}
	return ch, cancel
}
