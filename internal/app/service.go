package app

import (
	"context"
	"log"
	"strings"
	"time"

	"live-quiz-service/internal/common/clock"
	"live-quiz-service/internal/common/uuid"
	"live-quiz-service/internal/domain"
)

// QuizRepository provides quiz definitions by id.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

//go:generate mockgen -destination=mocks/mock_persistence.go -package=mocks . PersistenceBridge

// PersistenceBridge hardens the durable effects of a finished session.
// CreditPoints must be idempotent per (SessionID, ParticipantID).
type PersistenceBridge interface {
	CreditPoints(ctx context.Context, credit domain.PointCredit) error
	RecordSessionSummary(ctx context.Context, summary domain.SessionSummary) error
}

// Options tunes the service. Zero values fall back to defaults.
type Options struct {
	Clock clock.Clock
	IDs   uuid.UUID
	Codes CodeGenerator

	IdleTimeout      time.Duration
	LeaderboardTopN  int
	SubscriberBuffer int

	PersistAttempts int
	PersistBackoff  time.Duration
	PersistTimeout  time.Duration
	PersistWorkers  int

	// AutoLeaderboardAfter advances RevealingAnswer to ShowingLeaderboard
	// on its own after this delay; 0 leaves it to the host.
	AutoLeaderboardAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = &clock.DefaultClock{}
	}
	if o.IDs == nil {
		o.IDs = uuid.New()
	}
	if o.Codes == nil {
		o.Codes = RandomCode
	}
	if o.LeaderboardTopN <= 0 {
		o.LeaderboardTopN = 10
	}
	if o.SubscriberBuffer <= 0 {
		o.SubscriberBuffer = 32
	}
	if o.PersistAttempts <= 0 {
		o.PersistAttempts = 3
	}
	if o.PersistBackoff <= 0 {
		o.PersistBackoff = 200 * time.Millisecond
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 30 * time.Second
	}
	if o.PersistWorkers <= 0 {
		o.PersistWorkers = 8
	}
	return o
}

// QuizService coordinates live quiz sessions.
type QuizService struct {
	registry *Registry
	quizzes  QuizRepository
	bridge   PersistenceBridge
	timers   *TimerController
	clock    clock.Clock
	ids      uuid.UUID
	opts     Options
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, bridge PersistenceBridge, opts Options) *QuizService {
	opts = opts.withDefaults()
	return &QuizService{
		registry: NewRegistry(sessions, opts.Codes, opts.IDs, opts.Clock, opts.SubscriberBuffer, opts.LeaderboardTopN),
		quizzes:  quizzes,
		bridge:   bridge,
		timers:   NewTimerController(opts.Clock),
		clock:    opts.Clock,
		ids:      opts.IDs,
		opts:     opts,
	}
}

type OpenRoomInput struct {
	QuizID         string
	HostID         string
	SimplifiedMode bool
}

// OpenRoom snapshots the quiz and opens a Waiting session for it.
func (svc *QuizService) OpenRoom(ctx context.Context, input OpenRoomInput) (domain.Snapshot, error) {
	if input.HostID == "" {
		return domain.Snapshot{}, domain.ErrNotHost
	}
	quiz, err := svc.quizzes.GetQuiz(ctx, input.QuizID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	quiz, err = quiz.Snapshot()
	if err != nil {
		return domain.Snapshot{}, err
	}

	session, err := svc.registry.Create(quiz, input.HostID, input.SimplifiedMode)
	if err != nil {
		return domain.Snapshot{}, err
	}
	log.Printf("[Session] room %s opened for quiz %s by %s", session.Code(), quiz.ID, input.HostID)
	return session.Snapshot(), nil
}

// Snapshot returns the authoritative state of a live session.
func (svc *QuizService) Snapshot(_ context.Context, code string) (domain.Snapshot, error) {
	session, err := svc.registry.Lookup(code)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// AttachHost lets a reconnecting host resume from the current snapshot.
func (svc *QuizService) AttachHost(_ context.Context, code, hostID string) (domain.Snapshot, error) {
	session, err := svc.registry.Lookup(code)
	if err != nil {
		return domain.Snapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := session.authorizeLocked(hostID); err != nil {
		return domain.Snapshot{}, err
	}
	return session.snapshotLocked(), nil
}

type JoinInput struct {
	// Code is a bare join code or a URL carrying it.
	Code        string
	DisplayName string
	// UserID is the authenticated identity, if any.
	UserID string
	// ParticipantID lets a guest rejoin under a previously issued id.
	ParticipantID string
}

// Join adds a participant, or refreshes one that joined before.
func (svc *QuizService) Join(_ context.Context, input JoinInput) (domain.Participant, error) {
	code, err := domain.ParseJoinCode(input.Code)
	if err != nil {
		return domain.Participant{}, err
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return domain.Participant{}, domain.ErrInvalidDisplayName
	}
	session, err := svc.registry.Lookup(code)
	if err != nil {
		return domain.Participant{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.phase == domain.PhaseFinished {
		return domain.Participant{}, domain.ErrSessionFinished
	}

	var id string
	guest := false
	switch {
	case input.UserID != "":
		id = input.UserID
	case !session.simplified:
		return domain.Participant{}, domain.ErrAuthenticationRequired
	default:
		guest = true
		if p, ok := session.participants[input.ParticipantID]; ok && p.Guest {
			id = p.ID
		} else {
			id = svc.ids.NewUUID()
		}
	}

	now := svc.clock.Now()
	session.touchLocked(now)
	if p, ok := session.participants[id]; ok {
		p.DisplayName = name
		p.Left = false
		session.publishLocked()
		return *p, nil
	}

	p := &domain.Participant{ID: id, DisplayName: name, JoinedAt: now, Guest: guest}
	session.participants[id] = p
	session.roster = append(session.roster, id)
	session.publishLocked()
	return *p, nil
}

// Leave marks a participant as gone. They keep their score and may rejoin.
// Only the participant themselves or the host may do this; anonymous callers
// may remove guests only.
func (svc *QuizService) Leave(_ context.Context, code, participantID, callerID string) error {
	session, err := svc.registry.Lookup(code)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	p, ok := session.participants[participantID]
	if !ok {
		return domain.ErrUnknownParticipant
	}
	switch {
	case callerID != "" && (callerID == participantID || callerID == session.hostOwnerID):
	case callerID == "" && p.Guest:
	case callerID == "":
		return domain.ErrAuthenticationRequired
	default:
		return domain.ErrNotParticipant
	}
	if p.Left || session.phase == domain.PhaseFinished {
		return nil
	}
	p.Left = true
	session.publishLocked()
	if session.phase == domain.PhaseQuestionActive && session.allAnsweredLocked() {
		svc.revealLocked(session)
	}
	return nil
}

// Subscribe streams every snapshot of the session, starting with the current
// one. The channel is closed when the session finishes, when the subscriber
// falls too far behind, or when cancel is called.
func (svc *QuizService) Subscribe(_ context.Context, code string) (<-chan domain.Snapshot, func(), error) {
	session, err := svc.registry.Lookup(code)
	if err != nil {
		return nil, nil, err
	}
	updates, cancel := session.subscribe()
	return updates, cancel, nil
}

// Leaderboard computes the current standings for the host; topN <= 0 means all.
func (svc *QuizService) Leaderboard(_ context.Context, code, hostID string, topN int) ([]domain.LeaderboardEntry, error) {
	session, err := svc.registry.Lookup(code)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := session.authorizeLocked(hostID); err != nil {
		return nil, err
	}
	return TopN(ComputeLeaderboard(session.rosterLocked(), session.answers), topN), nil
}
