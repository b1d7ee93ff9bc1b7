package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/app/mocks"
	"live-quiz-service/internal/common/clock"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

type QuizServiceTestSuite struct {
	suite.Suite
	mockCtrl   *gomock.Controller
	mockBridge *mocks.MockPersistenceBridge
	clock      *clock.Fake
	store      *memory.SessionStore
	service    *app.QuizService
	ctx        context.Context

	testTime time.Time
	hostID   string
}

func (s *QuizServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockBridge = mocks.NewMockPersistenceBridge(s.mockCtrl)
	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	s.clock = clock.NewFake(s.testTime)
	s.store = memory.NewSessionStore()
	s.ctx = context.Background()
	s.hostID = "teacher-1"
	s.service = s.newService(app.Options{})
}

func (s *QuizServiceTestSuite) newService(opts app.Options) *app.QuizService {
	if opts.Clock == nil {
		opts.Clock = s.clock
	}
	opts.IDs = &sequentialIDs{}
	opts.SubscriberBuffer = 256
	opts.PersistBackoff = time.Millisecond
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"capitals": capitalsQuiz(),
		"slow":     slowQuiz(),
	}), time.Minute)
	return app.NewQuizService(s.store, quizzes, s.mockBridge, opts)
}

func (s *QuizServiceTestSuite) openRoom(quizID string, simplified bool) string {
	snap, err := s.service.OpenRoom(s.ctx, app.OpenRoomInput{QuizID: quizID, HostID: s.hostID, SimplifiedMode: simplified})
	s.Require().NoError(err)
	s.Require().Equal(domain.PhaseWaiting, snap.Phase)
	s.Require().Equal(-1, snap.CurrentQuestionIndex)
	return snap.Code
}

func (s *QuizServiceTestSuite) join(code, userID, name string) domain.Participant {
	p, err := s.service.Join(s.ctx, app.JoinInput{Code: code, DisplayName: name, UserID: userID})
	s.Require().NoError(err)
	return p
}

func (s *QuizServiceTestSuite) submit(code, questionID, participantID string, index int) (domain.AnswerRecord, error) {
	return s.service.SubmitAnswer(s.ctx, app.AnswerInput{
		Code:          code,
		QuestionID:    questionID,
		ParticipantID: participantID,
		CallerID:      participantID,
		SelectedIndex: index,
	})
}

func (s *QuizServiceTestSuite) phase(code string) domain.Phase {
	snap, err := s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	return snap.Phase
}

func (s *QuizServiceTestSuite) session(code string) *app.Session {
	session, ok := s.store.Get(code)
	s.Require().True(ok)
	return session
}

func (s *QuizServiceTestSuite) TestScenarioTwoQuestionGame() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	s.join(code, "bob", "Bob")

	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	rec, err := s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)
	s.True(rec.IsCorrect)
	s.Equal(100, rec.AwardedPoints)
	s.Equal(domain.PhaseQuestionActive, s.phase(code))

	rec, err = s.submit(code, "q1", "bob", 0)
	s.Require().NoError(err)
	s.False(rec.IsCorrect)
	s.Zero(rec.AwardedPoints)

	snap, err := s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(domain.PhaseRevealingAnswer, snap.Phase)
	s.Require().NotNil(snap.CorrectAlternative)
	s.Equal(1, *snap.CorrectAlternative)
	s.Equal(map[int]int{0: 1, 1: 1}, snap.Tally)
	s.Nil(snap.Deadline)
	s.Empty(snap.Leaderboard)

	snap, err = s.service.ShowLeaderboard(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	s.Equal([]domain.LeaderboardEntry{
		{ParticipantID: "alice", DisplayName: "Alice", Score: 100},
		{ParticipantID: "bob", DisplayName: "Bob", Score: 0},
	}, snap.Leaderboard)

	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 1)
	s.Require().NoError(err)
	_, err = s.submit(code, "q2", "alice", 0)
	s.Require().NoError(err)
	s.Equal(domain.PhaseQuestionActive, s.phase(code))

	s.clock.Advance(10 * time.Second)
	s.Equal(domain.PhaseRevealingAnswer, s.phase(code))

	snap, err = s.service.ShowLeaderboard(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	s.Equal([]domain.LeaderboardEntry{
		{ParticipantID: "alice", DisplayName: "Alice", Score: 150},
		{ParticipantID: "bob", DisplayName: "Bob", Score: 0},
	}, snap.Leaderboard)

	sessionID := s.session(code).ID()
	reason := "Quiz participation: Capitals"
	s.mockBridge.EXPECT().CreditPoints(gomock.Any(), domain.PointCredit{
		SessionID: sessionID, ParticipantID: "alice", Points: 150, Reason: reason,
	}).Return(nil).Times(1)
	s.mockBridge.EXPECT().CreditPoints(gomock.Any(), domain.PointCredit{
		SessionID: sessionID, ParticipantID: "bob", Points: 0, Reason: reason,
	}).Return(nil).Times(1)
	s.mockBridge.EXPECT().RecordSessionSummary(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, summary domain.SessionSummary) error {
			s.Equal("capitals", summary.QuizID)
			s.Equal(code, summary.Code)
			s.Equal(2, summary.ParticipantCount)
			s.Equal(2, summary.QuestionCount)
			s.Equal(s.testTime, summary.StartedAt)
			s.Equal(s.testTime.Add(10*time.Second), summary.FinishedAt)
			return nil
		}).Times(1)

	result, err := s.service.EndSession(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	s.Empty(result.Warning)
	s.Equal([]domain.LeaderboardEntry{
		{ParticipantID: "alice", DisplayName: "Alice", Score: 150},
		{ParticipantID: "bob", DisplayName: "Bob", Score: 0},
	}, result.Summary.Leaderboard)

	_, err = s.service.Snapshot(s.ctx, code)
	s.ErrorIs(err, domain.ErrSessionNotFound)
}

func (s *QuizServiceTestSuite) TestAnswerToNonCurrentQuestionIsClosed() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	_, err = s.submit(code, "q2", "alice", 0)
	s.ErrorIs(err, domain.ErrQuestionClosed)
	s.Equal(domain.ReasonQuestionClosed, domain.RejectionReason(err))
	s.Empty(s.session(code).Answers("q2"))
}

func (s *QuizServiceTestSuite) TestConcurrentOpenRoomNeverSharesCodes() {
	var counter int
	var mu sync.Mutex
	codes := func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("%06d", domain.MinCode+counter%100)
	}
	s.service = s.newService(app.Options{Codes: codes})

	const rooms = 50
	var wg sync.WaitGroup
	results := make(chan string, rooms)
	for i := 0; i < rooms; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := s.service.OpenRoom(s.ctx, app.OpenRoomInput{QuizID: "capitals", HostID: s.hostID})
			if err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- snap.Code
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for code := range results {
		s.Require().True(domain.ValidCode(code), code)
		s.Require().False(seen[code], "code %s issued twice", code)
		seen[code] = true
	}
	s.Equal(rooms, s.store.Len())
}

func (s *QuizServiceTestSuite) TestDuplicateSubmissionKeepsFirstRecord() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	s.join(code, "bob", "Bob")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	first, err := s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)
	s.clock.Advance(time.Second)

	_, err = s.submit(code, "q1", "alice", 2)
	s.ErrorIs(err, domain.ErrDuplicateSubmission)
	s.Equal(domain.ReasonDuplicateSubmission, domain.RejectionReason(err))

	stored := s.session(code).Answers("q1")
	s.Len(stored, 1)
	s.Equal(first, stored["alice"])
	s.Equal(domain.PhaseQuestionActive, s.phase(code))
}

func (s *QuizServiceTestSuite) TestSubmitRejections() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")

	_, err := s.submit(code, "q1", "alice", 1)
	s.ErrorIs(err, domain.ErrQuestionClosed, "no question is active yet")

	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	_, err = s.submit(code, "q1", "stranger", 1)
	s.ErrorIs(err, domain.ErrUnknownParticipant)
	s.Equal(domain.ReasonUnknownParticipant, domain.RejectionReason(err))

	_, err = s.submit(code, "q1", "alice", 7)
	s.ErrorIs(err, domain.ErrInvalidAlternative)

	s.clock.Advance(20 * time.Second)
	_, err = s.submit(code, "q1", "alice", 1)
	s.ErrorIs(err, domain.ErrQuestionClosed)
}

func (s *QuizServiceTestSuite) TestStaleTimerIsNoOp() {
	leaky := &leakyClock{Fake: s.clock}
	s.service = s.newService(app.Options{Clock: leaky})
	code := s.openRoom("slow", false)
	s.join(code, "alice", "Alice")

	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)
	s.clock.Advance(10 * time.Second)
	_, err = s.service.Reveal(s.ctx, code, s.hostID)
	s.Require().NoError(err)

	// The first deadline fires into RevealingAnswer of the same question.
	s.clock.Advance(51 * time.Second)
	s.Equal(domain.PhaseRevealingAnswer, s.phase(code))

	_, err = s.service.ShowLeaderboard(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 1)
	s.Require().NoError(err)

	// Re-deliver the first deadline while the second question is active.
	leaky.fireFirst()
	snap, err := s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(domain.PhaseQuestionActive, snap.Phase)
	s.Equal(1, snap.CurrentQuestionIndex)
}

func (s *QuizServiceTestSuite) TestPhaseSequenceIsTotallyOrdered() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")

	updates, cancel, err := s.service.Subscribe(s.ctx, code)
	s.Require().NoError(err)
	defer cancel()

	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)
	_, err = s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)
	_, err = s.service.ShowLeaderboard(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 1)
	s.Require().NoError(err)
	s.clock.Advance(10 * time.Second)
	_, err = s.service.ShowLeaderboard(s.ctx, code, s.hostID)
	s.Require().NoError(err)

	s.mockBridge.EXPECT().CreditPoints(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.mockBridge.EXPECT().RecordSessionSummary(gomock.Any(), gomock.Any()).Return(nil)
	_, err = s.service.EndSession(s.ctx, code, s.hostID)
	s.Require().NoError(err)

	var phases []domain.Phase
	var last uint64
	first := true
	for snap := range updates {
		if !first {
			s.Equal(last+1, snap.Version, "versions must be gapless")
		}
		first = false
		last = snap.Version
		if len(phases) == 0 || phases[len(phases)-1] != snap.Phase {
			phases = append(phases, snap.Phase)
		}
	}
	s.Equal([]domain.Phase{
		domain.PhaseWaiting,
		domain.PhaseQuestionActive,
		domain.PhaseRevealingAnswer,
		domain.PhaseShowingLeaderboard,
		domain.PhaseQuestionActive,
		domain.PhaseRevealingAnswer,
		domain.PhaseShowingLeaderboard,
		domain.PhaseFinished,
	}, phases)
}

func (s *QuizServiceTestSuite) TestAutoRevealWaitsForExpectedParticipants() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	s.join(code, "bob", "Bob")
	s.join(code, "carol", "Carol")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	// Late joiners may answer but never hold the question open.
	s.join(code, "dave", "Dave")

	_, err = s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)
	_, err = s.submit(code, "q1", "bob", 1)
	s.Require().NoError(err)

	snap, err := s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(domain.PhaseQuestionActive, snap.Phase)
	s.Equal(2, snap.AnsweredCount)
	s.Equal(3, snap.ParticipantCount, "dave is not expected for q1")
	s.Nil(snap.Tally, "tally stays hidden until reveal")

	_, err = s.submit(code, "q1", "carol", 0)
	s.Require().NoError(err)
	s.Equal(domain.PhaseRevealingAnswer, s.phase(code))

	_, err = s.submit(code, "q1", "dave", 1)
	s.ErrorIs(err, domain.ErrQuestionClosed)
}

func (s *QuizServiceTestSuite) TestLeaveCompletesQuestion() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	s.join(code, "bob", "Bob")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	_, err = s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Leave(s.ctx, code, "bob", "bob"))
	s.Equal(domain.PhaseRevealingAnswer, s.phase(code))

	s.ErrorIs(s.service.Leave(s.ctx, code, "nobody", s.hostID), domain.ErrUnknownParticipant)

	board, err := s.service.Leaderboard(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)
	s.Len(board, 2, "participants who left keep their row")
}

func (s *QuizServiceTestSuite) TestCountsFollowExpectedParticipantsAfterLeave() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	s.join(code, "bob", "Bob")
	s.join(code, "carol", "Carol")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	_, err = s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Leave(s.ctx, code, "alice", "alice"))

	snap, err := s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(domain.PhaseQuestionActive, snap.Phase)
	s.Equal(0, snap.AnsweredCount)
	s.Equal(2, snap.ParticipantCount)

	_, err = s.submit(code, "q1", "bob", 0)
	s.Require().NoError(err)
	snap, err = s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(domain.PhaseQuestionActive, snap.Phase)
	s.Equal(1, snap.AnsweredCount)
	s.Equal(2, snap.ParticipantCount)

	_, err = s.submit(code, "q1", "carol", 1)
	s.Require().NoError(err)
	snap, err = s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(domain.PhaseRevealingAnswer, snap.Phase)
	s.Equal(3, snap.AnsweredCount, "the reveal shows every record, including alice's")
	s.Equal(map[int]int{0: 1, 1: 2}, snap.Tally)
}

func (s *QuizServiceTestSuite) TestCallerIdentityGuardsParticipantCommands() {
	code := s.openRoom("capitals", true)
	s.join(code, "alice", "Alice")
	s.join(code, "bob", "Bob")
	guest := s.join(code, "", "Guest")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	_, err = s.service.SubmitAnswer(s.ctx, app.AnswerInput{Code: code, QuestionID: "q1", ParticipantID: "alice", SelectedIndex: 0})
	s.ErrorIs(err, domain.ErrAuthenticationRequired)
	s.Empty(s.session(code).Answers("q1"))

	rec, err := s.service.SubmitAnswer(s.ctx, app.AnswerInput{Code: code, QuestionID: "q1", ParticipantID: "bob", CallerID: "alice", SelectedIndex: 1})
	s.Require().NoError(err)
	s.Equal("alice", rec.ParticipantID)

	rec, err = s.service.SubmitAnswer(s.ctx, app.AnswerInput{Code: code, QuestionID: "q1", ParticipantID: guest.ID, SelectedIndex: 1})
	s.Require().NoError(err)
	s.Equal(guest.ID, rec.ParticipantID)

	s.ErrorIs(s.service.Leave(s.ctx, code, "bob", ""), domain.ErrAuthenticationRequired)
	s.ErrorIs(s.service.Leave(s.ctx, code, "bob", "alice"), domain.ErrNotParticipant)
	s.Equal(3, s.mustSnapshot(code).ParticipantCount)

	s.Require().NoError(s.service.Leave(s.ctx, code, guest.ID, ""))
	s.Require().NoError(s.service.Leave(s.ctx, code, "bob", s.hostID))
	s.Equal(domain.PhaseRevealingAnswer, s.phase(code), "alice answered and everyone else left")
}

func (s *QuizServiceTestSuite) mustSnapshot(code string) domain.Snapshot {
	snap, err := s.service.Snapshot(s.ctx, code)
	s.Require().NoError(err)
	return snap
}

func (s *QuizServiceTestSuite) TestInvalidTransitions() {
	code := s.openRoom("capitals", false)

	_, err := s.service.Reveal(s.ctx, code, s.hostID)
	s.ErrorIs(err, domain.ErrInvalidTransition)
	_, err = s.service.ShowLeaderboard(s.ctx, code, s.hostID)
	s.ErrorIs(err, domain.ErrInvalidTransition)
	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 1)
	s.ErrorIs(err, domain.ErrInvalidTransition)
	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 5)
	s.ErrorIs(err, domain.ErrQuestionNotFound)
	_, err = s.service.BroadcastQuestion(s.ctx, code, "someone-else", 0)
	s.ErrorIs(err, domain.ErrNotHost)

	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)
	_, err = s.service.BroadcastQuestion(s.ctx, code, s.hostID, 1)
	s.ErrorIs(err, domain.ErrInvalidTransition, "next question only after the leaderboard")
	_, err = s.service.ShowLeaderboard(s.ctx, code, s.hostID)
	s.ErrorIs(err, domain.ErrInvalidTransition, "leaderboard only after reveal")
	s.Equal(domain.PhaseQuestionActive, s.phase(code))
}

func (s *QuizServiceTestSuite) TestEndSessionFromAnyPhaseAndFinishedIsImmutable() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)
	_, err = s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)

	session := s.session(code)
	s.mockBridge.EXPECT().CreditPoints(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	s.mockBridge.EXPECT().RecordSessionSummary(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	_, err = s.service.EndSession(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	s.Equal(domain.PhaseFinished, session.Phase())
	s.Zero(s.clock.Pending(), "no timer may outlive the session")

	_, err = s.service.EndSession(s.ctx, code, s.hostID)
	s.ErrorIs(err, domain.ErrSessionNotFound)
}

func (s *QuizServiceTestSuite) TestPersistenceFailureStillFinishes() {
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	s.join(code, "bob", "Bob")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)
	_, err = s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)

	sessionID := s.session(code).ID()
	reason := "Quiz participation: Capitals"
	alice := domain.PointCredit{SessionID: sessionID, ParticipantID: "alice", Points: 100, Reason: reason}
	bob := domain.PointCredit{SessionID: sessionID, ParticipantID: "bob", Points: 0, Reason: reason}
	down := errors.New("db down")

	gomock.InOrder(
		s.mockBridge.EXPECT().CreditPoints(gomock.Any(), alice).Return(down).Times(2),
		s.mockBridge.EXPECT().CreditPoints(gomock.Any(), alice).Return(nil).Times(1),
	)
	s.mockBridge.EXPECT().CreditPoints(gomock.Any(), bob).Return(nil).Times(1)
	s.mockBridge.EXPECT().RecordSessionSummary(gomock.Any(), gomock.Any()).Return(down).Times(3)

	result, err := s.service.EndSession(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	s.NotEmpty(result.Warning)
	s.Len(result.Summary.Leaderboard, 2)

	_, err = s.service.Snapshot(s.ctx, code)
	s.ErrorIs(err, domain.ErrSessionNotFound)
}

func (s *QuizServiceTestSuite) TestJoinIdentity() {
	code := s.openRoom("capitals", false)
	_, err := s.service.Join(s.ctx, app.JoinInput{Code: code, DisplayName: "Guest"})
	s.ErrorIs(err, domain.ErrAuthenticationRequired)
	_, err = s.service.Join(s.ctx, app.JoinInput{Code: code, DisplayName: "  ", UserID: "alice"})
	s.ErrorIs(err, domain.ErrInvalidDisplayName)
	_, err = s.service.Join(s.ctx, app.JoinInput{Code: "12345", DisplayName: "Alice", UserID: "alice"})
	s.ErrorIs(err, domain.ErrInvalidCode)

	open := s.openRoom("capitals", true)
	guest, err := s.service.Join(s.ctx, app.JoinInput{Code: "https://quiz.example/play?code=" + open, DisplayName: "Guest"})
	s.Require().NoError(err)
	s.True(guest.Guest)
	s.NotEmpty(guest.ID)

	again, err := s.service.Join(s.ctx, app.JoinInput{Code: open, DisplayName: "Renamed", ParticipantID: guest.ID})
	s.Require().NoError(err)
	s.Equal(guest.ID, again.ID)
	s.Equal("Renamed", again.DisplayName)

	snap, err := s.service.Snapshot(s.ctx, open)
	s.Require().NoError(err)
	s.Equal(1, snap.ParticipantCount)
}

func (s *QuizServiceTestSuite) TestAutoLeaderboardAfterReveal() {
	s.service = s.newService(app.Options{AutoLeaderboardAfter: 5 * time.Second})
	code := s.openRoom("capitals", false)
	s.join(code, "alice", "Alice")
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)
	_, err = s.submit(code, "q1", "alice", 1)
	s.Require().NoError(err)
	s.Equal(domain.PhaseRevealingAnswer, s.phase(code))

	s.clock.Advance(4 * time.Second)
	s.Equal(domain.PhaseRevealingAnswer, s.phase(code))
	s.clock.Advance(time.Second)
	s.Equal(domain.PhaseShowingLeaderboard, s.phase(code))
}

func (s *QuizServiceTestSuite) TestSweepIdleEndsAbandonedRooms() {
	s.service = s.newService(app.Options{IdleTimeout: 10 * time.Minute})
	idle := s.openRoom("capitals", false)
	s.clock.Advance(9 * time.Minute)
	busy := s.openRoom("capitals", false)
	s.clock.Advance(2 * time.Minute)

	s.mockBridge.EXPECT().RecordSessionSummary(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	s.Equal(1, s.service.SweepIdle(s.ctx))

	_, err := s.service.Snapshot(s.ctx, idle)
	s.ErrorIs(err, domain.ErrSessionNotFound)
	s.Equal(domain.PhaseWaiting, s.phase(busy))
}

func (s *QuizServiceTestSuite) TestHostReattach() {
	code := s.openRoom("capitals", false)
	_, err := s.service.BroadcastQuestion(s.ctx, code, s.hostID, 0)
	s.Require().NoError(err)

	snap, err := s.service.AttachHost(s.ctx, code, s.hostID)
	s.Require().NoError(err)
	s.Equal(domain.PhaseQuestionActive, snap.Phase)
	s.Require().NotNil(snap.Deadline)
	s.Equal(s.testTime.Add(20*time.Second), *snap.Deadline)
	s.Nil(snap.CorrectAlternative)

	_, err = s.service.AttachHost(s.ctx, code, "intruder")
	s.ErrorIs(err, domain.ErrNotHost)
}

func TestQuizServiceSuite(t *testing.T) {
	suite.Run(t, new(QuizServiceTestSuite))
}

type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequentialIDs) NewUUID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// leakyClock ignores Stop and remembers the first callback, so a test can
// deliver a deadline that the service already superseded.
type leakyClock struct {
	*clock.Fake
	first func()
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (c *leakyClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	if c.first == nil {
		c.first = f
	}
	c.Fake.AfterFunc(d, f)
	return leakyTimer{}
}

func (c *leakyClock) fireFirst() {
	c.first()
}

func capitalsQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "capitals",
		Title: "Capitals",
		Questions: []domain.Question{
			{
				ID:                      "q1",
				Statement:               "Capital of Brazil?",
				Alternatives:            []string{"Rio de Janeiro", "Brasília", "São Paulo", "Salvador"},
				CorrectAlternativeIndex: 1,
				TimeLimitSeconds:        20,
				PointValue:              100,
			},
			{
				ID:                      "q2",
				Statement:               "Capital of Portugal?",
				Alternatives:            []string{"Lisbon", "Porto"},
				CorrectAlternativeIndex: 0,
				TimeLimitSeconds:        10,
				PointValue:              50,
			},
		},
	}
}

func slowQuiz() domain.Quiz {
	quiz := capitalsQuiz()
	quiz.ID = "slow"
	for i := range quiz.Questions {
		quiz.Questions[i].TimeLimitSeconds = 60
	}
	return quiz
}
