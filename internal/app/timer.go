package app

import (
	"time"

	"live-quiz-service/internal/common/clock"
)

// TimerController owns the single deferred callback of each session. Both
// methods must be called with the session lock held.
type TimerController struct {
	clock clock.Clock
}

func NewTimerController(c clock.Clock) *TimerController {
	return &TimerController{clock: c}
}

// arm replaces any pending callback of s with fire, due at the given time.
// fire must re-check phase and index itself: Stop cannot recall a callback
// that is already waiting for the session lock.
func (tc *TimerController) arm(s *Session, at time.Time, fire func()) {
	tc.cancel(s)
	d := at.Sub(tc.clock.Now())
	if d < 0 {
		d = 0
	}
	s.timer = tc.clock.AfterFunc(d, fire)
}

// cancel is idempotent.
func (tc *TimerController) cancel(s *Session) {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
}
