package app

import "live-quiz-service/internal/domain"

// Score grades one selection. There is no partial credit and no speed bonus:
// the result depends only on the question and the selected index.
func Score(q domain.Question, selectedIndex int) (bool, int) {
	if selectedIndex != q.CorrectAlternativeIndex {
		return false, 0
	}
	return true, q.PointValue
}
