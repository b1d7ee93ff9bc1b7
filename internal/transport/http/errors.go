package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"live-quiz-service/internal/domain"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// errorStatus maps a service error to an HTTP status and a stable reason code.
func errorStatus(err error) (int, string) {
	if reason := domain.RejectionReason(err); reason != "" {
		switch reason {
		case domain.ReasonDuplicateSubmission, domain.ReasonQuestionClosed:
			return http.StatusConflict, reason
		default:
			return http.StatusUnprocessableEntity, reason
		}
	}
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SessionNotFound"
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, "QuizNotFound"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "QuestionNotFound"
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusBadRequest, "InvalidCode"
	case errors.Is(err, domain.ErrInvalidDisplayName):
		return http.StatusBadRequest, "InvalidDisplayName"
	case errors.Is(err, domain.ErrInvalidQuiz):
		return http.StatusUnprocessableEntity, "InvalidQuiz"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "InvalidTransition"
	case errors.Is(err, domain.ErrSessionFinished):
		return http.StatusConflict, "SessionFinished"
	case errors.Is(err, domain.ErrNotHost):
		return http.StatusForbidden, "NotHost"
	case errors.Is(err, domain.ErrNotParticipant):
		return http.StatusForbidden, "NotParticipant"
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized, "AuthenticationRequired"
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable, "CodeSpaceExhausted"
	}
	return http.StatusInternalServerError, "Internal"
}

func writeError(c *gin.Context, err error) {
	status, reason := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, errorResponse{Error: "internal server error", Reason: reason})
		return
	}
	c.JSON(status, errorResponse{Error: err.Error(), Reason: reason})
}
