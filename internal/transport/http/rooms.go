package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
)

// RoomHandler serves the REST command surface for hosts and participants.
type RoomHandler struct {
	service *app.QuizService
}

func NewRoomHandler(service *app.QuizService) *RoomHandler {
	return &RoomHandler{service: service}
}

type openRoomRequest struct {
	QuizID         string `json:"quizId" binding:"required"`
	SimplifiedMode bool   `json:"simplifiedMode"`
}

type openRoomResponse struct {
	Code     string          `json:"code"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

type joinRequest struct {
	DisplayName   string `json:"displayName" binding:"required,max=40"`
	ParticipantID string `json:"participantId"`
}

type answerRequest struct {
	QuestionID    string `json:"questionId" binding:"required"`
	ParticipantID string `json:"participantId"`
	SelectedIndex *int   `json:"selectedIndex" binding:"required"`
}

func (h *RoomHandler) OpenRoom(c *gin.Context) {
	var req openRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: "InvalidRequest"})
		return
	}
	snap, err := h.service.OpenRoom(c.Request.Context(), app.OpenRoomInput{
		QuizID:         req.QuizID,
		HostID:         auth.UserID(c),
		SimplifiedMode: req.SimplifiedMode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, openRoomResponse{Code: snap.Code, Snapshot: snap})
}

// GetRoom returns the current snapshot; ?role=host reattaches the host.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	var (
		snap domain.Snapshot
		err  error
	)
	if c.Query("role") == "host" {
		snap, err = h.service.AttachHost(c.Request.Context(), c.Param("code"), auth.UserID(c))
	} else {
		snap, err = h.service.Snapshot(c.Request.Context(), c.Param("code"))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandler) BroadcastQuestion(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "question index must be a number", Reason: "InvalidRequest"})
		return
	}
	snap, err := h.service.BroadcastQuestion(c.Request.Context(), c.Param("code"), auth.UserID(c), index)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandler) Reveal(c *gin.Context) {
	snap, err := h.service.Reveal(c.Request.Context(), c.Param("code"), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandler) ShowLeaderboard(c *gin.Context) {
	snap, err := h.service.ShowLeaderboard(c.Request.Context(), c.Param("code"), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandler) EndSession(c *gin.Context) {
	result, err := h.service.EndSession(c.Request.Context(), c.Param("code"), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if result.Warning != "" {
		c.Header("X-Quiz-Persistence-Warning", "true")
	}
	c.JSON(http.StatusOK, result)
}

// Leaderboard returns the live standings to the host; ?top=N caps the list.
func (h *RoomHandler) Leaderboard(c *gin.Context) {
	top := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "top must be a positive number", Reason: "InvalidRequest"})
			return
		}
		top = n
	}
	entries, err := h.service.Leaderboard(c.Request.Context(), c.Param("code"), auth.UserID(c), top)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *RoomHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: "InvalidRequest"})
		return
	}
	participant, err := h.service.Join(c.Request.Context(), app.JoinInput{
		Code:          c.Param("code"),
		DisplayName:   req.DisplayName,
		UserID:        auth.UserID(c),
		ParticipantID: req.ParticipantID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, participant)
}

func (h *RoomHandler) Leave(c *gin.Context) {
	if err := h.service.Leave(c.Request.Context(), c.Param("code"), c.Param("participantId"), auth.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitAnswer answers for the authenticated user, or for the guest
// participant id in the body when the request carries no identity.
func (h *RoomHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: "InvalidRequest"})
		return
	}
	record, err := h.service.SubmitAnswer(c.Request.Context(), app.AnswerInput{
		Code:          c.Param("code"),
		QuestionID:    req.QuestionID,
		ParticipantID: req.ParticipantID,
		CallerID:      auth.UserID(c),
		SelectedIndex: *req.SelectedIndex,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
