package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
)

const maxInboundMessage = 4096

type WSHandler struct {
	service  *app.QuizService
	verifier *auth.Verifier
	upgrader websocket.Upgrader

	// conns counts open connections per room participant; the participant
	// leaves when the last one closes.
	connsMu sync.Mutex
	conns   map[participantKey]int
}

type participantKey struct {
	code, participantID string
}

func NewWSHandler(service *app.QuizService, verifier *auth.Verifier) *WSHandler {
	return &WSHandler{
		service:  service,
		verifier: verifier,
		conns:    make(map[participantKey]int),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID    string `json:"questionId"`
	SelectedIndex int    `json:"selectedIndex"`
}

type broadcastPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func errorMessage(err error) outboundMessage[any] {
	_, reason := errorStatus(err)
	msgType := "error"
	if domain.RejectionReason(err) != "" {
		msgType = "answerRejected"
	}
	return outboundMessage[any]{Type: msgType, Payload: errorPayload{Message: err.Error(), Reason: reason}}
}

// ServeWS attaches a participant (or, with role=host, the host) to a room and
// streams every snapshot of it. Participants send answers over the same
// connection; the host sends phase commands.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code, err := domain.ParseJoinCode(query.Get("code"))
	if err != nil {
		http.Error(w, "missing or invalid code", http.StatusBadRequest)
		return
	}
	userID, err := h.verifier.Identify(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	isHost := query.Get("role") == "host"
	if isHost && userID == "" {
		http.Error(w, "host connections must be authenticated", http.StatusUnauthorized)
		return
	}
	if !isHost && query.Get("name") == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxInboundMessage)
	ctx := r.Context()

	var participantID string
	if isHost {
		snap, err := h.service.AttachHost(ctx, code, userID)
		if err != nil {
			_ = conn.WriteJSON(errorMessage(err))
			return
		}
		_ = conn.WriteJSON(outboundMessage[any]{Type: "attached", Payload: snap})
	} else {
		joined, err := h.service.Join(ctx, app.JoinInput{
			Code:          code,
			DisplayName:   query.Get("name"),
			UserID:        userID,
			ParticipantID: query.Get("participantId"),
		})
		if err != nil {
			_ = conn.WriteJSON(errorMessage(err))
			return
		}
		participantID = joined.ID
		key := participantKey{code: code, participantID: participantID}
		h.attach(key)
		_ = conn.WriteJSON(outboundMessage[any]{Type: "joined", Payload: joined})
		defer func() {
			if !h.detach(key) {
				return
			}
			if err := h.service.Leave(context.WithoutCancel(ctx), code, participantID, userID); err != nil {
				log.Printf("[WS] leave %s/%s: %v", code, participantID, err)
			}
		}()
	}

	updates, cancel, err := h.service.Subscribe(ctx, code)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("[WS] write error: %v", err)
				// Unblocks the read loop; keep draining so senders never block.
				failed = true
				_ = conn.Close()
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		h.forwardSnapshots(ctx, code, updates, cancel, send, closeSignals)
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.handleInbound(ctx, code, userID, participantID, isHost, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) attach(key participantKey) {
	h.connsMu.Lock()
	h.conns[key]++
	h.connsMu.Unlock()
}

// detach reports whether key's last connection just closed.
func (h *WSHandler) detach(key participantKey) bool {
	h.connsMu.Lock()
	defer h.connsMu.Unlock()
	h.conns[key]--
	if h.conns[key] > 0 {
		return false
	}
	delete(h.conns, key)
	return true
}

// forwardSnapshots pushes snapshots until the session finishes or the
// connection closes. A subscription dropped for lagging is replaced, and the
// new one starts from the current snapshot.
func (h *WSHandler) forwardSnapshots(ctx context.Context, code string, updates <-chan domain.Snapshot, cancel func(), send chan<- outboundMessage[any], closeSignals <-chan struct{}) {
	defer func() { cancel() }()
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				var err error
				cancel()
				updates, cancel, err = h.service.Subscribe(ctx, code)
				if err != nil {
					cancel = func() {}
					return
				}
				continue
			}
			select {
			case send <- outboundMessage[any]{Type: "snapshot", Payload: update}:
			case <-closeSignals:
				return
			}
			if update.Phase == domain.PhaseFinished {
				return
			}
		case <-closeSignals:
			return
		}
	}
}

func (h *WSHandler) handleInbound(ctx context.Context, code, userID, participantID string, isHost bool, inbound inboundMessage) (outboundMessage[any], bool) {
	unsupported := outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}

	if !isHost {
		if inbound.Type != "answer" {
			return unsupported, true
		}
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}, true
		}
		record, err := h.service.SubmitAnswer(ctx, app.AnswerInput{
			Code:          code,
			QuestionID:    payload.QuestionID,
			ParticipantID: participantID,
			CallerID:      userID,
			SelectedIndex: payload.SelectedIndex,
		})
		if err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{Type: "answerResult", Payload: record}, true
	}

	var err error
	switch inbound.Type {
	case "broadcastQuestion":
		var payload broadcastPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid broadcastQuestion payload"}}, true
		}
		_, err = h.service.BroadcastQuestion(ctx, code, userID, payload.Index)
	case "reveal":
		_, err = h.service.Reveal(ctx, code, userID)
	case "showLeaderboard":
		_, err = h.service.ShowLeaderboard(ctx, code, userID)
	case "endSession":
		result, err := h.service.EndSession(ctx, code, userID)
		if err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{Type: "sessionEnded", Payload: result}, true
	default:
		return unsupported, true
	}
	if err != nil {
		return errorMessage(err), true
	}
	// Phase commands are acknowledged by the snapshot they publish.
	return outboundMessage[any]{}, false
}
