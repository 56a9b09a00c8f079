package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizforge-session-service/internal/app"
	"quizforge-session-service/internal/auth"
	"quizforge-session-service/internal/domain"
)

type WSHandler struct {
	service  *app.SessionService
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, verifier *auth.Verifier) *WSHandler {
	return &WSHandler{
		service:  service,
		verifier: verifier,
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
	QuestionID int     `json:"questionId"`
	Answer     *string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and runs one quiz session over it: state
// snapshots (countdown ticks included) flow out, user actions flow in. The
// session is discarded when the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.verifier.Verify(auth.BearerToken(r))
	if err != nil {
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
		return
	}
	if name := r.URL.Query().Get("username"); name != "" {
		user.Username = name
	}
	filter := domain.Filter{
		Category:   r.URL.Query().Get("categoria"),
		Difficulty: r.URL.Query().Get("dificultad"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	eng, err := h.service.Start(r.Context(), user, filter)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.End(eng.ID())

	updates, cancel := eng.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// One writer goroutine owns the socket; everything else funnels through send.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			result, applied := eng.SelectAnswer(payload.QuestionID, payload.Answer)
			if !applied {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "answer not accepted"}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: result}
		case "advance":
			if !eng.Advance() {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "cannot advance"}}
			}
		case "submit":
			summary, err := eng.Submit(r.Context())
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: submitErrorMessage(err)}}
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: summary}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func submitErrorMessage(err error) string {
	if errors.Is(err, domain.ErrAlreadySubmitted) {
		return "session already submitted"
	}
	var srvErr *domain.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.Error()
	}
	return err.Error()
}
