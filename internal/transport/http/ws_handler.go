package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"

	"github.com/gorilla/websocket"
)

// DefaultFeedbackDelay is how long feedback stays on screen before the next question.
const DefaultFeedbackDelay = 500 * time.Millisecond

// WSHandler plays one quiz session per websocket connection.
type WSHandler struct {
	service  *app.QuizService
	delay    time.Duration
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, delay time.Duration, log *slog.Logger) *WSHandler {
	if delay <= 0 {
		delay = DefaultFeedbackDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		service: service,
		delay:   delay,
		log:     log,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type wsError struct {
	Message string `json:"message"`
}

type emptyPayload struct {
	CreatePath string `json:"createPath"`
}

// ServeWS upgrades the request, starts a session and drives it from the
// client's answer messages. After each answer the feedback is sent at once
// and the next question (or the result) follows after the feedback delay.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := h.service.Start(ctx, limit)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[wsError]{Type: "error", Payload: wsError{Message: err.Error()}})
		return
	}
	if session.State() == domain.StateEmpty {
		_ = conn.WriteJSON(outboundMessage[emptyPayload]{Type: "empty", Payload: emptyPayload{CreatePath: "/create"}})
		return
	}
	finished := false
	defer func() {
		if !finished {
			h.service.Discard(context.WithoutCancel(ctx), session.ID())
		}
	}()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write error", "session", session.ID(), "error", err)
				cancel()
				return
			}
		}
	}()
	defer func() {
		close(send)
		<-writerDone
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-ctx.Done():
		}
	}

	inbound := make(chan inboundMessage)
	go func() {
		defer close(inbound)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	question, err := session.PlayQuestion()
	if err != nil {
		push(outboundMessage[any]{Type: "error", Payload: wsError{Message: err.Error()}})
		return
	}
	push(outboundMessage[any]{Type: "question", Payload: question})

	for {
		var msg inboundMessage
		select {
		case m, ok := <-inbound:
			if !ok {
				return
			}
			msg = m
		case <-ctx.Done():
			return
		}

		if msg.Type != "answer" {
			push(outboundMessage[any]{Type: "error", Payload: wsError{Message: "unsupported message type"}})
			continue
		}
		var req answerRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: wsError{Message: "invalid answer payload"}})
			continue
		}
		feedback, err := h.service.SubmitAnswer(ctx, session.ID(), req.QuestionIndex, req.ChoiceIndex)
		if err != nil {
			push(outboundMessage[any]{Type: "error", Payload: wsError{Message: err.Error()}})
			continue
		}
		push(outboundMessage[any]{Type: "feedback", Payload: feedback})

		// Messages that arrive during the pause wait in the reader and are
		// checked against the question index afterwards.
		timer := time.NewTimer(h.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}

		if feedback.State == domain.StateFinished {
			result, err := h.service.Finish(ctx, session.ID())
			if err != nil {
				push(outboundMessage[any]{Type: "error", Payload: wsError{Message: err.Error()}})
				return
			}
			finished = true
			push(outboundMessage[any]{Type: "result", Payload: result})
			return
		}

		current, err := h.service.Get(ctx, session.ID())
		if err != nil {
			push(outboundMessage[any]{Type: "error", Payload: wsError{Message: err.Error()}})
			return
		}
		next, err := current.PlayQuestion()
		if err != nil {
			push(outboundMessage[any]{Type: "error", Payload: wsError{Message: err.Error()}})
			return
		}
		push(outboundMessage[any]{Type: "question", Payload: next})
	}
}
