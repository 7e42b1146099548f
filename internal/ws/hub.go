package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"quizduel/backend/internal/arena"
	"quizduel/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Hub owns every websocket connection and routes inbound events to the
// engine. It also implements arena.LobbyBroadcaster for announcements that
// go to everyone, not a room.
type Hub struct {
	engine   *arena.Engine
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates the connection hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // origin checks belong to the reverse proxy
			},
		},
	}
}

// SetEngine wires the engine after construction; hub and engine reference
// each other (engine broadcasts to the lobby, hub dispatches to the engine).
func (h *Hub) SetEngine(engine *arena.Engine) {
	h.engine = engine
}

// Handle upgrades an HTTP request to a websocket connection.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

// BroadcastLobby fans an event out to every identified connection.
func (h *Hub) BroadcastLobby(event string, payload any) {
	data, err := json.Marshal(outEnvelope{Type: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal lobby event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.identified() {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}

// disconnect removes a dead connection and notifies the engine so any live
// room starts its grace period.
func (h *Hub) disconnect(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	// Detach from any live room before the send queue goes away.
	if client.identified() {
		h.engine.Disconnect(client)
	}
	client.close()
}

// region --- inbound payloads ---

type userJoinPayload struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type createMatchPayload struct {
	CategoryID        uint `json:"categoryId"`
	NumberOfQuestions int  `json:"numberOfQuestions"`
	TimePerQuestion   int  `json:"timePerQuestion"`
}

type joinMatchPayload struct {
	MatchID string `json:"matchId"`
	Code    string `json:"code"`
}

type submitAnswerPayload struct {
	MatchID          string `json:"matchId"`
	QuestionIndex    int    `json:"questionIndex"`
	SelectedOptionID string `json:"selectedOptionId"`
}

type matchRefPayload struct {
	MatchID string `json:"matchId"`
}

// endregion

// dispatch routes one inbound event. A panic anywhere inside a handler is
// converted to a generic error for this connection; it must never take the
// process or another room down.
func (h *Hub) dispatch(client *Client, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in event handler",
				"event", env.Type, "user_id", client.UserID(), "panic", r)
			client.Send(arena.EventError, &arena.Error{
				Code:    arena.CodeInternal,
				Message: "internal server error",
			})
		}
	}()

	if env.Type == "user-join" {
		h.handleUserJoin(client, env.Payload)
		return
	}
	if !client.identified() {
		client.Send(arena.EventError, &arena.Error{
			Code:    "NOT_AUTHENTICATED",
			Message: "send user-join before any other event",
		})
		return
	}

	var opErr *arena.Error
	switch env.Type {
	case "create-match":
		var p createMatchPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			opErr = &arena.Error{Code: "BAD_REQUEST", Message: "malformed create-match payload"}
			break
		}
		_, opErr = h.engine.CreateMatch(client, p.CategoryID, p.NumberOfQuestions, p.TimePerQuestion)

	case "join-match":
		var p joinMatchPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			opErr = &arena.Error{Code: "BAD_REQUEST", Message: "malformed join-match payload"}
			break
		}
		identifier := p.MatchID
		if identifier == "" {
			identifier = p.Code
		}
		opErr = h.engine.JoinMatch(client, identifier)

	case "submit-answer":
		var p submitAnswerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			opErr = &arena.Error{Code: "BAD_REQUEST", Message: "malformed submit-answer payload"}
			break
		}
		opErr = h.engine.SubmitAnswer(client, p.MatchID, p.QuestionIndex, p.SelectedOptionID)

	case "finish-quiz":
		var p matchRefPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			opErr = h.engine.FinishQuiz(client, p.MatchID)
		}

	case "next-question":
		var p matchRefPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			opErr = h.engine.NextQuestion(client, p.MatchID)
		}

	case "sync-timer":
		var p matchRefPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			opErr = h.engine.SyncTimer(client, p.MatchID)
		}

	case "forfeit-match":
		var p matchRefPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			opErr = h.engine.ForfeitMatch(client, p.MatchID)
		}

	case "reconnect-match":
		var p matchRefPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			opErr = h.engine.Reconnect(client, p.MatchID)
		}

	default:
		h.logger.Debug("unknown event type", "type", env.Type, "user_id", client.UserID())
	}

	if opErr != nil {
		client.Send(arena.EventError, opErr)
	}
}

// handleUserJoin binds the connection to a user. A JWT, when supplied, is
// authoritative over the claimed user id.
func (h *Hub) handleUserJoin(client *Client, payload json.RawMessage) {
	var p userJoinPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		client.Send(arena.EventError, &arena.Error{Code: "BAD_REQUEST", Message: "malformed user-join payload"})
		return
	}

	userID := p.UserID
	if p.Token != "" {
		tokenUserID, err := jwt.ParseToken(p.Token)
		if err != nil {
			client.Send(arena.EventError, &arena.Error{Code: "INVALID_TOKEN", Message: "token validation failed"})
			return
		}
		userID = tokenUserID
	}
	if userID == 0 || p.Username == "" {
		client.Send(arena.EventError, &arena.Error{Code: "BAD_REQUEST", Message: "userId and username are required"})
		return
	}

	client.bind(userID, p.Username)
	client.Send(arena.EventUserJoinedSuccess, map[string]any{
		"userId":   userID,
		"username": p.Username,
	})
	h.logger.Info("user joined", "user_id", userID, "username", p.Username)
}
