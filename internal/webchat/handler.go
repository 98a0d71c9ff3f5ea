// Package webchat carries the booking conversation over a websocket so a browser can
// talk to the desk without polling.
package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/carservice-desk/internal/calllog"
	"github.com/wolfman30/carservice-desk/internal/dialog"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

const historyLimit = 50

// Conversations runs dialog turns. *dialog.Engine satisfies it.
type Conversations interface {
	Begin(ctx context.Context, sessionID string) (dialog.Reply, error)
	Advance(ctx context.Context, sessionID, utterance string) (dialog.Reply, error)
}

// HistoryStore reads earlier turns of a session. *calllog.Store satisfies it.
type HistoryStore interface {
	Transcript(ctx context.Context, sessionID string) (*calllog.Conversation, error)
}

// Handler serves web chat connections.
type Handler struct {
	conversations Conversations
	history       HistoryStore
	logger        *logging.Logger
}

// InboundMessage is what the browser sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping", "restart"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the browser.
type OutboundMessage struct {
	Type      string           `json:"type"` // "session", "message", "typing", "history", "done", "error", "pong"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"` // "assistant" or "user"
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is one line of a replayed conversation.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler. history may be nil.
func NewHandler(conversations Conversations, history HistoryStore, logger *logging.Logger) *Handler {
	if conversations == nil {
		panic("webchat: conversations required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{conversations: conversations, history: history, logger: logger}
}

// HandleWebSocket upgrades to WebSocket and relays utterances to the dialog engine.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))

	if sessionID == "" {
		reply, err := h.conversations.Begin(ctx, "")
		if err != nil {
			h.logger.Error("webchat: begin failed", "error", err)
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Sorry, something went wrong. Please try again."})
			return
		}
		sessionID = reply.SessionID
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
		h.sendReply(conn, reply)
	} else {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
		if history := h.loadHistory(ctx, sessionID, historyLimit); len(history) > 0 {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
		}
	}

	log := h.logger.WithSession(sessionID)
	log.Info("webchat: connection opened")

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			log.Debug("webchat: connection closed", "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "restart":
			reply, err := h.conversations.Begin(ctx, sessionID)
			if err != nil {
				log.Error("webchat: restart failed", "error", err)
				_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Sorry, something went wrong. Please try again."})
				continue
			}
			h.sendReply(conn, reply)
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})
			reply, err := h.conversations.Advance(ctx, sessionID, msg.Text)
			if err != nil {
				log.Error("webchat: turn failed", "error", err)
				_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Sorry, something went wrong. Please try again."})
				continue
			}
			h.sendReply(conn, reply)
		}
	}
}

func (h *Handler) sendReply(conn *websocket.Conn, reply dialog.Reply) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, text := range reply.Messages {
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:      "message",
			Role:      "assistant",
			Text:      text,
			Timestamp: now,
		})
	}
	if reply.Done {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "done", SessionID: reply.SessionID})
	}
}

func (h *Handler) loadHistory(ctx context.Context, sessionID string, limit int) []HistoryMessage {
	if h.history == nil {
		return nil
	}
	conv, err := h.history.Transcript(ctx, sessionID)
	if err != nil {
		h.logger.Warn("webchat: failed to load history", "session_id", sessionID, "error", err)
		return nil
	}
	if conv == nil {
		return nil
	}

	history := make([]HistoryMessage, 0, len(conv.Turns)*2)
	for _, turn := range conv.Turns {
		ts := turn.CreatedAt.UTC().Format(time.RFC3339)
		history = append(history, HistoryMessage{Role: "user", Text: turn.Utterance, Timestamp: ts})
		for _, reply := range turn.Replies {
			history = append(history, HistoryMessage{Role: "assistant", Text: reply, Timestamp: ts})
		}
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// HandleHistory returns the replayable history of a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	history := h.loadHistory(r.Context(), sessionID, 2*historyLimit)
	if history == nil {
		history = []HistoryMessage{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"messages": history})
}
