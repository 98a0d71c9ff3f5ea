package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/carservice-desk/internal/calllog"
	"github.com/wolfman30/carservice-desk/internal/dialog"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

type fakeConversations struct {
	mu         sync.Mutex
	utterances []string
	advanceErr error
}

func (f *fakeConversations) Begin(_ context.Context, id string) (dialog.Reply, error) {
	if id == "" {
		id = "generated-1"
	}
	return dialog.Reply{SessionID: id, Messages: []string{"Good morning! May I know your name please?"}}, nil
}

func (f *fakeConversations) Advance(_ context.Context, id, text string) (dialog.Reply, error) {
	f.mu.Lock()
	f.utterances = append(f.utterances, text)
	f.mu.Unlock()
	if f.advanceErr != nil {
		return dialog.Reply{}, f.advanceErr
	}
	if text == "bye" {
		return dialog.Reply{SessionID: id, Messages: []string{"Thank you! Have a wonderful day!"}, Done: true}, nil
	}
	return dialog.Reply{SessionID: id, Messages: []string{"You said your name is " + text + ".", "Is that correct?"}}, nil
}

type fakeHistory struct {
	conv *calllog.Conversation
	err  error
}

func (f fakeHistory) Transcript(context.Context, string) (*calllog.Conversation, error) {
	return f.conv, f.err
}

func dial(t *testing.T, h *Handler, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	var msg OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	return msg
}

func TestWebSocket_NewSessionGreets(t *testing.T) {
	h := NewHandler(&fakeConversations{}, nil, logging.Discard())
	conn := dial(t, h, "")

	session := receive(t, conn)
	assert.Equal(t, "session", session.Type)
	assert.Equal(t, "generated-1", session.SessionID)

	greeting := receive(t, conn)
	assert.Equal(t, "message", greeting.Type)
	assert.Equal(t, "assistant", greeting.Role)
	assert.Contains(t, greeting.Text, "May I know your name")
}

func TestWebSocket_MessageRoundTrip(t *testing.T) {
	conv := &fakeConversations{}
	h := NewHandler(conv, nil, logging.Discard())
	conn := dial(t, h, "?session=sess-1")

	assert.Equal(t, "session", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	assert.Equal(t, "pong", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "John Smith"}))
	assert.Equal(t, "typing", receive(t, conn).Type)
	assert.Equal(t, "You said your name is John Smith.", receive(t, conn).Text)
	assert.Equal(t, "Is that correct?", receive(t, conn).Text)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "bye"}))
	assert.Equal(t, "typing", receive(t, conn).Type)
	assert.Equal(t, "Thank you! Have a wonderful day!", receive(t, conn).Text)
	done := receive(t, conn)
	assert.Equal(t, "done", done.Type)
	assert.Equal(t, "sess-1", done.SessionID)

	conv.mu.Lock()
	defer conv.mu.Unlock()
	assert.Equal(t, []string{"John Smith", "bye"}, conv.utterances)
}

func TestWebSocket_EngineErrorIsGeneric(t *testing.T) {
	h := NewHandler(&fakeConversations{advanceErr: errors.New("redis: connection refused")}, nil, logging.Discard())
	conn := dial(t, h, "?session=sess-1")
	receive(t, conn)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "hello"}))
	assert.Equal(t, "typing", receive(t, conn).Type)
	msg := receive(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.NotContains(t, msg.Text, "redis")
}

func TestWebSocket_ReplaysHistory(t *testing.T) {
	at := time.Date(2025, 12, 3, 9, 30, 0, 0, time.UTC)
	history := fakeHistory{conv: &calllog.Conversation{
		SessionID: "sess-1",
		Turns: []calllog.Turn{
			{Utterance: "John Smith", Replies: []string{"You said your name is John Smith. Is that correct? Say yes or no."}, CreatedAt: at},
		},
	}}
	h := NewHandler(&fakeConversations{}, history, logging.Discard())
	conn := dial(t, h, "?session=sess-1")

	receive(t, conn)
	msg := receive(t, conn)
	require.Equal(t, "history", msg.Type)
	require.Len(t, msg.Messages, 2)
	assert.Equal(t, "user", msg.Messages[0].Role)
	assert.Equal(t, "John Smith", msg.Messages[0].Text)
	assert.Equal(t, "assistant", msg.Messages[1].Role)
	assert.Equal(t, "2025-12-03T09:30:00Z", msg.Messages[1].Timestamp)
}

func TestHandleHistory(t *testing.T) {
	h := NewHandler(&fakeConversations{}, fakeHistory{err: errors.New("db down")}, logging.Discard())

	w := httptest.NewRecorder()
	h.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/chat/history", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/chat/history?session=sess-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Messages []HistoryMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotNil(t, body.Messages)
	assert.Empty(t, body.Messages)
}

func TestLoadHistoryKeepsNewest(t *testing.T) {
	turns := make([]calllog.Turn, 0, 10)
	for i := 0; i < 10; i++ {
		turns = append(turns, calllog.Turn{Utterance: "u", Replies: []string{"a", "b"}})
	}
	h := NewHandler(&fakeConversations{}, fakeHistory{conv: &calllog.Conversation{Turns: turns}}, logging.Discard())

	history := h.loadHistory(context.Background(), "sess-1", 5)
	require.Len(t, history, 5)
	assert.Equal(t, "b", history[4].Text)
}
