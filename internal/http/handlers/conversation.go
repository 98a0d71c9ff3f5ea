package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/wolfman30/carservice-desk/internal/dialog"
	"github.com/wolfman30/carservice-desk/internal/voice"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// Conversations runs dialog turns. *dialog.Engine satisfies it.
type Conversations interface {
	Begin(ctx context.Context, sessionID string) (dialog.Reply, error)
	Advance(ctx context.Context, sessionID, utterance string) (dialog.Reply, error)
}

// ConversationHandler exposes the text and audio entry points of the booking dialog.
type ConversationHandler struct {
	conversations Conversations
	transcriber   voice.Transcriber
	logger        *logging.Logger
}

// NewConversationHandler builds the handler. transcriber may be nil, in which case
// the audio route should not be mounted.
func NewConversationHandler(conversations Conversations, transcriber voice.Transcriber, logger *logging.Logger) *ConversationHandler {
	if conversations == nil {
		panic("handlers: conversations required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConversationHandler{conversations: conversations, transcriber: transcriber, logger: logger}
}

// SupportsAudio reports whether a transcriber is configured.
func (h *ConversationHandler) SupportsAudio() bool {
	return h.transcriber != nil
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

type listenRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type listenResponse struct {
	dialog.Reply
	Transcript string `json:"transcript,omitempty"`
}

// Start handles POST /start. The body is optional; a missing session id gets a new one.
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.conversations.Begin(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("failed to start conversation", "error", err)
		jsonError(w, genericFailure, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, normalizeReply(reply))
}

// Listen handles POST /listen with one typed or already-transcribed utterance.
func (h *ConversationHandler) Listen(w http.ResponseWriter, r *http.Request) {
	var req listenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		jsonError(w, "session_id is required", http.StatusBadRequest)
		return
	}
	h.advance(w, r, req.SessionID, req.Message, "")
}

// ListenAudio handles POST /listen/audio: a multipart form with session_id and a WAV
// recording in the audio field.
func (h *ConversationHandler) ListenAudio(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil {
		jsonError(w, "speech recognition is not configured", http.StatusNotImplemented)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, voice.MaxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	if sessionID == "" {
		jsonError(w, "session_id is required", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		jsonError(w, "audio file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, voice.MaxAudioBytes+1))
	if err != nil {
		jsonError(w, "failed to read audio", http.StatusBadRequest)
		return
	}

	transcript, err := h.transcriber.Transcribe(r.Context(), audio)
	switch {
	case errors.Is(err, voice.ErrUnsupportedAudio):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, voice.ErrNoSpeech):
		writeJSON(w, http.StatusOK, listenResponse{Reply: dialog.Reply{
			SessionID: sessionID,
			Messages:  []string{"Sorry, I didn't catch that. Please say it again."},
		}})
		return
	case err != nil:
		h.logger.Error("speech recognition failed", "session_id", sessionID, "error", err)
		jsonError(w, "speech recognition failed", http.StatusBadGateway)
		return
	}
	h.advance(w, r, sessionID, transcript, transcript)
}

func (h *ConversationHandler) advance(w http.ResponseWriter, r *http.Request, sessionID, utterance, transcript string) {
	reply, err := h.conversations.Advance(r.Context(), sessionID, utterance)
	if err != nil {
		h.logger.Error("failed to advance conversation", "session_id", sessionID, "error", err)
		jsonError(w, genericFailure, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, listenResponse{Reply: normalizeReply(reply), Transcript: transcript})
}

func normalizeReply(reply dialog.Reply) dialog.Reply {
	if reply.Messages == nil {
		reply.Messages = []string{}
	}
	return reply
}
