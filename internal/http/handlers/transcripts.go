package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/carservice-desk/internal/calllog"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// TranscriptReader loads a logged conversation. *calllog.Store satisfies it.
type TranscriptReader interface {
	Transcript(ctx context.Context, sessionID string) (*calllog.Conversation, error)
}

// TranscriptHandler serves logged conversations for review.
type TranscriptHandler struct {
	reader TranscriptReader
	logger *logging.Logger
}

func NewTranscriptHandler(reader TranscriptReader, logger *logging.Logger) *TranscriptHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TranscriptHandler{reader: reader, logger: logger}
}

// Get handles GET /conversations/{sessionID}.
func (h *TranscriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		jsonError(w, "session id is required", http.StatusBadRequest)
		return
	}
	conv, err := h.reader.Transcript(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load transcript", "session_id", sessionID, "error", err)
		jsonError(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		jsonError(w, "conversation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
