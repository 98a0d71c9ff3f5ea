// Package calllog persists conversation history: one row per conversation and one
// row per handled utterance.
package calllog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wolfman30/carservice-desk/internal/dialog"
)

// Turn is one stored utterance with the replies it produced.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Utterance string    `json:"utterance"`
	Replies   []string  `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the summary row of a conversation.
type Conversation struct {
	SessionID string     `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Outcome   string     `json:"outcome,omitempty"`
	Turns     []Turn     `json:"turns"`
}

// Store writes the conversation log to PostgreSQL. It satisfies dialog.Recorder.
// A nil *Store is valid and records nothing.
type Store struct {
	db *sql.DB
}

var _ dialog.Recorder = (*Store)(nil)

// NewStore returns nil when db is nil so callers can leave logging disabled.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

func (s *Store) ConversationStarted(ctx context.Context, sessionID string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (session_id, started_at, outcome)
		VALUES ($1, $2, '')
		ON CONFLICT (session_id) DO UPDATE SET started_at = EXCLUDED.started_at, ended_at = NULL, outcome = ''
	`, sessionID, at.UTC())
	if err != nil {
		return fmt.Errorf("calllog: start conversation: %w", err)
	}
	return nil
}

func (s *Store) TurnRecorded(ctx context.Context, rec dialog.TurnRecord) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (id, session_id, stage, utterance, replies, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), rec.SessionID, string(rec.Stage), rec.Utterance, pq.Array(rec.Replies), rec.At.UTC())
	if err != nil {
		return fmt.Errorf("calllog: record turn: %w", err)
	}
	return nil
}

func (s *Store) ConversationEnded(ctx context.Context, sessionID, outcome string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET ended_at = $2, outcome = $3 WHERE session_id = $1`,
		sessionID, at.UTC(), outcome,
	)
	if err != nil {
		return fmt.Errorf("calllog: end conversation: %w", err)
	}
	return nil
}

// Transcript returns the conversation with its turns in order, or nil when the
// session was never logged.
func (s *Store) Transcript(ctx context.Context, sessionID string) (*Conversation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	conv := Conversation{SessionID: sessionID}
	var ended sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, ended_at, outcome FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&conv.StartedAt, &ended, &conv.Outcome)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("calllog: load conversation: %w", err)
	}
	if ended.Valid {
		conv.EndedAt = &ended.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stage, utterance, replies, created_at
		FROM conversation_turns
		WHERE session_id = $1
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("calllog: load turns: %w", err)
	}
	defer rows.Close()

	conv.Turns = []Turn{}
	for rows.Next() {
		t := Turn{SessionID: sessionID}
		if err := rows.Scan(&t.ID, &t.Stage, &t.Utterance, pq.Array(&t.Replies), &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("calllog: scan turn: %w", err)
		}
		conv.Turns = append(conv.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calllog: iterate turns: %w", err)
	}
	return &conv, nil
}
