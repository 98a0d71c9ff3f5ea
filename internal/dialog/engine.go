package dialog

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/carservice-desk/internal/observability/metrics"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

const sessionLockStripes = 64

// Reply is what a caller gets back for one request.
type Reply struct {
	SessionID string   `json:"session_id"`
	Messages  []string `json:"messages"`
	Done      bool     `json:"done"`
}

// TurnRecord is one handled utterance, as handed to a Recorder.
type TurnRecord struct {
	SessionID string
	Stage     Stage
	Utterance string
	Replies   []string
	At        time.Time
}

// Recorder receives the conversation history. Errors are logged and never interrupt
// the conversation.
type Recorder interface {
	ConversationStarted(ctx context.Context, sessionID string, at time.Time) error
	TurnRecorded(ctx context.Context, rec TurnRecord) error
	ConversationEnded(ctx context.Context, sessionID, outcome string, at time.Time) error
}

// Engine runs conversations keyed by session id on top of a SessionStore.
type Engine struct {
	machine  *Machine
	sessions SessionStore
	recorder Recorder
	metrics  *metrics.DialogMetrics
	logger   *logging.Logger
	now      func() time.Time
	locks    [sessionLockStripes]sync.Mutex
}

// NewEngine builds an engine.
func NewEngine(machine *Machine, sessions SessionStore, logger *logging.Logger) *Engine {
	if machine == nil {
		panic("dialog: machine required")
	}
	if sessions == nil {
		panic("dialog: session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{machine: machine, sessions: sessions, logger: logger, now: time.Now}
}

// WithRecorder attaches a conversation log.
func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

// WithMetrics attaches dialog metrics.
func (e *Engine) WithMetrics(m *metrics.DialogMetrics) *Engine {
	e.metrics = m
	return e
}

func (e *Engine) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &e.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

// Begin starts (or restarts) a conversation. An empty id gets a fresh one.
func (e *Engine) Begin(ctx context.Context, sessionID string) (Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	defer e.lock(sessionID)()

	s := NewSession(sessionID)
	turn := e.machine.Greet(s)
	if err := e.sessions.Save(ctx, s); err != nil {
		return Reply{}, fmt.Errorf("dialog: begin: %w", err)
	}

	e.metrics.ObserveConversation("started")
	e.logger.WithSession(sessionID).Info("conversation started")
	e.record(ctx, func(r Recorder) error { return r.ConversationStarted(ctx, sessionID, e.now()) })

	return Reply{SessionID: sessionID, Messages: turn.Messages}, nil
}

// Advance handles one utterance. Unknown ids start a new session at the welcome stage.
// The session is deleted once the conversation closes.
func (e *Engine) Advance(ctx context.Context, sessionID, utterance string) (Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Reply{}, ErrEmptySessionID
	}
	defer e.lock(sessionID)()

	started := e.now()
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("dialog: advance: %w", err)
	}
	if s == nil {
		s = NewSession(sessionID)
		e.metrics.ObserveConversation("started")
		e.record(ctx, func(r Recorder) error { return r.ConversationStarted(ctx, sessionID, started) })
	}

	stage, lastOutcome := s.Stage, s.Outcome
	turn := e.machine.Step(ctx, s, utterance)
	log := e.logger.WithSession(sessionID)
	if turn.Outcome != "" && !turn.Done {
		s.Outcome = turn.Outcome
	}

	if turn.Done {
		if err := e.sessions.Delete(ctx, sessionID); err != nil {
			log.Warn("failed to delete closed session", "error", err)
		}
	} else if err := e.sessions.Save(ctx, s); err != nil {
		return Reply{}, fmt.Errorf("dialog: advance: %w", err)
	}

	e.metrics.ObserveTurn(string(stage), e.now().Sub(started).Seconds())
	log.Info("turn handled", "stage", string(stage), "next_stage", string(s.Stage), "outcome", turn.Outcome)

	e.record(ctx, func(r Recorder) error {
		return r.TurnRecorded(ctx, TurnRecord{
			SessionID: sessionID,
			Stage:     stage,
			Utterance: utterance,
			Replies:   turn.Messages,
			At:        started,
		})
	})
	if turn.Done {
		outcome := lastOutcome
		if outcome == "" {
			outcome = turn.Outcome
		}
		e.metrics.ObserveConversation("completed")
		e.record(ctx, func(r Recorder) error { return r.ConversationEnded(ctx, sessionID, outcome, e.now()) })
	}

	return Reply{SessionID: sessionID, Messages: turn.Messages, Done: turn.Done}, nil
}

func (e *Engine) record(ctx context.Context, fn func(Recorder) error) {
	if e.recorder == nil {
		return
	}
	if err := fn(e.recorder); err != nil {
		e.logger.Warn("conversation log write failed", "error", err)
	}
}
