package dialog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// DefaultIdleTimeout evicts sessions nobody has spoken to for this long.
const DefaultIdleTimeout = 30 * time.Minute

// MemorySessionStore keeps sessions in process memory. Expired sessions are invisible
// to Load immediately and are removed by a periodic sweep once Start is called.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	idle     time.Duration
	now      func() time.Time
	logger   *logging.Logger
	cron     *cron.Cron
}

// NewMemorySessionStore creates a store with the given idle timeout (DefaultIdleTimeout
// when zero or negative).
func NewMemorySessionStore(idle time.Duration, logger *logging.Logger) *MemorySessionStore {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		idle:     idle,
		now:      time.Now,
		logger:   logger,
	}
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if m.expired(s) {
		delete(m.sessions, id)
		return nil, nil
	}
	return &s, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return ErrEmptySessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *s
	stored.UpdatedAt = m.now()
	m.sessions[s.ID] = stored
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of sessions held, expired or not.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops every expired session and returns how many were removed.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *MemorySessionStore) expired(s Session) bool {
	return m.now().Sub(s.UpdatedAt) > m.idle
}

// Start schedules Sweep on the given interval.
func (m *MemorySessionStore) Start(every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		if n := m.Sweep(); n > 0 {
			m.logger.Debug("expired sessions swept", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("dialog: schedule session sweep: %w", err)
	}
	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()
	c.Start()
	return nil
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (m *MemorySessionStore) Stop(ctx context.Context) {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}
