package dialog

import (
	"context"
	"errors"
)

// ErrEmptySessionID is returned when a store is asked about a blank id.
var ErrEmptySessionID = errors.New("dialog: session id required")

// SessionStore keeps sessions between turns. Load returns nil, nil when the session
// does not exist or has expired.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
