package ports

import (
	"context"

	"github.com/aretw0/tick/pkg/domain"
)

// SessionStore defines the interface for persisting conversation sessions.
type SessionStore interface {
	// Save persists the session for a given conversation ID.
	Save(ctx context.Context, conversationID string, session domain.Session) error

	// Load retrieves the session for a given conversation ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, conversationID string) (domain.Session, error)

	// Delete removes the session for a given conversation ID.
	Delete(ctx context.Context, conversationID string) error

	// List returns the IDs of the stored conversations.
	List(ctx context.Context) ([]string, error)
}
