package ports

import (
	"context"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// SessionStore keeps server-side session records for the lifetime of their
// validity window.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session) error
	Find(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser destroys every session belonging to a user, used when an
	// account deletes itself.
	DeleteByUser(ctx context.Context, userID string) error
}
