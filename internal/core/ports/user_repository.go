package ports

import (
	"context"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// UserRepository defines persistence operations for account profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// List returns all profiles ordered by creation time descending.
	// Visibility filtering is the service layer's concern.
	List(ctx context.Context) ([]*domain.User, error)
	// CountNonRoot counts accounts other than the reserved root profile,
	// for the registration cap.
	CountNonRoot(ctx context.Context) (int64, error)
	// UpdateFields applies a partial update of profile attributes.
	UpdateFields(ctx context.Context, id string, fields map[string]string) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetStatus(ctx context.Context, id string, status domain.Status) error
	Delete(ctx context.Context, id string) error
}
