package ports

import (
	"context"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// UserService implements directory and profile management, with every
// decision delegated to the domain authorization tables.
type UserService interface {
	// ListVisible returns the directory the actor may see, defaults applied,
	// the actor's own record always included.
	ListVisible(ctx context.Context, actor Actor) ([]domain.User, error)
	// Get returns a single profile, subject to the same visibility rule as
	// the directory; an invisible target reads as not found.
	Get(ctx context.Context, actor Actor, targetID string) (*domain.User, error)
	// Edit applies the subset of the requested field updates the actor is
	// allowed to change on the target.
	Edit(ctx context.Context, actor Actor, targetID string, fields map[string]string) error
	ChangeRole(ctx context.Context, actor Actor, targetID string, newRole domain.Role) error
	// ToggleStatus flips the target between ACTIVE and INACTIVE and returns
	// the new status.
	ToggleStatus(ctx context.Context, actor Actor, targetID string) (domain.Status, error)
	// Delete removes the provider account and the profile. selfDeleted is
	// true when the actor removed itself, in which case all of its sessions
	// have been destroyed as well.
	Delete(ctx context.Context, actor Actor, targetID string) (selfDeleted bool, err error)
}
