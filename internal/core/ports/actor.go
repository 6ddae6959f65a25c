package ports

import "github.com/geofield/worksheet-system/internal/core/domain"

// Actor is the authenticated identity a request acts as, derived from the
// session record by the auth middleware.
type Actor struct {
	ID       string
	Username string
	Role     domain.Role
}
