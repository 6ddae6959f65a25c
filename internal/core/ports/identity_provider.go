package ports

import "context"

// IdentityProvider is the external credential authority. It owns passwords
// and issues opaque subject ids; profiles stored locally are keyed by those
// ids.
type IdentityProvider interface {
	// VerifyCredentials checks an email/password pair and returns the subject
	// id on success, domain.ErrInvalidCredentials otherwise.
	VerifyCredentials(ctx context.Context, email, password string) (string, error)
	// CreateAccount registers a new credential set and returns the issued
	// subject id.
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	// EnsureAccount creates the account with a fixed subject id if it does
	// not exist yet, returning the effective subject id. Used by the root
	// bootstrap; safe to call repeatedly.
	EnsureAccount(ctx context.Context, subjectID, email, password, displayName string) (string, error)
	DeleteAccount(ctx context.Context, subjectID string) error
	// UpdatePassword re-authenticates with the current password and then
	// replaces it. Either step failing yields domain.ErrInvalidCredentials.
	UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) error
}
