package ports

import (
	"context"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Username        string
	Email           string
	Name            string
	Telephone       string
	Password        string
	ConfirmPassword string
	Profile         string
	Occupation      string
	Workplace       string
	Address         string
	PostalCode      string
	TaxID           string
	Photo           string
}

// AccountService implements the session and credential flows.
type AccountService interface {
	// Register creates a provider account and an INACTIVE ENDUSER profile,
	// subject to the non-root account cap and the password policy.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login verifies credentials, requires an ACTIVE profile, and establishes
	// a session.
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	// ChangePassword re-authenticates with the current password before
	// replacing it; both failure modes surface as one authentication error.
	ChangePassword(ctx context.Context, email, currentPassword, newPassword, confirmPassword string) error
	// EnsureRoot reconciles the bootstrap ADMIN account at startup;
	// idempotent.
	EnsureRoot(ctx context.Context) error
}
