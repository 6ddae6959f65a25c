package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// RootAccount configures the bootstrap ADMIN identity reconciled at startup.
type RootAccount struct {
	SubjectID string
	Email     string
	Password  string
	Name      string
}

var (
	ErrPasswordPolicy  = errors.New("password must be at least 8 characters and include a letter and a digit")
	ErrPasswordMatch   = errors.New("passwords do not match")
	ErrMissingRequired = errors.New("missing required fields")
)

// AccountService implements registration, login/logout, password change, and
// the root bootstrap.
type AccountService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	identity ports.IdentityProvider
	root     RootAccount
	logger   zerolog.Logger
	now      func() time.Time
}

func NewAccountService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	identity ports.IdentityProvider,
	root RootAccount,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		sessions: sessions,
		identity: identity,
		root:     root,
		logger:   logger,
		now:      time.Now,
	}
}

// validPassword enforces the registration password policy: at least 8
// characters, at least one letter, at least one digit.
func validPassword(pwd string) bool {
	if len(pwd) < 8 {
		return false
	}
	var letter, digit bool
	for _, r := range pwd {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Username == "" || in.Email == "" || in.Name == "" || in.Telephone == "" ||
		in.Password == "" || in.ConfirmPassword == "" {
		return nil, ErrMissingRequired
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMatch
	}
	if !validPassword(in.Password) {
		return nil, ErrPasswordPolicy
	}
	if in.Username == domain.RootUsername {
		return nil, domain.ErrUserExists
	}

	// Reject a taken username before the provider account exists, so a
	// duplicate leaves nothing behind at the provider.
	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: check username: %w", err)
	}

	// Registration-time cap; not enforced after approval.
	count, err := s.users.CountNonRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: count accounts: %w", err)
	}
	if count >= domain.MaxNonRootAccounts {
		return nil, domain.ErrRegistrationClosed
	}

	subjectID, err := s.identity.CreateAccount(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		return nil, fmt.Errorf("register: create provider account: %w", err)
	}

	user := &domain.User{
		ID:         subjectID,
		Username:   in.Username,
		Email:      in.Email,
		Name:       in.Name,
		Telephone:  in.Telephone,
		Profile:    domain.Visibility(in.Profile),
		Occupation: in.Occupation,
		Workplace:  in.Workplace,
		Address:    in.Address,
		PostalCode: in.PostalCode,
		TaxID:      in.TaxID,
		Photo:      in.Photo,
		Role:       domain.RoleEndUser,
		Status:     domain.StatusInactive,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register: store profile: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Str("user_id", user.ID).Msg("user registered, awaiting activation")
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	subjectID, err := s.identity.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Credentials exist at the provider but no profile is stored.
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: load profile: %w", err)
	}
	if user.Status != domain.StatusActive {
		return nil, domain.ErrAccountInactive
	}

	session := domain.NewSession(user, s.now().UTC())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("login: save session: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("login")
	return session, nil
}

func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, email, currentPassword, newPassword, confirmPassword string) error {
	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		return ErrMissingRequired
	}
	if newPassword != confirmPassword {
		return ErrPasswordMatch
	}
	if !validPassword(newPassword) {
		return ErrPasswordPolicy
	}
	// The provider re-authenticates with the current password before
	// accepting the new one; which step failed is not disclosed.
	if err := s.identity.UpdatePassword(ctx, email, currentPassword, newPassword); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("password change failed")
		return domain.ErrInvalidCredentials
	}
	return nil
}

// EnsureRoot reconciles the bootstrap ADMIN account: provider account and
// profile record are each created only if missing. The store's existence
// check is the serialization point, so concurrent invocations are safe.
func (s *AccountService) EnsureRoot(ctx context.Context) error {
	subjectID, err := s.identity.EnsureAccount(ctx, s.root.SubjectID, s.root.Email, s.root.Password, s.root.Name)
	if err != nil {
		return fmt.Errorf("ensure root: provider account: %w", err)
	}

	if _, err := s.users.FindByID(ctx, subjectID); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure root: lookup profile: %w", err)
	}

	root := &domain.User{
		ID:         subjectID,
		Username:   domain.RootUsername,
		Email:      s.root.Email,
		Name:       s.root.Name,
		Telephone:  "+351000000000",
		Profile:    domain.VisibilityPrivate,
		Occupation: "Admin",
		Workplace:  "System",
		Address:    "N/A",
		PostalCode: "0000-000",
		TaxID:      "000000000",
		Role:       domain.RoleAdmin,
		Status:     domain.StatusActive,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.users.Create(ctx, root); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil // lost the race to another instance; already reconciled
		}
		return fmt.Errorf("ensure root: store profile: %w", err)
	}

	s.logger.Info().Str("user_id", subjectID).Msg("root profile initialized")
	return nil
}
