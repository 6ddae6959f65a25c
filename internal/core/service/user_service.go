package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// UserService implements directory and profile management. All authorization
// decisions are delegated to the pure tables in the domain package; this
// layer only loads state, applies the decision, and persists the outcome.
type UserService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	identity ports.IdentityProvider
	logger   zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	identity ports.IdentityProvider,
	logger zerolog.Logger,
) *UserService {
	return &UserService{users: users, sessions: sessions, identity: identity, logger: logger}
}

// actorUser resolves the acting identity to its stored profile. The session
// carries role and id, but visibility decisions need the full record.
func (s *UserService) actorUser(ctx context.Context, actor ports.Actor) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load actor profile: %w", err)
	}
	return u, nil
}

func (s *UserService) ListVisible(ctx context.Context, actor ports.Actor) ([]domain.User, error) {
	viewer, err := s.actorUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	visible := make([]domain.User, 0, len(all))
	// The viewer's own record always leads the directory.
	visible = append(visible, domain.ApplyDefaults(*viewer))
	for _, u := range all {
		if u.ID == viewer.ID {
			continue
		}
		if domain.CanViewUser(viewer, u) {
			visible = append(visible, domain.ApplyDefaults(*u))
		}
	}
	return visible, nil
}

func (s *UserService) Get(ctx context.Context, actor ports.Actor, targetID string) (*domain.User, error) {
	viewer, err := s.actorUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	// An invisible profile reads the same as a missing one.
	if !domain.CanViewUser(viewer, target) {
		return nil, domain.ErrUserNotFound
	}
	out := domain.ApplyDefaults(*target)
	return &out, nil
}

func (s *UserService) Edit(ctx context.Context, actor ports.Actor, targetID string, fields map[string]string) error {
	actorProfile, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return err
	}

	requested := make([]string, 0, len(fields))
	for name := range fields {
		requested = append(requested, name)
	}

	allowed, err := domain.EditableFields(actorProfile, target, requested)
	if err != nil {
		return err
	}

	updates := make(map[string]string, len(allowed))
	for _, name := range allowed {
		updates[name] = fields[name]
	}
	if err := s.users.UpdateFields(ctx, targetID, updates); err != nil {
		return fmt.Errorf("edit user: %w", err)
	}

	s.logger.Info().
		Str("actor", actor.Username).
		Str("target_id", targetID).
		Strs("fields", allowed).
		Msg("profile updated")
	return nil
}

func (s *UserService) ChangeRole(ctx context.Context, actor ports.Actor, targetID string, newRole domain.Role) error {
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !domain.CanChangeRole(actor.Role, target.Role, newRole) {
		return domain.ErrForbidden
	}
	if err := s.users.SetRole(ctx, targetID, newRole); err != nil {
		return fmt.Errorf("change role: %w", err)
	}

	s.logger.Info().
		Str("actor", actor.Username).
		Str("target_id", targetID).
		Str("from", string(target.Role)).
		Str("to", string(newRole)).
		Msg("role changed")
	return nil
}

func (s *UserService) ToggleStatus(ctx context.Context, actor ports.Actor, targetID string) (domain.Status, error) {
	if !domain.CanToggleStatus(actor.Role) {
		return "", domain.ErrForbidden
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return "", err
	}

	next := target.Status.Toggled()
	if err := s.users.SetStatus(ctx, targetID, next); err != nil {
		return "", fmt.Errorf("toggle status: %w", err)
	}

	s.logger.Info().
		Str("actor", actor.Username).
		Str("target_id", targetID).
		Str("status", string(next)).
		Msg("status toggled")
	return next, nil
}

func (s *UserService) Delete(ctx context.Context, actor ports.Actor, targetID string) (bool, error) {
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	if !domain.CanDeleteUser(actor.Role, target.Role) {
		return false, domain.ErrForbidden
	}

	if err := s.identity.DeleteAccount(ctx, targetID); err != nil {
		return false, fmt.Errorf("delete user: provider account: %w", err)
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return false, fmt.Errorf("delete user: profile: %w", err)
	}

	selfDeleted := actor.ID == targetID
	if selfDeleted {
		// Removing yourself also tears down every session you hold.
		if err := s.sessions.DeleteByUser(ctx, targetID); err != nil &&
			!errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn().Err(err).Str("user_id", targetID).Msg("account removed but session teardown failed")
		}
	}

	s.logger.Info().
		Str("actor", actor.Username).
		Str("target_id", targetID).
		Bool("self", selfDeleted).
		Msg("user deleted")
	return selfDeleted, nil
}
