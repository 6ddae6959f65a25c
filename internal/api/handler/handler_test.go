package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// newTestEcho mirrors the production Echo setup: the request validator plus a
// status mapping for the domain sentinels the handlers pass through.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, map[string]string{"error": he.Error()})
			return
		}
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			code = http.StatusUnauthorized
		case errors.Is(err, domain.ErrAccountInactive), errors.Is(err, domain.ErrForbidden):
			code = http.StatusForbidden
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrWorksheetNotFound),
			errors.Is(err, domain.ErrFeatureNotFound):
			code = http.StatusNotFound
		case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrWorksheetExists):
			code = http.StatusConflict
		case errors.Is(err, domain.ErrRegistrationClosed), errors.Is(err, domain.ErrMissingFile),
			errors.Is(err, domain.ErrInvalidDocument), errors.Is(err, domain.ErrMissingMetadata),
			errors.Is(err, domain.ErrMissingFeatures), errors.Is(err, domain.ErrTooManyOperations),
			errors.Is(err, domain.ErrNoEditableFields):
			code = http.StatusBadRequest
		}
		_ = c.JSON(code, map[string]string{"error": err.Error()})
	}
	return e
}

// --- Stub services ---

type stubAccountService struct {
	registerFn       func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn          func(ctx context.Context, email, password string) (*domain.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	changePasswordFn func(ctx context.Context, email, current, next, confirm string) error
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAccountService) Logout(ctx context.Context, sessionID string) error {
	return s.logoutFn(ctx, sessionID)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, email, current, next, confirm string) error {
	return s.changePasswordFn(ctx, email, current, next, confirm)
}

func (s *stubAccountService) EnsureRoot(context.Context) error { return nil }

type stubUserService struct {
	listFn   func(ctx context.Context, actor ports.Actor) ([]domain.User, error)
	getFn    func(ctx context.Context, actor ports.Actor, targetID string) (*domain.User, error)
	editFn   func(ctx context.Context, actor ports.Actor, targetID string, fields map[string]string) error
	roleFn   func(ctx context.Context, actor ports.Actor, targetID string, newRole domain.Role) error
	statusFn func(ctx context.Context, actor ports.Actor, targetID string) (domain.Status, error)
	deleteFn func(ctx context.Context, actor ports.Actor, targetID string) (bool, error)
}

func (s *stubUserService) ListVisible(ctx context.Context, actor ports.Actor) ([]domain.User, error) {
	return s.listFn(ctx, actor)
}

func (s *stubUserService) Get(ctx context.Context, actor ports.Actor, targetID string) (*domain.User, error) {
	return s.getFn(ctx, actor, targetID)
}

func (s *stubUserService) Edit(ctx context.Context, actor ports.Actor, targetID string, fields map[string]string) error {
	return s.editFn(ctx, actor, targetID, fields)
}

func (s *stubUserService) ChangeRole(ctx context.Context, actor ports.Actor, targetID string, newRole domain.Role) error {
	return s.roleFn(ctx, actor, targetID, newRole)
}

func (s *stubUserService) ToggleStatus(ctx context.Context, actor ports.Actor, targetID string) (domain.Status, error) {
	return s.statusFn(ctx, actor, targetID)
}

func (s *stubUserService) Delete(ctx context.Context, actor ports.Actor, targetID string) (bool, error) {
	return s.deleteFn(ctx, actor, targetID)
}

type stubWorksheetService struct {
	listFn          func(ctx context.Context) ([]*domain.Worksheet, error)
	importFn        func(ctx context.Context, actor ports.Actor, payload []byte) (*domain.Worksheet, error)
	getFn           func(ctx context.Context, id string) (*ports.WorksheetDetail, error)
	editFn          func(ctx context.Context, actor ports.Actor, id string, upd domain.WorksheetUpdate) error
	deleteFeatureFn func(ctx context.Context, worksheetID string, index int) error
	deleteFn        func(ctx context.Context, id string) error
}

func (s *stubWorksheetService) List(ctx context.Context) ([]*domain.Worksheet, error) {
	return s.listFn(ctx)
}

func (s *stubWorksheetService) Import(ctx context.Context, actor ports.Actor, payload []byte) (*domain.Worksheet, error) {
	return s.importFn(ctx, actor, payload)
}

func (s *stubWorksheetService) Get(ctx context.Context, id string) (*ports.WorksheetDetail, error) {
	return s.getFn(ctx, id)
}

func (s *stubWorksheetService) Edit(ctx context.Context, actor ports.Actor, id string, upd domain.WorksheetUpdate) error {
	return s.editFn(ctx, actor, id, upd)
}

func (s *stubWorksheetService) DeleteFeature(ctx context.Context, worksheetID string, index int) error {
	return s.deleteFeatureFn(ctx, worksheetID, index)
}

func (s *stubWorksheetService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
