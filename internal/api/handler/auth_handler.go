package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/geofield/worksheet-system/internal/api/metrics"
	"github.com/geofield/worksheet-system/internal/api/middleware"
	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// AuthHandler handles registration, the session lifecycle, and password
// changes.
type AuthHandler struct {
	accounts      ports.AccountService
	sessionSecret string
}

func NewAuthHandler(accounts ports.AccountService, sessionSecret string) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessionSecret: sessionSecret}
}

// Register creates a new account, pending activation.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Name:            req.Name,
		Telephone:       req.Telephone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Profile:         req.Profile,
		Occupation:      req.Occupation,
		Workplace:       req.Workplace,
		Address:         req.Address,
		PostalCode:      req.PostalCode,
		TaxID:           req.TaxID,
		Photo:           req.Photo,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationClosed) {
			metrics.RegistrationsTotal.WithLabelValues("closed").Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and establishes a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrAccountInactive):
			metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		}
		return err
	}

	token, err := middleware.SignSession(h.sessionSecret, session)
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookie(token, session.Token.ExpiresAt))

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Username:  session.Username,
		Name:      session.Name,
		Role:      string(session.Role),
		ExpiresAt: session.Token.ExpiresAt,
	})
}

// Logout destroys the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      204  {object}  nil
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Logout(c.Request().Context(), sid); err != nil {
		return err
	}

	c.SetCookie(expiredSessionCookie())
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword re-authenticates and replaces the caller's password.
//
// @Summary      Change the caller's password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Password change"
// @Success      204   {object}  nil
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	email, err := ctxEmail(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), email, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
