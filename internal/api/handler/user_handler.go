package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geofield/worksheet-system/internal/api/metrics"
	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// UserHandler handles directory and profile management requests.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns the directory visible to the caller.
//
// @Summary      List visible accounts
// @Tags         users
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      401  {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	users, err := h.users.ListVisible(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one profile, subject to the directory visibility rule.
//
// @Summary      Get an account
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update applies a partial profile edit.
//
// @Summary      Edit an account's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Account id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      204   {object}  nil
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.Edit(c.Request().Context(), actor, c.Param("id"), req.fields()); err != nil {
		if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrNoEditableFields) {
			metrics.AccessDeniedTotal.WithLabelValues("edit").Inc()
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeRole moves an account to another role.
//
// @Summary      Change an account's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Account id"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  roleResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{id}/role [post]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	targetID := c.Param("id")
	if err := h.users.ChangeRole(c.Request().Context(), actor, targetID, domain.Role(req.Role)); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			metrics.AccessDeniedTotal.WithLabelValues("role").Inc()
		}
		return err
	}
	return c.JSON(http.StatusOK, roleResponse{ID: targetID, Role: req.Role})
}

// ToggleStatus flips an account between ACTIVE and INACTIVE.
//
// @Summary      Toggle an account's activation status
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id}/status [post]
func (h *UserHandler) ToggleStatus(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	targetID := c.Param("id")
	status, err := h.users.ToggleStatus(c.Request().Context(), actor, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			metrics.AccessDeniedTotal.WithLabelValues("status").Inc()
		}
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{ID: targetID, Status: string(status)})
}

// Delete removes an account. When the caller removes itself, its session
// cookie is cleared along with the server-side sessions.
//
// @Summary      Delete an account
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "Account id"
// @Success      204  {object}  nil
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	selfDeleted, err := h.users.Delete(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			metrics.AccessDeniedTotal.WithLabelValues("delete").Inc()
		}
		return err
	}

	if selfDeleted {
		c.SetCookie(expiredSessionCookie())
	}
	return c.NoContent(http.StatusNoContent)
}
