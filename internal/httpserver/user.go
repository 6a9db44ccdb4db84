package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
	"github.com/kokoleng91-netizen/shop-backend/internal/transport"
)

// User administration is a thin pass-through over the repo; there is no
// business logic beyond the role existence check.
type UserHTTP struct {
	Repo *repo.GormRepo
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	users, err := h.Repo.GetUsers(ctx)
	if err != nil {
		l.Error("list_users_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list users")
	}

	return c.JSON(http.StatusOK, users)
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_user_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	user, err := h.Repo.GetUser(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("get_user_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("get_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get user")
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update")

	id, err := parseID(c)
	if err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.Repo.GetUser(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("update_user_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("update_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get user")
	}

	if _, err := h.Repo.GetRole(ctx, req.RoleID); err != nil {
		if repo.IsNotFound(err) {
			l.Warn("update_user_error", "status", 422, "reason", "role does not exist")
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "role does not exist")
		}
		l.Error("update_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update user")
	}

	user.RoleID = req.RoleID
	user.Role = nil
	if err := h.Repo.SaveUser(ctx, user); err != nil {
		l.Error("update_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update user")
	}

	updated, err := h.Repo.GetUser(ctx, id)
	if err != nil {
		l.Error("update_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get user")
	}

	l.Info("update_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "user updated successfully",
		"user":    updated,
	})
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_user_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Repo.DeleteUser(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			l.Warn("delete_user_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("delete_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete user")
	}

	l.Info("delete_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
}
