package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nurbakyt/phone_app/internal/repo"
)

type UserHandler struct {
	Repo *repo.GormRepo
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.Repo.ListUsers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	user, err := h.Repo.FindUserByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser changes profile fields only. Username and email are identity
// fields and stay immutable.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.FirstName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "first_name is required")
	}

	user, err := h.Repo.UpdateUserProfile(c.Request().Context(), uint(id), req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update user")
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes the account and every refresh token it owns.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Repo.DeleteUser(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete user")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
}
