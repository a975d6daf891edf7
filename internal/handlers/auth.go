package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nurbakyt/phone_app/internal/mykafka"
	"github.com/nurbakyt/phone_app/internal/repo"
	"github.com/nurbakyt/phone_app/internal/service"
)

type AuthHandler struct {
	Svc      *service.AuthService
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.FirstName == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "first_name, email and password are required")
	}
	// an absent username falls back to the email
	if req.Username == "" {
		req.Username = req.Email
	}

	err := h.Svc.Register(c.Request().Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateUsername):
			return echo.NewHTTPError(http.StatusBadRequest, "username already exists")
		case errors.Is(err, repo.ErrDuplicateEmail):
			return echo.NewHTTPError(http.StatusBadRequest, "email already exists")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
		}
	}

	h.publish(c, req.Username, map[string]interface{}{
		"type":     "user_registered",
		"username": req.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "User registered successfully"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	pair, err := h.Svc.Login(c.Request().Context(), c.RealIP(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	h.publish(c, username, map[string]interface{}{
		"type":     "user_logged_in",
		"username": username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

func refreshTokenParam(c echo.Context) string {
	if v := c.FormValue("refresh_token"); v != "" {
		return v
	}
	return c.QueryParam("refresh_token")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	token := refreshTokenParam(c)

	if err := h.Svc.Logout(c.Request().Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	token := refreshTokenParam(c)

	access, err := h.Svc.Refresh(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": access,
		"token_type":   "bearer",
	})
}
