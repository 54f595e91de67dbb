package handler

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
)

// getUserIDFromContext извлекает id пользователя, положенный middleware.
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	val := c.Request().Context().Value(models.UserContextKey)
	userID, ok := val.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("user id missing in request context: %w", models.ErrUnauthorized)
	}
	return userID, nil
}

func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	registrationsTotal.Inc()
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
		"diamonds": user.Diamonds,
	})
}

func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tokens, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	loginsTotal.Inc()
	return c.JSON(http.StatusOK, tokens)
}

func (h *Handler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tokens, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *Handler) logout(c echo.Context) error {
	accessUUID, _ := c.Request().Context().Value(models.AccessUUIDContextKey).(string)
	if accessUUID == "" {
		h.logger.Error("Access UUID missing in context during logout")
		return h.handleServiceError(c, models.ErrUnauthorized)
	}

	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing refresh_token in request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Подпись уже проверена на access токене, из refresh нужен только jti
	token, _, err := new(jwt.Parser).ParseUnverified(req.RefreshToken, &models.Claims{})
	if err != nil {
		return h.handleServiceError(c, models.ErrTokenMalformed)
	}
	claims, ok := token.Claims.(*models.Claims)
	if !ok || claims.ID == "" {
		return h.handleServiceError(c, models.ErrTokenMalformed)
	}

	if err := h.authService.Logout(c.Request().Context(), accessUUID, claims.ID); err != nil {
		h.logger.Error("Failed to perform logout", zap.Error(err))
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully logged out"})
}
