package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"love-sim-server/internal/middleware"
	"love-sim-server/internal/models"
)

func performRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *models.Claims) {
	t.Helper()

	e := echo.New()
	var seen *models.Claims
	handler := mw(func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, _ := ctx.Value(models.UserContextKey).(uuid.UUID)
		roles, _ := ctx.Value(models.RolesContextKey).([]string)
		accessUUID, _ := ctx.Value(models.AccessUUIDContextKey).(string)
		seen = &models.Claims{UserID: userID, Roles: roles}
		seen.ID = accessUUID
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	validClaims := &models.Claims{
		UserID: userID,
		Roles:  []string{models.RoleUser},
	}
	validClaims.ID = "access-uuid-1"

	okVerifier := func(ctx context.Context, token string) (*models.Claims, error) {
		require.Equal(t, "good-token", token)
		return validClaims, nil
	}

	t.Run("Missing Authorization header", func(t *testing.T) {
		mw := middleware.Auth(okVerifier, zap.NewNop())
		rec, seen := performRequest(t, mw, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("Malformed header", func(t *testing.T) {
		mw := middleware.Auth(okVerifier, zap.NewNop())
		rec, seen := performRequest(t, mw, "Token good-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("Valid token injects identity into context", func(t *testing.T) {
		mw := middleware.Auth(okVerifier, zap.NewNop())
		rec, seen := performRequest(t, mw, "Bearer good-token")
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, userID, seen.UserID)
		assert.Equal(t, []string{models.RoleUser}, seen.Roles)
		assert.Equal(t, "access-uuid-1", seen.ID)
	})

	t.Run("Bearer keyword is case-insensitive", func(t *testing.T) {
		mw := middleware.Auth(okVerifier, zap.NewNop())
		rec, _ := performRequest(t, mw, "bearer good-token")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Expired token", func(t *testing.T) {
		verifier := func(ctx context.Context, token string) (*models.Claims, error) {
			return nil, models.ErrTokenExpired
		}
		mw := middleware.Auth(verifier, zap.NewNop())
		rec, seen := performRequest(t, mw, "Bearer good-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("Unexpected verifier error is a server error", func(t *testing.T) {
		verifier := func(ctx context.Context, token string) (*models.Claims, error) {
			return nil, context.DeadlineExceeded
		}
		mw := middleware.Auth(verifier, zap.NewNop())
		rec, _ := performRequest(t, mw, "Bearer good-token")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Role required and missing", func(t *testing.T) {
		mw := middleware.Auth(okVerifier, zap.NewNop(), models.RoleAdmin)
		rec, seen := performRequest(t, mw, "Bearer good-token")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("Role required and present", func(t *testing.T) {
		adminClaims := &models.Claims{
			UserID: userID,
			Roles:  []string{models.RoleUser, models.RoleAdmin},
		}
		adminClaims.ID = "access-uuid-2"
		verifier := func(ctx context.Context, token string) (*models.Claims, error) {
			return adminClaims, nil
		}
		mw := middleware.Auth(verifier, zap.NewNop(), models.RoleAdmin)
		rec, seen := performRequest(t, mw, "Bearer good-token")
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, []string{models.RoleUser, models.RoleAdmin}, seen.Roles)
	})
}
