package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
)

// TokenVerifier проверяет строку токена и возвращает claims.
// Ошибки: models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// Auth создает echo middleware для проверки JWT и ролей. Извлекает токен из
// заголовка Authorization, верифицирует его через verifier, проверяет роли и
// кладет UserID/Roles/AccessUUID в контекст запроса.
func Auth(verifier TokenVerifier, logger *zap.Logger, requiredRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			log := logger.With(zap.String("path", c.Path()))

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Authorization header missing")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Missing token")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("Malformed Authorization header")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Malformed token header")
			}
			tokenString := parts[1]

			claims, err := verifier(ctx, tokenString)
			if err != nil {
				status := http.StatusUnauthorized
				msg := "Unauthorized: Invalid token"
				switch {
				case errors.Is(err, models.ErrTokenExpired):
					msg = "Unauthorized: Token expired"
				case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
					// Одинаковое сообщение для невалидного и некорректного формата
				default:
					log.Error("Unexpected token verification error", zap.Error(err))
					status = http.StatusInternalServerError
					msg = "Internal server error during token verification"
				}
				log.Warn("Token verification failed", zap.Error(err))
				return echo.NewHTTPError(status, msg)
			}

			if len(requiredRoles) > 0 && !hasAnyRole(claims.Roles, requiredRoles) {
				log.Warn("User does not have required role",
					zap.Stringer("userID", claims.UserID),
					zap.Strings("userRoles", claims.Roles),
					zap.Strings("requiredRoles", requiredRoles))
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden: Insufficient permissions")
			}

			ctx = context.WithValue(ctx, models.UserContextKey, claims.UserID)
			ctx = context.WithValue(ctx, models.RolesContextKey, claims.Roles)
			ctx = context.WithValue(ctx, models.AccessUUIDContextKey, claims.ID)
			c.SetRequest(c.Request().WithContext(ctx))

			log.Debug("User authorized", zap.Stringer("userID", claims.UserID), zap.Strings("roles", claims.Roles))
			return next(c)
		}
	}
}

func hasAnyRole(userRoles, requiredRoles []string) bool {
	for _, required := range requiredRoles {
		for _, role := range userRoles {
			if role == required {
				return true
			}
		}
	}
	return false
}
