package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"love-sim-server/internal/config"
	"love-sim-server/internal/models"
	"love-sim-server/internal/repository"
)

// AuthService управляет регистрацией, входом и жизненным циклом токенов.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.TokenDetails, error)
	Logout(ctx context.Context, accessUUID, refreshUUID string) error
	Refresh(ctx context.Context, refreshTokenString string) (*models.TokenDetails, error)
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ AuthService = (*authServiceImpl)(nil)

type authServiceImpl struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	cfg       *config.Config
	logger    *zap.Logger
}

// NewAuthService создает сервис аутентификации.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, cfg *config.Config, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
		logger:    logger.Named("AuthService"),
	}
}

// Register создает нового пользователя со стартовым балансом алмазов.
func (s *authServiceImpl) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
	}
	if username == "" || password == "" {
		s.logger.Warn("Registration attempt with empty username or password", logFields...)
		return nil, models.ErrInvalidInput
	}

	// Проверка существования пользователя по username
	existingUser, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		s.logger.Error("Error checking existing username during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error checking existing username: %w", err)
	}
	if existingUser != nil {
		s.logger.Warn("Registration attempt for existing username", logFields...)
		return nil, models.ErrUserAlreadyExists
	}

	// Проверка существования пользователя по email
	existingUser, err = s.userRepo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		s.logger.Error("Error checking existing email during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error checking existing email: %w", err)
	}
	if existingUser != nil {
		s.logger.Warn("Registration attempt for existing email", logFields...)
		return nil, models.ErrEmailAlreadyExists
	}

	hashedPassword, err := hashPassword(password, s.cfg.PasswordPepper)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  username,
		Diamonds:     s.cfg.StartingDiamonds,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, models.ErrUserAlreadyExists) && !errors.Is(err, models.ErrEmailAlreadyExists) {
			s.logger.Error("Failed to create user via repository", append(logFields, zap.Error(err))...)
		}
		return nil, err
	}

	s.logger.Info("User registered successfully", zap.Stringer("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login аутентифицирует пользователя с учетом блокировки после серии
// неудачных попыток.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*models.TokenDetails, error) {
	s.logger.Info("Login attempt", zap.String("username", username))
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("username", username))
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("Login failed: error getting user from repository", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now()
	if user.IsLockedAt(now) {
		s.logger.Warn("Login failed: account is locked",
			zap.String("username", username),
			zap.Timep("lockedUntil", user.LockedUntil))
		return nil, models.ErrUserLocked
	}

	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		// Неверный пароль: увеличиваем счетчик, при достижении лимита блокируем
		var lockedUntil *time.Time
		if user.FailedLoginAttempts+1 >= s.cfg.MaxLoginAttempts {
			until := now.Add(s.cfg.LoginLockDuration)
			lockedUntil = &until
		}
		if recErr := s.userRepo.RecordLoginFailure(ctx, user.ID, lockedUntil); recErr != nil {
			s.logger.Error("Failed to record login failure", zap.Error(recErr), zap.Stringer("userID", user.ID))
		}
		s.logger.Warn("Login failed: invalid password",
			zap.String("username", username),
			zap.Stringer("userID", user.ID),
			zap.Int("failedAttempts", user.FailedLoginAttempts+1))
		if lockedUntil != nil {
			return nil, models.ErrUserLocked
		}
		return nil, models.ErrInvalidCredentials
	}

	if err := s.userRepo.ResetLoginFailures(ctx, user.ID); err != nil {
		s.logger.Error("Failed to reset login failures", zap.Error(err), zap.Stringer("userID", user.ID))
	}

	td, err := s.createTokens(user)
	if err != nil {
		s.logger.Error("Failed to create tokens during login", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to create tokens: %w", err)
	}

	if err := s.tokenRepo.SetToken(ctx, user.ID, td); err != nil {
		s.logger.Error("Failed to save token details during login", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to save token details: %w", err)
	}

	s.logger.Info("User logged in successfully", zap.Stringer("userID", user.ID))
	return td, nil
}

// Logout удаляет access и refresh токены из хранилища.
func (s *authServiceImpl) Logout(ctx context.Context, accessUUID, refreshUUID string) error {
	log := s.logger.With(zap.String("accessUUID", accessUUID), zap.String("refreshUUID", refreshUUID))
	log.Debug("Attempting to logout user by deleting tokens")

	deletedCount, err := s.tokenRepo.DeleteTokens(ctx, accessUUID, refreshUUID)
	if err != nil {
		// Токены могли уже истечь, клиенту это не мешает
		log.Error("Failed to delete tokens during logout", zap.Error(err))
	}

	if deletedCount > 0 {
		log.Info("Tokens deleted successfully during logout", zap.Int64("deletedCount", deletedCount))
	} else {
		log.Info("No tokens found to delete during logout (already expired or logged out)")
	}

	return nil
}

// Refresh выпускает новую пару токенов по валидному refresh токену.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshTokenString string) (*models.TokenDetails, error) {
	s.logger.Info("Token refresh attempt")
	claims, err := s.parseClaims(refreshTokenString)
	if err != nil {
		return nil, err
	}

	refreshUUID := claims.ID
	userID, err := s.tokenRepo.GetUserIDByRefreshUUID(ctx, refreshUUID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Warn("Refresh attempt with invalid/revoked token in store", zap.String("refreshUUID", refreshUUID))
			return nil, models.ErrTokenNotFound
		}
		s.logger.Error("Error checking refresh token existence", zap.Error(err), zap.String("refreshUUID", refreshUUID))
		return nil, fmt.Errorf("error checking refresh token existence: %w", err)
	}

	if userID != claims.UserID {
		s.logger.Error("Refresh token user ID mismatch",
			zap.Stringer("tokenUserID", claims.UserID),
			zap.Stringer("repoUserID", userID))
		return nil, models.ErrTokenInvalid
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("User from valid refresh token not found in DB", zap.Stringer("userID", userID))
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to get user for refresh: %w", err)
	}

	newTd, err := s.createTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create new tokens during refresh: %w", err)
	}

	if _, delErr := s.tokenRepo.DeleteTokens(ctx, "", refreshUUID); delErr != nil {
		s.logger.Error("Non-critical: failed to delete old refresh token during refresh", zap.Error(delErr))
	}

	if err := s.tokenRepo.SetToken(ctx, user.ID, newTd); err != nil {
		s.logger.Error("Failed to save new token details during refresh", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to save new token details: %w", err)
	}

	s.logger.Info("Token refreshed successfully", zap.Stringer("userID", user.ID))
	return newTd, nil
}

// VerifyAccessToken проверяет подпись, срок действия и наличие токена
// в хранилище.
func (s *authServiceImpl) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	s.logger.Debug("Verifying access token")
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokenRepo.GetUserIDByAccessUUID(ctx, claims.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Debug("Access token not found in store (revoked/logged out)", zap.String("accessUUID", claims.ID))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error checking access token existence", zap.Error(err), zap.String("accessUUID", claims.ID))
		return nil, fmt.Errorf("error checking access token existence: %w", err)
	}

	return claims, nil
}

// parseClaims разбирает и валидирует JWT, возвращая доменные claims.
func (s *authServiceImpl) parseClaims(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Token verification failed: expired")
			return nil, models.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			s.logger.Warn("Token verification failed: malformed")
			return nil, models.ErrTokenMalformed
		}
		s.logger.Error("Failed to parse token", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		s.logger.Warn("Token verification failed (invalid claims type or signature)")
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// createTokens генерирует пару access/refresh токенов пользователя.
func (s *authServiceImpl) createTokens(user *models.User) (*models.TokenDetails, error) {
	now := time.Now()
	td := &models.TokenDetails{
		AccessUUID:  uuid.New().String(),
		RefreshUUID: uuid.New().String(),
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	signToken := func(jti string, expiresAt int64) (string, error) {
		claims := &models.Claims{
			UserID: user.ID,
			Roles:  user.Roles(),
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        jti,
				Subject:   user.ID.String(),
				Issuer:    "love-sim-server",
				ExpiresAt: jwt.NewNumericDate(time.Unix(expiresAt, 0)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		return token.SignedString([]byte(s.cfg.JWTSecret))
	}

	var err error
	if td.AccessToken, err = signToken(td.AccessUUID, td.AtExpires); err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	if td.RefreshToken, err = signToken(td.RefreshUUID, td.RtExpires); err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return td, nil
}

// --- Helper Functions ---

// applyPepper applies HMAC-SHA256 using the pepper as the key.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// hashPassword generates a bcrypt hash of the password after applying the pepper.
func hashPassword(password, pepper string) (string, error) {
	pepperedPassword := applyPepper(password, pepper)
	bytes, err := bcrypt.GenerateFromPassword(pepperedPassword, bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPasswordHash compares a plain text password (after applying pepper) with a stored hash.
func checkPasswordHash(password, hash, pepper string) bool {
	pepperedPassword := applyPepper(password, pepper)
	err := bcrypt.CompareHashAndPassword([]byte(hash), pepperedPassword)
	return err == nil
}
