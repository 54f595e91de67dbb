package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"love-sim-server/internal/config"
	"love-sim-server/internal/models"
	"love-sim-server/internal/repository/mocks"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-jwt-secret",
		PasswordPepper:    "test-pepper",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   time.Hour,
		StartingDiamonds:  50,
		MaxLoginAttempts:  3,
		LoginLockDuration: 15 * time.Minute,
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "mysecretpassword"
	pepper := "test-pepper"

	hashed, err := hashPassword(password, pepper)
	require.NoError(t, err)
	require.NotEmpty(t, hashed)
	assert.NotEqual(t, password, hashed)

	assert.True(t, checkPasswordHash(password, hashed, pepper))
	assert.False(t, checkPasswordHash("wrongpassword", hashed, pepper))
	// Перец участвует в хешировании: другой перец не проходит проверку
	assert.False(t, checkPasswordHash(password, hashed, "another-pepper"))
	assert.False(t, checkPasswordHash(password, "not-a-bcrypt-hash", pepper))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	cfg := testAuthConfig()

	t.Run("Successful registration with starting diamonds", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := NewAuthService(userRepo, tokenRepo, cfg, zap.NewNop())

		userRepo.On("GetUserByUsername", ctx, "alice").Return(nil, models.ErrUserNotFound).Once()
		userRepo.On("GetUserByEmail", ctx, "alice@example.com").Return(nil, models.ErrUserNotFound).Once()
		userRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			assert.Equal(t, "alice", u.Username)
			assert.Equal(t, "alice@example.com", u.Email)
			assert.Equal(t, "alice", u.DisplayName)
			assert.Equal(t, cfg.StartingDiamonds, u.Diamonds)
			assert.True(t, checkPasswordHash("password123", u.PasswordHash, cfg.PasswordPepper))
			return true
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = uuid.New()
		}).Return(nil).Once()

		user, err := svc.Register(ctx, "alice", " Alice@Example.COM ", "password123")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		// Email нормализуется: нижний регистр, без пробелов
		assert.Equal(t, "alice@example.com", user.Email)
		userRepo.AssertExpectations(t)
	})

	t.Run("Existing username", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := NewAuthService(userRepo, new(mocks.TokenRepository), cfg, zap.NewNop())

		userRepo.On("GetUserByUsername", ctx, "alice").
			Return(&models.User{ID: uuid.New(), Username: "alice"}, nil).Once()

		user, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
		userRepo.AssertExpectations(t)
	})

	t.Run("Existing email", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := NewAuthService(userRepo, new(mocks.TokenRepository), cfg, zap.NewNop())

		userRepo.On("GetUserByUsername", ctx, "alice").Return(nil, models.ErrUserNotFound).Once()
		userRepo.On("GetUserByEmail", ctx, "alice@example.com").
			Return(&models.User{ID: uuid.New(), Email: "alice@example.com"}, nil).Once()

		user, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)
		userRepo.AssertExpectations(t)
	})

	t.Run("Invalid email format", func(t *testing.T) {
		svc := NewAuthService(new(mocks.UserRepository), new(mocks.TokenRepository), cfg, zap.NewNop())

		user, err := svc.Register(ctx, "alice", "not-an-email", "password123")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Empty password", func(t *testing.T) {
		svc := NewAuthService(new(mocks.UserRepository), new(mocks.TokenRepository), cfg, zap.NewNop())

		user, err := svc.Register(ctx, "alice", "alice@example.com", "")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	cfg := testAuthConfig()

	makeUser := func(t *testing.T) *models.User {
		t.Helper()
		hash, err := hashPassword("password123", cfg.PasswordPepper)
		require.NoError(t, err)
		return &models.User{
			ID:           uuid.New(),
			Username:     "alice",
			PasswordHash: hash,
		}
	}

	t.Run("Successful login resets failures and stores tokens", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := NewAuthService(userRepo, tokenRepo, cfg, zap.NewNop())
		user := makeUser(t)

		userRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil).Once()
		userRepo.On("ResetLoginFailures", ctx, user.ID).Return(nil).Once()
		tokenRepo.On("SetToken", ctx, user.ID, mock.MatchedBy(func(td *models.TokenDetails) bool {
			return td.AccessToken != "" && td.RefreshToken != "" &&
				td.AccessUUID != "" && td.RefreshUUID != ""
		})).Return(nil).Once()

		td, err := svc.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, td.AccessToken)
		assert.NotEqual(t, td.AccessToken, td.RefreshToken)
		userRepo.AssertExpectations(t)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("Unknown user", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := NewAuthService(userRepo, new(mocks.TokenRepository), cfg, zap.NewNop())

		userRepo.On("GetUserByUsername", ctx, "ghost").Return(nil, models.ErrUserNotFound).Once()

		td, err := svc.Login(ctx, "ghost", "password123")
		assert.Nil(t, td)
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("Wrong password below limit records failure", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := NewAuthService(userRepo, new(mocks.TokenRepository), cfg, zap.NewNop())
		user := makeUser(t)
		user.FailedLoginAttempts = 0

		userRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil).Once()
		userRepo.On("RecordLoginFailure", ctx, user.ID, (*time.Time)(nil)).Return(nil).Once()

		td, err := svc.Login(ctx, "alice", "wrongpassword")
		assert.Nil(t, td)
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		userRepo.AssertExpectations(t)
	})

	t.Run("Wrong password at limit locks the account", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := NewAuthService(userRepo, new(mocks.TokenRepository), cfg, zap.NewNop())
		user := makeUser(t)
		user.FailedLoginAttempts = cfg.MaxLoginAttempts - 1

		userRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil).Once()
		userRepo.On("RecordLoginFailure", ctx, user.ID, mock.MatchedBy(func(until *time.Time) bool {
			return until != nil && until.After(time.Now())
		})).Return(nil).Once()

		td, err := svc.Login(ctx, "alice", "wrongpassword")
		assert.Nil(t, td)
		assert.ErrorIs(t, err, models.ErrUserLocked)
		userRepo.AssertExpectations(t)
	})

	t.Run("Locked account rejects even a correct password", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := NewAuthService(userRepo, new(mocks.TokenRepository), cfg, zap.NewNop())
		user := makeUser(t)
		until := time.Now().Add(10 * time.Minute)
		user.LockedUntil = &until

		userRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil).Once()

		td, err := svc.Login(ctx, "alice", "password123")
		assert.Nil(t, td)
		assert.ErrorIs(t, err, models.ErrUserLocked)
		userRepo.AssertExpectations(t)
	})

	t.Run("Expired lock allows login again", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := NewAuthService(userRepo, tokenRepo, cfg, zap.NewNop())
		user := makeUser(t)
		until := time.Now().Add(-time.Minute)
		user.LockedUntil = &until
		user.FailedLoginAttempts = cfg.MaxLoginAttempts

		userRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil).Once()
		userRepo.On("ResetLoginFailures", ctx, user.ID).Return(nil).Once()
		tokenRepo.On("SetToken", ctx, user.ID, mock.Anything).Return(nil).Once()

		td, err := svc.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, td.AccessToken)
		userRepo.AssertExpectations(t)
	})
}

func TestVerifyAccessToken(t *testing.T) {
	ctx := context.Background()
	cfg := testAuthConfig()
	user := &models.User{ID: uuid.New(), Username: "alice", IsAdmin: true}

	newService := func(tokenRepo *mocks.TokenRepository) *authServiceImpl {
		return NewAuthService(new(mocks.UserRepository), tokenRepo, cfg, zap.NewNop()).(*authServiceImpl)
	}

	t.Run("Valid token returns claims with roles", func(t *testing.T) {
		tokenRepo := new(mocks.TokenRepository)
		svc := newService(tokenRepo)

		td, err := svc.createTokens(user)
		require.NoError(t, err)
		tokenRepo.On("GetUserIDByAccessUUID", ctx, td.AccessUUID).Return(user.ID, nil).Once()

		claims, err := svc.VerifyAccessToken(ctx, td.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Contains(t, claims.Roles, models.RoleAdmin)
		assert.Equal(t, td.AccessUUID, claims.ID)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("Revoked token is invalid", func(t *testing.T) {
		tokenRepo := new(mocks.TokenRepository)
		svc := newService(tokenRepo)

		td, err := svc.createTokens(user)
		require.NoError(t, err)
		tokenRepo.On("GetUserIDByAccessUUID", ctx, td.AccessUUID).
			Return(uuid.Nil, models.ErrTokenNotFound).Once()

		claims, err := svc.VerifyAccessToken(ctx, td.AccessToken)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("Expired token", func(t *testing.T) {
		expiredCfg := testAuthConfig()
		expiredCfg.AccessTokenTTL = -time.Minute
		svc := NewAuthService(new(mocks.UserRepository), new(mocks.TokenRepository), expiredCfg, zap.NewNop()).(*authServiceImpl)

		td, err := svc.createTokens(user)
		require.NoError(t, err)

		claims, err := svc.VerifyAccessToken(ctx, td.AccessToken)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("Malformed token", func(t *testing.T) {
		svc := newService(new(mocks.TokenRepository))

		claims, err := svc.VerifyAccessToken(ctx, "garbage.token.value")
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	cfg := testAuthConfig()
	user := &models.User{ID: uuid.New(), Username: "alice"}

	t.Run("Valid refresh rotates the token pair", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := NewAuthService(userRepo, tokenRepo, cfg, zap.NewNop()).(*authServiceImpl)

		td, err := svc.createTokens(user)
		require.NoError(t, err)

		tokenRepo.On("GetUserIDByRefreshUUID", ctx, td.RefreshUUID).Return(user.ID, nil).Once()
		userRepo.On("GetUserByID", ctx, user.ID).Return(user, nil).Once()
		tokenRepo.On("DeleteTokens", ctx, "", td.RefreshUUID).Return(int64(1), nil).Once()
		tokenRepo.On("SetToken", ctx, user.ID, mock.Anything).Return(nil).Once()

		newTd, err := svc.Refresh(ctx, td.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, td.RefreshUUID, newTd.RefreshUUID)
		tokenRepo.AssertExpectations(t)
		userRepo.AssertExpectations(t)
	})

	t.Run("Refresh token missing from the store", func(t *testing.T) {
		tokenRepo := new(mocks.TokenRepository)
		svc := NewAuthService(new(mocks.UserRepository), tokenRepo, cfg, zap.NewNop()).(*authServiceImpl)

		td, err := svc.createTokens(user)
		require.NoError(t, err)
		tokenRepo.On("GetUserIDByRefreshUUID", ctx, td.RefreshUUID).
			Return(uuid.Nil, models.ErrTokenNotFound).Once()

		newTd, err := svc.Refresh(ctx, td.RefreshToken)
		assert.Nil(t, newTd)
		assert.ErrorIs(t, err, models.ErrTokenNotFound)
	})

	t.Run("Token issued for another user is rejected", func(t *testing.T) {
		tokenRepo := new(mocks.TokenRepository)
		svc := NewAuthService(new(mocks.UserRepository), tokenRepo, cfg, zap.NewNop()).(*authServiceImpl)

		td, err := svc.createTokens(user)
		require.NoError(t, err)
		tokenRepo.On("GetUserIDByRefreshUUID", ctx, td.RefreshUUID).Return(uuid.New(), nil).Once()

		newTd, err := svc.Refresh(ctx, td.RefreshToken)
		assert.Nil(t, newTd)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})
}
