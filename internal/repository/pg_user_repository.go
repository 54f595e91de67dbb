package repository

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgUserRepository создает репозиторий пользователей.
func NewPgUserRepository(pool *pgxpool.Pool, logger *zap.Logger) UserRepository {
	return &pgUserRepository{
		pool:   pool,
		logger: logger.Named("PgUserRepo"),
	}
}

const createUserQuery = `
INSERT INTO users (id, username, email, password_hash, display_name, diamonds, is_admin)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`

const getUserByIDQuery = `
SELECT id, username, email, password_hash, display_name, theme, avatar_url,
       diamonds, is_admin, is_team_leader, team_id,
       failed_login_attempts, locked_until, created_at, updated_at
FROM users
WHERE id = $1`

const getUserByUsernameQuery = `
SELECT id, username, email, password_hash, display_name, theme, avatar_url,
       diamonds, is_admin, is_team_leader, team_id,
       failed_login_attempts, locked_until, created_at, updated_at
FROM users
WHERE username = $1`

const getUserByEmailQuery = `
SELECT id, username, email, password_hash, display_name, theme, avatar_url,
       diamonds, is_admin, is_team_leader, team_id,
       failed_login_attempts, locked_until, created_at, updated_at
FROM users
WHERE email = $1`

const updateProfileQuery = `
UPDATE users
SET display_name = $2, theme = $3, avatar_url = $4, updated_at = now()
WHERE id = $1`

const creditDiamondsQuery = `
UPDATE users SET diamonds = diamonds + $2, updated_at = now()
WHERE id = $1`

const debitDiamondsQuery = `
UPDATE users SET diamonds = diamonds - $2, updated_at = now()
WHERE id = $1 AND diamonds >= $2`

const recordLoginFailureQuery = `
UPDATE users
SET failed_login_attempts = failed_login_attempts + 1, locked_until = $2, updated_at = now()
WHERE id = $1`

const resetLoginFailuresQuery = `
UPDATE users
SET failed_login_attempts = 0, locked_until = NULL, updated_at = now()
WHERE id = $1`

func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	logFields := []zap.Field{zap.String("username", user.Username), zap.String("email", user.Email)}

	err := r.pool.QueryRow(ctx, createUserQuery,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.DisplayName, user.Diamonds, user.IsAdmin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			if pgErr.ConstraintName == "users_email_key" {
				return models.ErrEmailAlreadyExists
			}
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create user", append(logFields, zap.Error(err))...)
		return err
	}

	r.logger.Debug("User created", append(logFields, zap.Stringer("userID", user.ID))...)
	return nil
}

func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getUser(ctx, getUserByIDQuery, id)
}

func (r *pgUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, getUserByUsernameQuery, username)
}

func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, getUserByEmailQuery, email)
}

func (r *pgUserRepository) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := pgxscan.Get(ctx, r.pool, user, query, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, theme, avatarURL string) error {
	cmdTag, err := r.pool.Exec(ctx, updateProfileQuery, id, displayName, theme, avatarURL)
	if err != nil {
		r.logger.Error("Failed to update profile", zap.Stringer("userID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	r.logger.Debug("Profile updated", zap.Stringer("userID", id))
	return nil
}

// AdjustDiamonds изменяет баланс. Списание выполняется с охранным условием,
// чтобы баланс не мог уйти в минус даже при параллельных запросах.
func (r *pgUserRepository) AdjustDiamonds(ctx context.Context, q DBTX, id uuid.UUID, delta int) error {
	logFields := []zap.Field{zap.Stringer("userID", id), zap.Int("delta", delta)}

	var cmdTag pgconn.CommandTag
	var err error
	if delta >= 0 {
		cmdTag, err = q.Exec(ctx, creditDiamondsQuery, id, delta)
	} else {
		cmdTag, err = q.Exec(ctx, debitDiamondsQuery, id, -delta)
	}
	if err != nil {
		r.logger.Error("Failed to adjust diamonds", append(logFields, zap.Error(err))...)
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		if delta < 0 {
			r.logger.Debug("Diamond debit rejected: insufficient balance", logFields...)
			return models.ErrInsufficientDiamonds
		}
		return models.ErrUserNotFound
	}

	r.logger.Debug("Diamonds adjusted", logFields...)
	return nil
}

func (r *pgUserRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, lockedUntil *time.Time) error {
	_, err := r.pool.Exec(ctx, recordLoginFailureQuery, id, lockedUntil)
	if err != nil {
		r.logger.Error("Failed to record login failure", zap.Stringer("userID", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *pgUserRepository) ResetLoginFailures(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, resetLoginFailuresQuery, id)
	if err != nil {
		r.logger.Error("Failed to reset login failures", zap.Stringer("userID", id), zap.Error(err))
		return err
	}
	return nil
}
