package repository

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ EconomyRepository = (*pgEconomyRepository)(nil)

type pgEconomyRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgEconomyRepository создает репозиторий покупок, кодов и статистики.
func NewPgEconomyRepository(pool *pgxpool.Pool, logger *zap.Logger) EconomyRepository {
	return &pgEconomyRepository{
		pool:   pool,
		logger: logger.Named("PgEconomyRepo"),
	}
}

// --- Покупки ---

const hasPurchaseQuery = `
SELECT EXISTS (SELECT 1 FROM purchases WHERE user_id = $1 AND story_id = $2)`

const recordPurchaseQuery = `
INSERT INTO purchases (user_id, story_id, price_paid, purchased_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, story_id) DO NOTHING`

func (r *pgEconomyRepository) HasPurchase(ctx context.Context, userID uuid.UUID, storyID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, hasPurchaseQuery, userID, storyID).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check purchase",
			zap.Stringer("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *pgEconomyRepository) RecordPurchase(ctx context.Context, q DBTX, purchase *models.Purchase) error {
	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now()
	}
	cmdTag, err := q.Exec(ctx, recordPurchaseQuery,
		purchase.UserID, purchase.StoryID, purchase.PricePaid, purchase.PurchasedAt)
	if err != nil {
		r.logger.Error("Failed to record purchase",
			zap.Stringer("userID", purchase.UserID),
			zap.Int64("storyID", purchase.StoryID),
			zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrAlreadyPurchased
	}
	return nil
}

// --- Коды пополнения ---

const getDiamondCodeQuery = `
SELECT code, value, remaining_uses, created_at
FROM diamond_codes
WHERE code = $1`

const createDiamondCodeQuery = `
INSERT INTO diamond_codes (code, value, remaining_uses)
VALUES ($1, $2, $3)
RETURNING created_at`

const consumeDiamondCodeQuery = `
UPDATE diamond_codes SET remaining_uses = remaining_uses - 1
WHERE code = $1 AND remaining_uses >= 1`

func (r *pgEconomyRepository) GetDiamondCode(ctx context.Context, code uuid.UUID) (*models.DiamondCode, error) {
	dc := &models.DiamondCode{}
	if err := pgxscan.Get(ctx, r.pool, dc, getDiamondCodeQuery, code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get diamond code", zap.Stringer("code", code), zap.Error(err))
		return nil, err
	}
	return dc, nil
}

func (r *pgEconomyRepository) CreateDiamondCode(ctx context.Context, dc *models.DiamondCode) error {
	if dc.Code == uuid.Nil {
		dc.Code = uuid.New()
	}
	err := r.pool.QueryRow(ctx, createDiamondCodeQuery, dc.Code, dc.Value, dc.RemainingUses).Scan(&dc.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create diamond code", zap.Error(err))
		return err
	}
	return nil
}

// ConsumeDiamondCode списывает одно использование кода с охранным условием,
// чтобы параллельные активации не ушли в минус.
func (r *pgEconomyRepository) ConsumeDiamondCode(ctx context.Context, q DBTX, code uuid.UUID) error {
	cmdTag, err := q.Exec(ctx, consumeDiamondCodeQuery, code)
	if err != nil {
		r.logger.Error("Failed to consume diamond code", zap.Stringer("code", code), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrCodeExhausted
	}
	return nil
}

// --- Достижения ---

const unlockAchievementQuery = `
INSERT INTO achievements (user_id, story_id, code, title, unlocked_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, story_id, code) DO NOTHING
RETURNING id`

const listAchievementsQuery = `
SELECT id, user_id, story_id, code, title, unlocked_at
FROM achievements
WHERE user_id = $1
ORDER BY unlocked_at DESC`

func (r *pgEconomyRepository) UnlockAchievement(ctx context.Context, q DBTX, a *models.Achievement) error {
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now()
	}
	err := q.QueryRow(ctx, unlockAchievementQuery,
		a.UserID, a.StoryID, a.Code, a.Title, a.UnlockedAt,
	).Scan(&a.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Уже открыто — повторное открытие не ошибка
			return nil
		}
		r.logger.Error("Failed to unlock achievement",
			zap.Stringer("userID", a.UserID),
			zap.String("code", a.Code),
			zap.Error(err))
		return err
	}
	r.logger.Info("Achievement unlocked",
		zap.Stringer("userID", a.UserID),
		zap.Int64("storyID", a.StoryID),
		zap.String("code", a.Code))
	return nil
}

func (r *pgEconomyRepository) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := pgxscan.Select(ctx, r.pool, &achievements, listAchievementsQuery, userID); err != nil {
		r.logger.Error("Failed to list achievements", zap.Stringer("userID", userID), zap.Error(err))
		return nil, err
	}
	return achievements, nil
}

// --- Статистика ---

const incrementChoicesMadeQuery = `
INSERT INTO game_stats (user_id, story_id, choices_made, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (user_id, story_id) DO UPDATE SET
    choices_made = game_stats.choices_made + 1,
    updated_at = now()`

const markStoryCompletedQuery = `
INSERT INTO game_stats (user_id, story_id, choices_made, completed_at, updated_at)
VALUES ($1, $2, 0, now(), now())
ON CONFLICT (user_id, story_id) DO UPDATE SET
    completed_at = COALESCE(game_stats.completed_at, now()),
    updated_at = now()`

const listGameStatsQuery = `
SELECT user_id, story_id, choices_made, completed_at, updated_at
FROM game_stats
WHERE user_id = $1
ORDER BY updated_at DESC`

const deleteStatsByUserQuery = `DELETE FROM game_stats WHERE user_id = $1`

func (r *pgEconomyRepository) IncrementChoicesMade(ctx context.Context, q DBTX, userID uuid.UUID, storyID int64) error {
	_, err := q.Exec(ctx, incrementChoicesMadeQuery, userID, storyID)
	if err != nil {
		r.logger.Error("Failed to increment choices made",
			zap.Stringer("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err))
		return err
	}
	return nil
}

func (r *pgEconomyRepository) MarkStoryCompleted(ctx context.Context, q DBTX, userID uuid.UUID, storyID int64) error {
	_, err := q.Exec(ctx, markStoryCompletedQuery, userID, storyID)
	if err != nil {
		r.logger.Error("Failed to mark story completed",
			zap.Stringer("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err))
		return err
	}
	return nil
}

func (r *pgEconomyRepository) ListGameStats(ctx context.Context, userID uuid.UUID) ([]models.GameStat, error) {
	var stats []models.GameStat
	if err := pgxscan.Select(ctx, r.pool, &stats, listGameStatsQuery, userID); err != nil {
		r.logger.Error("Failed to list game stats", zap.Stringer("userID", userID), zap.Error(err))
		return nil, err
	}
	return stats, nil
}

func (r *pgEconomyRepository) DeleteStatsByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error) {
	cmdTag, err := q.Exec(ctx, deleteStatsByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to delete game stats", zap.Stringer("userID", userID), zap.Error(err))
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
