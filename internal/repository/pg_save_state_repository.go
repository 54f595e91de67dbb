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
var _ SaveStateRepository = (*pgSaveStateRepository)(nil)

type pgSaveStateRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgSaveStateRepository создает репозиторий сохранений.
func NewPgSaveStateRepository(pool *pgxpool.Pool, logger *zap.Logger) SaveStateRepository {
	return &pgSaveStateRepository{
		pool:   pool,
		logger: logger.Named("PgSaveStateRepo"),
	}
}

const getSaveStateQuery = `
SELECT id, user_id, story_id, chapter_id, scene_id,
       teasing_level, friendship_level, passion_level, updated_at
FROM save_states
WHERE user_id = $1 AND story_id = $2`

const upsertSaveStateQuery = `
INSERT INTO save_states (user_id, story_id, chapter_id, scene_id,
    teasing_level, friendship_level, passion_level, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, story_id) DO UPDATE SET
    chapter_id = EXCLUDED.chapter_id,
    scene_id = EXCLUDED.scene_id,
    teasing_level = EXCLUDED.teasing_level,
    friendship_level = EXCLUDED.friendship_level,
    passion_level = EXCLUDED.passion_level,
    updated_at = EXCLUDED.updated_at
RETURNING id`

const listSaveStatesByUserQuery = `
SELECT id, user_id, story_id, chapter_id, scene_id,
       teasing_level, friendship_level, passion_level, updated_at
FROM save_states
WHERE user_id = $1
ORDER BY updated_at DESC`

const deleteSaveStatesByUserQuery = `DELETE FROM save_states WHERE user_id = $1`

func (r *pgSaveStateRepository) Get(ctx context.Context, userID uuid.UUID, storyID int64) (*models.SaveState, error) {
	save := &models.SaveState{}
	err := pgxscan.Get(ctx, r.pool, save, getSaveStateQuery, userID, storyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get save state",
			zap.Stringer("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err))
		return nil, err
	}
	return save, nil
}

func (r *pgSaveStateRepository) Upsert(ctx context.Context, q DBTX, save *models.SaveState) error {
	save.UpdatedAt = time.Now()
	logFields := []zap.Field{
		zap.Stringer("userID", save.UserID),
		zap.Int64("storyID", save.StoryID),
		zap.Int64("sceneID", save.SceneID),
	}

	err := q.QueryRow(ctx, upsertSaveStateQuery,
		save.UserID, save.StoryID, save.ChapterID, save.SceneID,
		save.TeasingLevel, save.FriendshipLevel, save.PassionLevel, save.UpdatedAt,
	).Scan(&save.ID)
	if err != nil {
		r.logger.Error("Failed to upsert save state", append(logFields, zap.Error(err))...)
		return err
	}

	r.logger.Debug("Save state upserted", logFields...)
	return nil
}

func (r *pgSaveStateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SaveState, error) {
	var saves []models.SaveState
	if err := pgxscan.Select(ctx, r.pool, &saves, listSaveStatesByUserQuery, userID); err != nil {
		r.logger.Error("Failed to list save states", zap.Stringer("userID", userID), zap.Error(err))
		return nil, err
	}
	return saves, nil
}

func (r *pgSaveStateRepository) DeleteByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error) {
	cmdTag, err := q.Exec(ctx, deleteSaveStatesByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to delete save states", zap.Stringer("userID", userID), zap.Error(err))
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
