package repository

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ ChoiceHistoryRepository = (*pgChoiceHistoryRepository)(nil)

type pgChoiceHistoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgChoiceHistoryRepository создает журнал выборов.
func NewPgChoiceHistoryRepository(pool *pgxpool.Pool, logger *zap.Logger) ChoiceHistoryRepository {
	return &pgChoiceHistoryRepository{
		pool:   pool,
		logger: logger.Named("PgChoiceHistoryRepo"),
	}
}

const appendChoiceHistoryQuery = `
INSERT INTO choice_history (user_id, story_id, scene_id, choice_id, is_legend, made_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

const listChoiceHistoryQuery = `
SELECT id, user_id, story_id, scene_id, choice_id, is_legend, made_at
FROM choice_history
WHERE user_id = $1 AND story_id = $2
ORDER BY made_at`

const deleteChoiceHistoryByUserQuery = `DELETE FROM choice_history WHERE user_id = $1`

func (r *pgChoiceHistoryRepository) Append(ctx context.Context, q DBTX, entry *models.ChoiceHistory) error {
	if entry.MadeAt.IsZero() {
		entry.MadeAt = time.Now()
	}
	err := q.QueryRow(ctx, appendChoiceHistoryQuery,
		entry.UserID, entry.StoryID, entry.SceneID, entry.ChoiceID, entry.IsLegend, entry.MadeAt,
	).Scan(&entry.ID)
	if err != nil {
		r.logger.Error("Failed to append choice history",
			zap.Stringer("userID", entry.UserID),
			zap.Int64("choiceID", entry.ChoiceID),
			zap.Error(err))
		return err
	}
	return nil
}

func (r *pgChoiceHistoryRepository) ListByUserAndStory(ctx context.Context, userID uuid.UUID, storyID int64) ([]models.ChoiceHistory, error) {
	var entries []models.ChoiceHistory
	if err := pgxscan.Select(ctx, r.pool, &entries, listChoiceHistoryQuery, userID, storyID); err != nil {
		r.logger.Error("Failed to list choice history",
			zap.Stringer("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (r *pgChoiceHistoryRepository) DeleteByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error) {
	cmdTag, err := q.Exec(ctx, deleteChoiceHistoryByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to delete choice history", zap.Stringer("userID", userID), zap.Error(err))
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
