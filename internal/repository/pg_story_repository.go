package repository

import (
	"context"
	"errors"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository создает репозиторий дерева историй.
func NewPgStoryRepository(pool *pgxpool.Pool, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		pool:   pool,
		logger: logger.Named("PgStoryRepo"),
	}
}

// --- Истории ---

const createStoryQuery = `
INSERT INTO stories (title, description, cover_url, is_published, is_premium, price_diamonds)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, chapters_count, scenes_count, created_at, updated_at`

const getStoryByIDQuery = `
SELECT id, title, description, cover_url, is_published, is_premium, price_diamonds,
       chapters_count, scenes_count, created_at, updated_at
FROM stories
WHERE id = $1`

const listStoriesQuery = `
SELECT id, title, description, cover_url, is_published, is_premium, price_diamonds,
       chapters_count, scenes_count, created_at, updated_at
FROM stories
WHERE ($1::boolean IS FALSE OR is_published)
ORDER BY id`

const updateStoryQuery = `
UPDATE stories
SET title = $2, description = $3, cover_url = $4,
    is_published = $5, is_premium = $6, price_diamonds = $7, updated_at = now()
WHERE id = $1`

const deleteStoryQuery = `DELETE FROM stories WHERE id = $1`

const adjustCountersQuery = `
UPDATE stories
SET chapters_count = chapters_count + $2, scenes_count = scenes_count + $3, updated_at = now()
WHERE id = $1`

func (r *pgStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	err := r.pool.QueryRow(ctx, createStoryQuery,
		story.Title, story.Description, story.CoverURL,
		story.IsPublished, story.IsPremium, story.PriceDiamonds,
	).Scan(&story.ID, &story.ChaptersCount, &story.ScenesCount, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create story", zap.String("title", story.Title), zap.Error(err))
		return err
	}
	r.logger.Debug("Story created", zap.Int64("storyID", story.ID))
	return nil
}

func (r *pgStoryRepository) GetStoryByID(ctx context.Context, id int64) (*models.Story, error) {
	story := &models.Story{}
	if err := pgxscan.Get(ctx, r.pool, story, getStoryByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Int64("storyID", id), zap.Error(err))
		return nil, err
	}
	return story, nil
}

func (r *pgStoryRepository) ListStories(ctx context.Context, publishedOnly bool) ([]models.Story, error) {
	var stories []models.Story
	if err := pgxscan.Select(ctx, r.pool, &stories, listStoriesQuery, publishedOnly); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, err
	}
	return stories, nil
}

func (r *pgStoryRepository) UpdateStory(ctx context.Context, story *models.Story) error {
	cmdTag, err := r.pool.Exec(ctx, updateStoryQuery,
		story.ID, story.Title, story.Description, story.CoverURL,
		story.IsPublished, story.IsPremium, story.PriceDiamonds)
	if err != nil {
		r.logger.Error("Failed to update story", zap.Int64("storyID", story.ID), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

func (r *pgStoryRepository) DeleteStory(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, deleteStoryQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.Int64("storyID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story deleted", zap.Int64("storyID", id))
	return nil
}

func (r *pgStoryRepository) AdjustCounters(ctx context.Context, q DBTX, storyID int64, chaptersDelta, scenesDelta int) error {
	_, err := q.Exec(ctx, adjustCountersQuery, storyID, chaptersDelta, scenesDelta)
	if err != nil {
		r.logger.Error("Failed to adjust story counters",
			zap.Int64("storyID", storyID),
			zap.Int("chaptersDelta", chaptersDelta),
			zap.Int("scenesDelta", scenesDelta),
			zap.Error(err))
		return err
	}
	return nil
}

// --- Главы ---

const createChapterQuery = `
INSERT INTO chapters (story_id, chapter_number, title)
VALUES ($1, $2, $3)
RETURNING id, created_at`

const getChapterByIDQuery = `
SELECT id, story_id, chapter_number, title, created_at
FROM chapters
WHERE id = $1`

const getFirstChapterQuery = `
SELECT id, story_id, chapter_number, title, created_at
FROM chapters
WHERE story_id = $1
ORDER BY chapter_number
LIMIT 1`

const listChaptersQuery = `
SELECT id, story_id, chapter_number, title, created_at
FROM chapters
WHERE story_id = $1
ORDER BY chapter_number`

const updateChapterQuery = `
UPDATE chapters SET chapter_number = $2, title = $3 WHERE id = $1`

const deleteChapterQuery = `DELETE FROM chapters WHERE id = $1`

func (r *pgStoryRepository) CreateChapter(ctx context.Context, q DBTX, chapter *models.Chapter) error {
	err := q.QueryRow(ctx, createChapterQuery,
		chapter.StoryID, chapter.ChapterNumber, chapter.Title,
	).Scan(&chapter.ID, &chapter.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateNumber
		}
		r.logger.Error("Failed to create chapter",
			zap.Int64("storyID", chapter.StoryID),
			zap.Int("chapterNumber", chapter.ChapterNumber),
			zap.Error(err))
		return err
	}
	return nil
}

func (r *pgStoryRepository) GetChapterByID(ctx context.Context, id int64) (*models.Chapter, error) {
	chapter := &models.Chapter{}
	if err := pgxscan.Get(ctx, r.pool, chapter, getChapterByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChapterNotFound
		}
		r.logger.Error("Failed to get chapter", zap.Int64("chapterID", id), zap.Error(err))
		return nil, err
	}
	return chapter, nil
}

func (r *pgStoryRepository) GetFirstChapter(ctx context.Context, storyID int64) (*models.Chapter, error) {
	chapter := &models.Chapter{}
	if err := pgxscan.Get(ctx, r.pool, chapter, getFirstChapterQuery, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChapterNotFound
		}
		r.logger.Error("Failed to get first chapter", zap.Int64("storyID", storyID), zap.Error(err))
		return nil, err
	}
	return chapter, nil
}

func (r *pgStoryRepository) ListChapters(ctx context.Context, storyID int64) ([]models.Chapter, error) {
	var chapters []models.Chapter
	if err := pgxscan.Select(ctx, r.pool, &chapters, listChaptersQuery, storyID); err != nil {
		r.logger.Error("Failed to list chapters", zap.Int64("storyID", storyID), zap.Error(err))
		return nil, err
	}
	return chapters, nil
}

func (r *pgStoryRepository) UpdateChapter(ctx context.Context, chapter *models.Chapter) error {
	cmdTag, err := r.pool.Exec(ctx, updateChapterQuery, chapter.ID, chapter.ChapterNumber, chapter.Title)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateNumber
		}
		r.logger.Error("Failed to update chapter", zap.Int64("chapterID", chapter.ID), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrChapterNotFound
	}
	return nil
}

func (r *pgStoryRepository) DeleteChapter(ctx context.Context, q DBTX, id int64) error {
	cmdTag, err := q.Exec(ctx, deleteChapterQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete chapter", zap.Int64("chapterID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrChapterNotFound
	}
	return nil
}

// --- Сцены ---

const createSceneQuery = `
INSERT INTO scenes (chapter_id, scene_number, scene_type, background_url, character_name, character_sprite, dialogue_text)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`

const getSceneByIDQuery = `
SELECT id, chapter_id, scene_number, scene_type, background_url, character_name, character_sprite, dialogue_text, created_at
FROM scenes
WHERE id = $1`

const getFirstSceneQuery = `
SELECT id, chapter_id, scene_number, scene_type, background_url, character_name, character_sprite, dialogue_text, created_at
FROM scenes
WHERE chapter_id = $1
ORDER BY scene_number
LIMIT 1`

const getNextSceneQuery = `
SELECT id, chapter_id, scene_number, scene_type, background_url, character_name, character_sprite, dialogue_text, created_at
FROM scenes
WHERE chapter_id = $1 AND id > $2
ORDER BY id
LIMIT 1`

const listScenesQuery = `
SELECT id, chapter_id, scene_number, scene_type, background_url, character_name, character_sprite, dialogue_text, created_at
FROM scenes
WHERE chapter_id = $1
ORDER BY scene_number`

const updateSceneQuery = `
UPDATE scenes
SET scene_number = $2, scene_type = $3, background_url = $4,
    character_name = $5, character_sprite = $6, dialogue_text = $7
WHERE id = $1`

const deleteSceneQuery = `DELETE FROM scenes WHERE id = $1`

const getStoryIDForSceneQuery = `
SELECT c.story_id
FROM scenes s
JOIN chapters c ON c.id = s.chapter_id
WHERE s.id = $1`

func (r *pgStoryRepository) CreateScene(ctx context.Context, q DBTX, scene *models.Scene) error {
	if scene.SceneType == "" {
		scene.SceneType = models.SceneTypeNormal
	}
	err := q.QueryRow(ctx, createSceneQuery,
		scene.ChapterID, scene.SceneNumber, scene.SceneType,
		scene.BackgroundURL, scene.CharacterName, scene.CharacterSprite, scene.DialogueText,
	).Scan(&scene.ID, &scene.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateNumber
		}
		r.logger.Error("Failed to create scene",
			zap.Int64("chapterID", scene.ChapterID),
			zap.Int("sceneNumber", scene.SceneNumber),
			zap.Error(err))
		return err
	}
	return nil
}

func (r *pgStoryRepository) GetSceneByID(ctx context.Context, id int64) (*models.Scene, error) {
	scene := &models.Scene{}
	if err := pgxscan.Get(ctx, r.pool, scene, getSceneByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSceneNotFound
		}
		r.logger.Error("Failed to get scene", zap.Int64("sceneID", id), zap.Error(err))
		return nil, err
	}
	return scene, nil
}

func (r *pgStoryRepository) GetFirstScene(ctx context.Context, chapterID int64) (*models.Scene, error) {
	scene := &models.Scene{}
	if err := pgxscan.Get(ctx, r.pool, scene, getFirstSceneQuery, chapterID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSceneNotFound
		}
		r.logger.Error("Failed to get first scene", zap.Int64("chapterID", chapterID), zap.Error(err))
		return nil, err
	}
	return scene, nil
}

// GetNextScene возвращает следующую по id сцену той же главы.
func (r *pgStoryRepository) GetNextScene(ctx context.Context, chapterID, afterSceneID int64) (*models.Scene, error) {
	scene := &models.Scene{}
	if err := pgxscan.Get(ctx, r.pool, scene, getNextSceneQuery, chapterID, afterSceneID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSceneNotFound
		}
		r.logger.Error("Failed to get next scene",
			zap.Int64("chapterID", chapterID),
			zap.Int64("afterSceneID", afterSceneID),
			zap.Error(err))
		return nil, err
	}
	return scene, nil
}

func (r *pgStoryRepository) ListScenes(ctx context.Context, chapterID int64) ([]models.Scene, error) {
	var scenes []models.Scene
	if err := pgxscan.Select(ctx, r.pool, &scenes, listScenesQuery, chapterID); err != nil {
		r.logger.Error("Failed to list scenes", zap.Int64("chapterID", chapterID), zap.Error(err))
		return nil, err
	}
	return scenes, nil
}

func (r *pgStoryRepository) UpdateScene(ctx context.Context, scene *models.Scene) error {
	cmdTag, err := r.pool.Exec(ctx, updateSceneQuery,
		scene.ID, scene.SceneNumber, scene.SceneType,
		scene.BackgroundURL, scene.CharacterName, scene.CharacterSprite, scene.DialogueText)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateNumber
		}
		r.logger.Error("Failed to update scene", zap.Int64("sceneID", scene.ID), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrSceneNotFound
	}
	return nil
}

func (r *pgStoryRepository) DeleteScene(ctx context.Context, q DBTX, id int64) error {
	cmdTag, err := q.Exec(ctx, deleteSceneQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete scene", zap.Int64("sceneID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrSceneNotFound
	}
	return nil
}

func (r *pgStoryRepository) GetStoryIDForScene(ctx context.Context, sceneID int64) (int64, error) {
	var storyID int64
	err := r.pool.QueryRow(ctx, getStoryIDForSceneQuery, sceneID).Scan(&storyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrSceneNotFound
		}
		r.logger.Error("Failed to resolve story for scene", zap.Int64("sceneID", sceneID), zap.Error(err))
		return 0, err
	}
	return storyID, nil
}

// --- Выборы ---

const createChoiceQuery = `
INSERT INTO choices (scene_id, choice_text,
    teasing_change, friendship_change, passion_change,
    required_teasing_level, required_friendship_level, required_passion_level,
    is_premium, diamonds_cost, is_legend, only_leader,
    is_locked, unlocked_for_teams, next_scene_id, next_chapter_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING id, created_at`

const getChoiceByIDQuery = `
SELECT id, scene_id, choice_text,
       teasing_change, friendship_change, passion_change,
       required_teasing_level, required_friendship_level, required_passion_level,
       is_premium, diamonds_cost, is_legend, only_leader,
       is_locked, unlocked_for_teams, next_scene_id, next_chapter_id, created_at
FROM choices
WHERE id = $1`

const listChoicesQuery = `
SELECT id, scene_id, choice_text,
       teasing_change, friendship_change, passion_change,
       required_teasing_level, required_friendship_level, required_passion_level,
       is_premium, diamonds_cost, is_legend, only_leader,
       is_locked, unlocked_for_teams, next_scene_id, next_chapter_id, created_at
FROM choices
WHERE scene_id = $1
ORDER BY id`

const updateChoiceQuery = `
UPDATE choices
SET choice_text = $2,
    teasing_change = $3, friendship_change = $4, passion_change = $5,
    required_teasing_level = $6, required_friendship_level = $7, required_passion_level = $8,
    is_premium = $9, diamonds_cost = $10, is_legend = $11, only_leader = $12,
    is_locked = $13, unlocked_for_teams = $14, next_scene_id = $15, next_chapter_id = $16
WHERE id = $1`

const deleteChoiceQuery = `DELETE FROM choices WHERE id = $1`

func (r *pgStoryRepository) CreateChoice(ctx context.Context, q DBTX, choice *models.Choice) error {
	err := q.QueryRow(ctx, createChoiceQuery,
		choice.SceneID, choice.ChoiceText,
		choice.TeasingChange, choice.FriendshipChange, choice.PassionChange,
		choice.RequiredTeasingLevel, choice.RequiredFriendshipLevel, choice.RequiredPassionLevel,
		choice.IsPremium, choice.DiamondsCost, choice.IsLegend, choice.OnlyLeader,
		choice.IsLocked, choice.UnlockedForTeams, choice.NextSceneID, choice.NextChapterID,
	).Scan(&choice.ID, &choice.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create choice", zap.Int64("sceneID", choice.SceneID), zap.Error(err))
		return err
	}
	return nil
}

func (r *pgStoryRepository) GetChoiceByID(ctx context.Context, id int64) (*models.Choice, error) {
	choice := &models.Choice{}
	if err := pgxscan.Get(ctx, r.pool, choice, getChoiceByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChoiceNotFound
		}
		r.logger.Error("Failed to get choice", zap.Int64("choiceID", id), zap.Error(err))
		return nil, err
	}
	return choice, nil
}

func (r *pgStoryRepository) ListChoices(ctx context.Context, sceneID int64) ([]models.Choice, error) {
	var choices []models.Choice
	if err := pgxscan.Select(ctx, r.pool, &choices, listChoicesQuery, sceneID); err != nil {
		r.logger.Error("Failed to list choices", zap.Int64("sceneID", sceneID), zap.Error(err))
		return nil, err
	}
	return choices, nil
}

func (r *pgStoryRepository) UpdateChoice(ctx context.Context, choice *models.Choice) error {
	cmdTag, err := r.pool.Exec(ctx, updateChoiceQuery,
		choice.ID, choice.ChoiceText,
		choice.TeasingChange, choice.FriendshipChange, choice.PassionChange,
		choice.RequiredTeasingLevel, choice.RequiredFriendshipLevel, choice.RequiredPassionLevel,
		choice.IsPremium, choice.DiamondsCost, choice.IsLegend, choice.OnlyLeader,
		choice.IsLocked, choice.UnlockedForTeams, choice.NextSceneID, choice.NextChapterID)
	if err != nil {
		r.logger.Error("Failed to update choice", zap.Int64("choiceID", choice.ID), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrChoiceNotFound
	}
	return nil
}

func (r *pgStoryRepository) DeleteChoice(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, deleteChoiceQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete choice", zap.Int64("choiceID", id), zap.Error(err))
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrChoiceNotFound
	}
	return nil
}

// isUniqueViolation распознает нарушение уникального ограничения PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
