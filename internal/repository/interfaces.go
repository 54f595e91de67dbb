package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"love-sim-server/internal/models"
)

// DBTX абстрагирует исполнителя запросов: ему удовлетворяют и *pgxpool.Pool,
// и pgx.Tx, поэтому методы репозиториев могут работать как вне, так и внутри
// транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository управляет пользователями.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, theme, avatarURL string) error

	// AdjustDiamonds изменяет баланс на delta. Для отрицательной delta
	// выполняется с охранным условием diamonds >= -delta; если строк не
	// обновлено — models.ErrInsufficientDiamonds.
	AdjustDiamonds(ctx context.Context, q DBTX, id uuid.UUID, delta int) error

	// Учет неудачных входов
	RecordLoginFailure(ctx context.Context, id uuid.UUID, lockedUntil *time.Time) error
	ResetLoginFailures(ctx context.Context, id uuid.UUID) error
}

// StoryRepository управляет деревом историй: истории, главы, сцены, выборы.
type StoryRepository interface {
	// Истории
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id int64) (*models.Story, error)
	ListStories(ctx context.Context, publishedOnly bool) ([]models.Story, error)
	UpdateStory(ctx context.Context, story *models.Story) error
	DeleteStory(ctx context.Context, id int64) error

	// Главы
	CreateChapter(ctx context.Context, q DBTX, chapter *models.Chapter) error
	GetChapterByID(ctx context.Context, id int64) (*models.Chapter, error)
	GetFirstChapter(ctx context.Context, storyID int64) (*models.Chapter, error)
	ListChapters(ctx context.Context, storyID int64) ([]models.Chapter, error)
	UpdateChapter(ctx context.Context, chapter *models.Chapter) error
	DeleteChapter(ctx context.Context, q DBTX, id int64) error

	// Сцены
	CreateScene(ctx context.Context, q DBTX, scene *models.Scene) error
	GetSceneByID(ctx context.Context, id int64) (*models.Scene, error)
	GetFirstScene(ctx context.Context, chapterID int64) (*models.Scene, error)
	GetNextScene(ctx context.Context, chapterID, afterSceneID int64) (*models.Scene, error)
	ListScenes(ctx context.Context, chapterID int64) ([]models.Scene, error)
	UpdateScene(ctx context.Context, scene *models.Scene) error
	DeleteScene(ctx context.Context, q DBTX, id int64) error

	// Выборы
	CreateChoice(ctx context.Context, q DBTX, choice *models.Choice) error
	GetChoiceByID(ctx context.Context, id int64) (*models.Choice, error)
	ListChoices(ctx context.Context, sceneID int64) ([]models.Choice, error)
	UpdateChoice(ctx context.Context, choice *models.Choice) error
	DeleteChoice(ctx context.Context, id int64) error

	// GetStoryIDForScene возвращает id истории, которой принадлежит сцена.
	GetStoryIDForScene(ctx context.Context, sceneID int64) (int64, error)

	// Денормализованные счетчики на карточке истории
	AdjustCounters(ctx context.Context, q DBTX, storyID int64, chaptersDelta, scenesDelta int) error
}

// SaveStateRepository управляет сохранениями прогресса.
type SaveStateRepository interface {
	Get(ctx context.Context, userID uuid.UUID, storyID int64) (*models.SaveState, error)
	Upsert(ctx context.Context, q DBTX, save *models.SaveState) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SaveState, error)
	DeleteByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error)
}

// ChoiceHistoryRepository — журнал сделанных выборов.
type ChoiceHistoryRepository interface {
	Append(ctx context.Context, q DBTX, entry *models.ChoiceHistory) error
	ListByUserAndStory(ctx context.Context, userID uuid.UUID, storyID int64) ([]models.ChoiceHistory, error)
	DeleteByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error)
}

// EconomyRepository — покупки, коды пополнения, достижения и статистика.
type EconomyRepository interface {
	HasPurchase(ctx context.Context, userID uuid.UUID, storyID int64) (bool, error)
	RecordPurchase(ctx context.Context, q DBTX, purchase *models.Purchase) error

	GetDiamondCode(ctx context.Context, code uuid.UUID) (*models.DiamondCode, error)
	CreateDiamondCode(ctx context.Context, dc *models.DiamondCode) error
	// ConsumeDiamondCode уменьшает remaining_uses с охраной remaining_uses >= 1;
	// если строк не обновлено — models.ErrCodeExhausted.
	ConsumeDiamondCode(ctx context.Context, q DBTX, code uuid.UUID) error

	UnlockAchievement(ctx context.Context, q DBTX, a *models.Achievement) error
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error)

	IncrementChoicesMade(ctx context.Context, q DBTX, userID uuid.UUID, storyID int64) error
	MarkStoryCompleted(ctx context.Context, q DBTX, userID uuid.UUID, storyID int64) error
	ListGameStats(ctx context.Context, userID uuid.UUID) ([]models.GameStat, error)
	DeleteStatsByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int64, error)
}

// TokenRepository — хранилище выданных токенов (Redis).
type TokenRepository interface {
	SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error
	DeleteTokens(ctx context.Context, accessUUID, refreshUUID string) (int64, error)
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)
}

// TxRunner выполняет функцию в транзакции.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error
}
