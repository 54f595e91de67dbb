package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"love-sim-server/internal/models"
	"love-sim-server/internal/repository"
)

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, theme, avatarURL string) error {
	args := m.Called(ctx, id, displayName, theme, avatarURL)
	return args.Error(0)
}
func (m *UserRepository) AdjustDiamonds(ctx context.Context, q repository.DBTX, id uuid.UUID, delta int) error {
	args := m.Called(ctx, q, id, delta)
	return args.Error(0)
}
func (m *UserRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, lockedUntil *time.Time) error {
	args := m.Called(ctx, id, lockedUntil)
	return args.Error(0)
}
func (m *UserRepository) ResetLoginFailures(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) GetStoryByID(ctx context.Context, id int64) (*models.Story, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Story)
	return s, args.Error(1)
}
func (m *StoryRepository) ListStories(ctx context.Context, publishedOnly bool) ([]models.Story, error) {
	args := m.Called(ctx, publishedOnly)
	s, _ := args.Get(0).([]models.Story)
	return s, args.Error(1)
}
func (m *StoryRepository) UpdateStory(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) DeleteStory(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *StoryRepository) CreateChapter(ctx context.Context, q repository.DBTX, chapter *models.Chapter) error {
	args := m.Called(ctx, q, chapter)
	return args.Error(0)
}
func (m *StoryRepository) GetChapterByID(ctx context.Context, id int64) (*models.Chapter, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Chapter)
	return c, args.Error(1)
}
func (m *StoryRepository) GetFirstChapter(ctx context.Context, storyID int64) (*models.Chapter, error) {
	args := m.Called(ctx, storyID)
	c, _ := args.Get(0).(*models.Chapter)
	return c, args.Error(1)
}
func (m *StoryRepository) ListChapters(ctx context.Context, storyID int64) ([]models.Chapter, error) {
	args := m.Called(ctx, storyID)
	c, _ := args.Get(0).([]models.Chapter)
	return c, args.Error(1)
}
func (m *StoryRepository) UpdateChapter(ctx context.Context, chapter *models.Chapter) error {
	args := m.Called(ctx, chapter)
	return args.Error(0)
}
func (m *StoryRepository) DeleteChapter(ctx context.Context, q repository.DBTX, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}
func (m *StoryRepository) CreateScene(ctx context.Context, q repository.DBTX, scene *models.Scene) error {
	args := m.Called(ctx, q, scene)
	return args.Error(0)
}
func (m *StoryRepository) GetSceneByID(ctx context.Context, id int64) (*models.Scene, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Scene)
	return s, args.Error(1)
}
func (m *StoryRepository) GetFirstScene(ctx context.Context, chapterID int64) (*models.Scene, error) {
	args := m.Called(ctx, chapterID)
	s, _ := args.Get(0).(*models.Scene)
	return s, args.Error(1)
}
func (m *StoryRepository) GetNextScene(ctx context.Context, chapterID, afterSceneID int64) (*models.Scene, error) {
	args := m.Called(ctx, chapterID, afterSceneID)
	s, _ := args.Get(0).(*models.Scene)
	return s, args.Error(1)
}
func (m *StoryRepository) ListScenes(ctx context.Context, chapterID int64) ([]models.Scene, error) {
	args := m.Called(ctx, chapterID)
	s, _ := args.Get(0).([]models.Scene)
	return s, args.Error(1)
}
func (m *StoryRepository) UpdateScene(ctx context.Context, scene *models.Scene) error {
	args := m.Called(ctx, scene)
	return args.Error(0)
}
func (m *StoryRepository) DeleteScene(ctx context.Context, q repository.DBTX, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}
func (m *StoryRepository) CreateChoice(ctx context.Context, q repository.DBTX, choice *models.Choice) error {
	args := m.Called(ctx, q, choice)
	return args.Error(0)
}
func (m *StoryRepository) GetChoiceByID(ctx context.Context, id int64) (*models.Choice, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Choice)
	return c, args.Error(1)
}
func (m *StoryRepository) ListChoices(ctx context.Context, sceneID int64) ([]models.Choice, error) {
	args := m.Called(ctx, sceneID)
	c, _ := args.Get(0).([]models.Choice)
	return c, args.Error(1)
}
func (m *StoryRepository) UpdateChoice(ctx context.Context, choice *models.Choice) error {
	args := m.Called(ctx, choice)
	return args.Error(0)
}
func (m *StoryRepository) DeleteChoice(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *StoryRepository) GetStoryIDForScene(ctx context.Context, sceneID int64) (int64, error) {
	args := m.Called(ctx, sceneID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *StoryRepository) AdjustCounters(ctx context.Context, q repository.DBTX, storyID int64, chaptersDelta, scenesDelta int) error {
	args := m.Called(ctx, q, storyID, chaptersDelta, scenesDelta)
	return args.Error(0)
}

// Mock SaveStateRepository
type SaveStateRepository struct {
	mock.Mock
}

func (m *SaveStateRepository) Get(ctx context.Context, userID uuid.UUID, storyID int64) (*models.SaveState, error) {
	args := m.Called(ctx, userID, storyID)
	s, _ := args.Get(0).(*models.SaveState)
	return s, args.Error(1)
}
func (m *SaveStateRepository) Upsert(ctx context.Context, q repository.DBTX, save *models.SaveState) error {
	args := m.Called(ctx, q, save)
	return args.Error(0)
}
func (m *SaveStateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SaveState, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]models.SaveState)
	return s, args.Error(1)
}
func (m *SaveStateRepository) DeleteByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Mock ChoiceHistoryRepository
type ChoiceHistoryRepository struct {
	mock.Mock
}

func (m *ChoiceHistoryRepository) Append(ctx context.Context, q repository.DBTX, entry *models.ChoiceHistory) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}
func (m *ChoiceHistoryRepository) ListByUserAndStory(ctx context.Context, userID uuid.UUID, storyID int64) ([]models.ChoiceHistory, error) {
	args := m.Called(ctx, userID, storyID)
	e, _ := args.Get(0).([]models.ChoiceHistory)
	return e, args.Error(1)
}
func (m *ChoiceHistoryRepository) DeleteByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Mock EconomyRepository
type EconomyRepository struct {
	mock.Mock
}

func (m *EconomyRepository) HasPurchase(ctx context.Context, userID uuid.UUID, storyID int64) (bool, error) {
	args := m.Called(ctx, userID, storyID)
	return args.Bool(0), args.Error(1)
}
func (m *EconomyRepository) RecordPurchase(ctx context.Context, q repository.DBTX, purchase *models.Purchase) error {
	args := m.Called(ctx, q, purchase)
	return args.Error(0)
}
func (m *EconomyRepository) GetDiamondCode(ctx context.Context, code uuid.UUID) (*models.DiamondCode, error) {
	args := m.Called(ctx, code)
	dc, _ := args.Get(0).(*models.DiamondCode)
	return dc, args.Error(1)
}
func (m *EconomyRepository) CreateDiamondCode(ctx context.Context, dc *models.DiamondCode) error {
	args := m.Called(ctx, dc)
	return args.Error(0)
}
func (m *EconomyRepository) ConsumeDiamondCode(ctx context.Context, q repository.DBTX, code uuid.UUID) error {
	args := m.Called(ctx, q, code)
	return args.Error(0)
}
func (m *EconomyRepository) UnlockAchievement(ctx context.Context, q repository.DBTX, a *models.Achievement) error {
	args := m.Called(ctx, q, a)
	return args.Error(0)
}
func (m *EconomyRepository) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	args := m.Called(ctx, userID)
	a, _ := args.Get(0).([]models.Achievement)
	return a, args.Error(1)
}
func (m *EconomyRepository) IncrementChoicesMade(ctx context.Context, q repository.DBTX, userID uuid.UUID, storyID int64) error {
	args := m.Called(ctx, q, userID, storyID)
	return args.Error(0)
}
func (m *EconomyRepository) MarkStoryCompleted(ctx context.Context, q repository.DBTX, userID uuid.UUID, storyID int64) error {
	args := m.Called(ctx, q, userID, storyID)
	return args.Error(0)
}
func (m *EconomyRepository) ListGameStats(ctx context.Context, userID uuid.UUID) ([]models.GameStat, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]models.GameStat)
	return s, args.Error(1)
}
func (m *EconomyRepository) DeleteStatsByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Mock TokenRepository
type TokenRepository struct {
	mock.Mock
}

func (m *TokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	args := m.Called(ctx, userID, td)
	return args.Error(0)
}
func (m *TokenRepository) DeleteTokens(ctx context.Context, accessUUID, refreshUUID string) (int64, error) {
	args := m.Called(ctx, accessUUID, refreshUUID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *TokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, accessUUID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
func (m *TokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshUUID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// TxRunner — фейковый исполнитель транзакций: вызывает функцию сразу,
// без реальной транзакции (q = nil).
type TxRunner struct {
	BeginErr error
}

func (m *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.DBTX) error) error {
	if m.BeginErr != nil {
		return m.BeginErr
	}
	return fn(ctx, nil)
}
