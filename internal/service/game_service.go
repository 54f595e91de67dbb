package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
	"love-sim-server/internal/repository"
)

// Сообщения, возвращаемые игроку при недоступности выбора и на границах
// контента. Клиент показывает их как есть.
const (
	MsgNotEnoughDiamonds   = "not enough diamonds"
	MsgLeaderOnly          = "this choice is available only to the team leader"
	MsgNotEnoughFriendship = "not enough friendship"
	MsgNotEnoughPassion    = "not enough passion"
	MsgNotEnoughTeasing    = "not enough teasing"
	MsgTeamLocked          = "this choice is not available for your team"
	MsgWrongAnswer         = "wrong answer"
	MsgTheEnd              = "the end"
)

// Код достижения за прохождение истории.
const achievementStoryCompleted = "story_completed"

// ChoiceOutcome — результат применения выбора.
// При неудаче NextSceneID и NextChapterID равны -1.
type ChoiceOutcome struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	NextSceneID   int64  `json:"nextSceneId"`
	NextChapterID int64  `json:"nextChapterId"`
}

// ChoiceView — выбор в проекции сцены с вычисленной доступностью.
type ChoiceView struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	IsAvailable  bool   `json:"isAvailable"`
	Reason       string `json:"reason,omitempty"`
	IsPremium    bool   `json:"isPremium"`
	DiamondsCost int    `json:"diamondsCost"`
	IsLegend     bool   `json:"isLegend"`
}

// SceneView — проекция текущей сцены для клиента.
type SceneView struct {
	StoryID         int64        `json:"storyId"`
	ChapterID       int64        `json:"chapterId"`
	SceneID         int64        `json:"sceneId"`
	SceneType       string       `json:"sceneType"`
	BackgroundURL   string       `json:"backgroundUrl"`
	CharacterName   string       `json:"characterName"`
	CharacterSprite string       `json:"characterSprite"`
	DialogueText    string       `json:"dialogueText"`
	Choices         []ChoiceView `json:"choices"`
	Diamonds        int          `json:"diamonds"`
	TeasingLevel    int          `json:"teasingLevel"`
	FriendshipLevel int          `json:"friendshipLevel"`
	PassionLevel    int          `json:"passionLevel"`
}

// GameService реализует игровой цикл: проекцию сцен, проверку доступности
// выборов и атомарное применение выбора.
type GameService interface {
	GetCurrentScene(ctx context.Context, userID uuid.UUID, storyID int64) (*SceneView, error)
	MakeChoice(ctx context.Context, userID uuid.UUID, storyID, choiceID int64) (*ChoiceOutcome, error)
	MakeInputChoice(ctx context.Context, userID uuid.UUID, storyID int64, text string) (*ChoiceOutcome, error)
	ToNextScene(ctx context.Context, userID uuid.UUID, storyID int64) (*ChoiceOutcome, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ GameService = (*gameServiceImpl)(nil)

type gameServiceImpl struct {
	db          repository.DBTX
	txRunner    repository.TxRunner
	userRepo    repository.UserRepository
	storyRepo   repository.StoryRepository
	saveRepo    repository.SaveStateRepository
	historyRepo repository.ChoiceHistoryRepository
	economyRepo repository.EconomyRepository
	logger      *zap.Logger
}

// NewGameService создает игровой сервис.
func NewGameService(
	db repository.DBTX,
	txRunner repository.TxRunner,
	userRepo repository.UserRepository,
	storyRepo repository.StoryRepository,
	saveRepo repository.SaveStateRepository,
	historyRepo repository.ChoiceHistoryRepository,
	economyRepo repository.EconomyRepository,
	logger *zap.Logger,
) GameService {
	return &gameServiceImpl{
		db:          db,
		txRunner:    txRunner,
		userRepo:    userRepo,
		storyRepo:   storyRepo,
		saveRepo:    saveRepo,
		historyRepo: historyRepo,
		economyRepo: economyRepo,
		logger:      logger.Named("GameService"),
	}
}

// EvaluateChoice проверяет доступность выбора для пользователя с данным
// сохранением. Чистая функция: никаких побочных эффектов, порядок проверок
// фиксирован, первое сработавшее условие определяет сообщение.
func EvaluateChoice(user *models.User, save *models.SaveState, choice *models.Choice) (bool, string) {
	// 1. Платный выбор: хватает ли алмазов
	if choice.IsPremium && user.Diamonds < choice.DiamondsCost {
		return false, MsgNotEnoughDiamonds
	}

	// 2. Выбор только для лидера команды
	if choice.OnlyLeader && !user.IsTeamLeader {
		return false, MsgLeaderOnly
	}

	// 3-5. Пороги по накопленным уровням. Отсутствующий порог не ограничивает.
	if choice.RequiredFriendshipLevel != nil && save.FriendshipLevel < *choice.RequiredFriendshipLevel {
		return false, MsgNotEnoughFriendship
	}
	if choice.RequiredPassionLevel != nil && save.PassionLevel < *choice.RequiredPassionLevel {
		return false, MsgNotEnoughPassion
	}
	if choice.RequiredTeasingLevel != nil && save.TeasingLevel < *choice.RequiredTeasingLevel {
		return false, MsgNotEnoughTeasing
	}

	// 6. Командная блокировка: пустой список команд закрывает выбор для всех
	if choice.IsLocked {
		if user.TeamID == nil {
			return false, MsgTeamLocked
		}
		allowed := false
		for _, teamID := range choice.UnlockedTeamIDs() {
			if teamID == *user.TeamID {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, MsgTeamLocked
		}
	}

	return true, ""
}

func (s *gameServiceImpl) GetCurrentScene(ctx context.Context, userID uuid.UUID, storyID int64) (*SceneView, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	save, err := s.getOrCreateSave(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	scene, err := s.storyRepo.GetSceneByID(ctx, save.SceneID)
	if err != nil {
		return nil, err
	}

	view := &SceneView{
		StoryID:         storyID,
		ChapterID:       scene.ChapterID,
		SceneID:         scene.ID,
		SceneType:       scene.SceneType,
		BackgroundURL:   scene.BackgroundURL,
		CharacterName:   substituteName(scene.CharacterName, user),
		CharacterSprite: scene.CharacterSprite,
		DialogueText:    substituteName(scene.DialogueText, user),
		Diamonds:        user.Diamonds,
		TeasingLevel:    save.TeasingLevel,
		FriendshipLevel: save.FriendshipLevel,
		PassionLevel:    save.PassionLevel,
	}

	// Для сцен ввода варианты не показываются: игрок должен угадать текст
	if scene.IsInput() {
		return view, nil
	}

	choices, err := s.storyRepo.ListChoices(ctx, scene.ID)
	if err != nil {
		return nil, err
	}
	view.Choices = make([]ChoiceView, 0, len(choices))
	for i := range choices {
		choice := &choices[i]
		available, reason := EvaluateChoice(user, save, choice)
		view.Choices = append(view.Choices, ChoiceView{
			ID:           choice.ID,
			Text:         substituteName(choice.ChoiceText, user),
			IsAvailable:  available,
			Reason:       reason,
			IsPremium:    choice.IsPremium,
			DiamondsCost: choice.DiamondsCost,
			IsLegend:     choice.IsLegend,
		})
	}

	return view, nil
}

func (s *gameServiceImpl) MakeChoice(ctx context.Context, userID uuid.UUID, storyID, choiceID int64) (*ChoiceOutcome, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Int64("storyID", storyID), zap.Int64("choiceID", choiceID))

	choice, err := s.storyRepo.GetChoiceByID(ctx, choiceID)
	if err != nil {
		return nil, err
	}

	// Выбор должен принадлежать дереву этой истории
	choiceStoryID, err := s.storyRepo.GetStoryIDForScene(ctx, choice.SceneID)
	if err != nil {
		return nil, err
	}
	if choiceStoryID != storyID {
		log.Warn("Choice does not belong to the story", zap.Int64("choiceStoryID", choiceStoryID))
		return nil, models.ErrChoiceNotFound
	}

	return s.applyChoice(ctx, userID, storyID, choice)
}

func (s *gameServiceImpl) MakeInputChoice(ctx context.Context, userID uuid.UUID, storyID int64, text string) (*ChoiceOutcome, error) {
	save, err := s.getOrCreateSave(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	scene, err := s.storyRepo.GetSceneByID(ctx, save.SceneID)
	if err != nil {
		return nil, err
	}
	if !scene.IsInput() {
		return nil, ErrNotInputScene
	}

	choices, err := s.storyRepo.ListChoices(ctx, scene.ID)
	if err != nil {
		return nil, err
	}

	// Точное чувствительное к регистру совпадение, без обрезки пробелов
	for i := range choices {
		if choices[i].ChoiceText == text {
			return s.applyChoice(ctx, userID, storyID, &choices[i])
		}
	}

	s.logger.Debug("Input text did not match any choice",
		zap.Stringer("userID", userID),
		zap.Int64("sceneID", scene.ID))
	return &ChoiceOutcome{Success: false, Message: MsgWrongAnswer, NextSceneID: -1, NextChapterID: -1}, nil
}

func (s *gameServiceImpl) ToNextScene(ctx context.Context, userID uuid.UUID, storyID int64) (*ChoiceOutcome, error) {
	save, err := s.getOrCreateSave(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	scene, err := s.storyRepo.GetSceneByID(ctx, save.SceneID)
	if err != nil {
		return nil, err
	}

	// Линейный переход разрешен только со сцен без вариантов выбора.
	// Для сцены с вводом варианты — это ответы, их тоже нельзя пропустить.
	choices, err := s.storyRepo.ListChoices(ctx, scene.ID)
	if err != nil {
		return nil, err
	}
	if len(choices) > 0 {
		return nil, ErrSceneHasChoices
	}

	next, err := s.storyRepo.GetNextScene(ctx, save.ChapterID, save.SceneID)
	if err != nil {
		if errors.Is(err, models.ErrSceneNotFound) {
			return &ChoiceOutcome{Success: false, Message: MsgTheEnd, NextSceneID: -1, NextChapterID: -1}, nil
		}
		return nil, err
	}

	save.ChapterID = next.ChapterID
	save.SceneID = next.ID
	if err := s.saveRepo.Upsert(ctx, s.db, save); err != nil {
		return nil, err
	}

	return &ChoiceOutcome{Success: true, NextSceneID: next.ID, NextChapterID: next.ChapterID}, nil
}

// applyChoice проверяет доступность и атомарно применяет выбор: списывает
// алмазы, передвигает указатель сохранения, накапливает изменения уровней
// и пишет запись в журнал. Все внутри одной транзакции.
func (s *gameServiceImpl) applyChoice(ctx context.Context, userID uuid.UUID, storyID int64, choice *models.Choice) (*ChoiceOutcome, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Int64("storyID", storyID), zap.Int64("choiceID", choice.ID))

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	save, err := s.getOrCreateSave(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	if available, reason := EvaluateChoice(user, save, choice); !available {
		log.Debug("Choice rejected", zap.String("reason", reason))
		return &ChoiceOutcome{Success: false, Message: reason, NextSceneID: -1, NextChapterID: -1}, nil
	}

	outcome := &ChoiceOutcome{Success: true, NextSceneID: -1, NextChapterID: -1}

	txErr := s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		// Списание с охранным условием: при гонке баланс не уходит в минус
		if choice.IsPremium && choice.DiamondsCost > 0 {
			if err := s.userRepo.AdjustDiamonds(ctx, q, userID, -choice.DiamondsCost); err != nil {
				return err
			}
		}

		ended := false
		switch dest := choice.Destination(); dest.Kind {
		case models.DestinationChapter:
			chapter, err := s.storyRepo.GetChapterByID(ctx, dest.ChapterID)
			if err != nil {
				return err
			}
			if chapter.StoryID != storyID {
				return models.ErrInvalidDestination
			}
			first, err := s.storyRepo.GetFirstScene(ctx, chapter.ID)
			if err != nil {
				return fmt.Errorf("destination chapter %d has no scenes: %w", chapter.ID, err)
			}
			save.ChapterID = chapter.ID
			save.SceneID = first.ID
		case models.DestinationScene:
			scene, err := s.storyRepo.GetSceneByID(ctx, dest.SceneID)
			if err != nil {
				return err
			}
			sceneStoryID, err := s.storyRepo.GetStoryIDForScene(ctx, scene.ID)
			if err != nil {
				return err
			}
			if sceneStoryID != storyID {
				return models.ErrInvalidDestination
			}
			save.ChapterID = scene.ChapterID
			save.SceneID = scene.ID
		default:
			next, err := s.storyRepo.GetNextScene(ctx, save.ChapterID, save.SceneID)
			if err != nil {
				if !errors.Is(err, models.ErrSceneNotFound) {
					return err
				}
				ended = true
			} else {
				save.ChapterID = next.ChapterID
				save.SceneID = next.ID
			}
		}

		// Изменения уровней накапливаются без ограничения сверху и снизу
		save.TeasingLevel += choice.TeasingChange
		save.FriendshipLevel += choice.FriendshipChange
		save.PassionLevel += choice.PassionChange

		if err := s.saveRepo.Upsert(ctx, q, save); err != nil {
			return err
		}

		entry := &models.ChoiceHistory{
			UserID:   userID,
			StoryID:  storyID,
			SceneID:  choice.SceneID,
			ChoiceID: choice.ID,
			IsLegend: choice.IsLegend,
		}
		if err := s.historyRepo.Append(ctx, q, entry); err != nil {
			return err
		}

		if err := s.economyRepo.IncrementChoicesMade(ctx, q, userID, storyID); err != nil {
			return err
		}

		if ended {
			if err := s.economyRepo.MarkStoryCompleted(ctx, q, userID, storyID); err != nil {
				return err
			}
			if err := s.economyRepo.UnlockAchievement(ctx, q, &models.Achievement{
				UserID:  userID,
				StoryID: storyID,
				Code:    achievementStoryCompleted,
				Title:   "Story completed",
			}); err != nil {
				return err
			}
			outcome.Message = MsgTheEnd
			return nil
		}

		outcome.NextSceneID = save.SceneID
		outcome.NextChapterID = save.ChapterID
		return nil
	})

	if txErr != nil {
		// Гонка на балансе: параллельный запрос успел списать алмазы первым
		if errors.Is(txErr, models.ErrInsufficientDiamonds) {
			log.Debug("Choice rejected inside transaction: insufficient diamonds")
			return &ChoiceOutcome{Success: false, Message: MsgNotEnoughDiamonds, NextSceneID: -1, NextChapterID: -1}, nil
		}
		log.Error("Failed to apply choice", zap.Error(txErr))
		return nil, txErr
	}

	log.Info("Choice applied",
		zap.Int64("nextSceneID", outcome.NextSceneID),
		zap.Int64("nextChapterID", outcome.NextChapterID),
		zap.Bool("isLegend", choice.IsLegend))
	return outcome, nil
}

// getOrCreateSave возвращает сохранение пользователя в истории, при первом
// обращении создает его на первой сцене первой главы.
func (s *gameServiceImpl) getOrCreateSave(ctx context.Context, userID uuid.UUID, storyID int64) (*models.SaveState, error) {
	save, err := s.saveRepo.Get(ctx, userID, storyID)
	if err == nil {
		return save, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	chapter, err := s.storyRepo.GetFirstChapter(ctx, storyID)
	if err != nil {
		return nil, err
	}
	scene, err := s.storyRepo.GetFirstScene(ctx, chapter.ID)
	if err != nil {
		return nil, err
	}

	save = &models.SaveState{
		UserID:    userID,
		StoryID:   storyID,
		ChapterID: chapter.ID,
		SceneID:   scene.ID,
	}
	if err := s.saveRepo.Upsert(ctx, s.db, save); err != nil {
		return nil, err
	}

	s.logger.Debug("Save state created",
		zap.Stringer("userID", userID),
		zap.Int64("storyID", storyID),
		zap.Int64("sceneID", scene.ID))
	return save, nil
}

// substituteName подставляет имя игрока вместо плейсхолдера {name}.
func substituteName(text string, user *models.User) string {
	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	return strings.ReplaceAll(text, "{name}", name)
}
