package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"love-sim-server/internal/models"
	"love-sim-server/internal/repository"
)

// StoryExport — переносимое JSON-представление всего дерева истории.
type StoryExport struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	CoverURL      string          `json:"coverUrl"`
	IsPremium     bool            `json:"isPremium"`
	PriceDiamonds int             `json:"priceDiamonds"`
	Chapters      []ChapterExport `json:"chapters"`
}

// ChapterExport — глава в экспортном дереве.
type ChapterExport struct {
	ID            int64         `json:"id"`
	ChapterNumber int           `json:"chapterNumber"`
	Title         string        `json:"title"`
	Scenes        []SceneExport `json:"scenes"`
}

// SceneExport — сцена в экспортном дереве.
type SceneExport struct {
	ID              int64           `json:"id"`
	SceneNumber     int             `json:"sceneNumber"`
	SceneType       string          `json:"sceneType"`
	BackgroundURL   string          `json:"backgroundUrl"`
	CharacterName   string          `json:"characterName"`
	CharacterSprite string          `json:"characterSprite"`
	DialogueText    string          `json:"dialogueText"`
	Choices         []models.Choice `json:"choices"`
}

// StoryService реализует авторинг: CRUD дерева истории, денормализованные
// счетчики, валидацию назначений переходов и экспорт/импорт.
type StoryService interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStory(ctx context.Context, id int64) (*models.Story, error)
	ListStories(ctx context.Context, publishedOnly bool) ([]models.Story, error)
	UpdateStory(ctx context.Context, story *models.Story) error
	DeleteStory(ctx context.Context, id int64) error

	CreateChapter(ctx context.Context, chapter *models.Chapter) error
	ListChapters(ctx context.Context, storyID int64) ([]models.Chapter, error)
	UpdateChapter(ctx context.Context, chapter *models.Chapter) error
	DeleteChapter(ctx context.Context, id int64) error

	CreateScene(ctx context.Context, scene *models.Scene) error
	ListScenes(ctx context.Context, chapterID int64) ([]models.Scene, error)
	UpdateScene(ctx context.Context, scene *models.Scene) error
	DeleteScene(ctx context.Context, id int64) error

	CreateChoice(ctx context.Context, choice *models.Choice) error
	ListChoices(ctx context.Context, sceneID int64) ([]models.Choice, error)
	UpdateChoice(ctx context.Context, choice *models.Choice) error
	DeleteChoice(ctx context.Context, id int64) error

	ExportStory(ctx context.Context, storyID int64) (*StoryExport, error)
	ImportStory(ctx context.Context, export *StoryExport) (*models.Story, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryService = (*storyServiceImpl)(nil)

type storyServiceImpl struct {
	db        repository.DBTX
	txRunner  repository.TxRunner
	storyRepo repository.StoryRepository
	logger    *zap.Logger
}

// NewStoryService создает сервис авторинга историй.
func NewStoryService(db repository.DBTX, txRunner repository.TxRunner, storyRepo repository.StoryRepository, logger *zap.Logger) StoryService {
	return &storyServiceImpl{
		db:        db,
		txRunner:  txRunner,
		storyRepo: storyRepo,
		logger:    logger.Named("StoryService"),
	}
}

// --- Истории ---

func (s *storyServiceImpl) CreateStory(ctx context.Context, story *models.Story) error {
	if story.Title == "" {
		return models.ErrInvalidInput
	}
	if err := s.storyRepo.CreateStory(ctx, story); err != nil {
		return err
	}
	s.logger.Info("Story created", zap.Int64("storyID", story.ID), zap.String("title", story.Title))
	return nil
}

func (s *storyServiceImpl) GetStory(ctx context.Context, id int64) (*models.Story, error) {
	return s.storyRepo.GetStoryByID(ctx, id)
}

func (s *storyServiceImpl) ListStories(ctx context.Context, publishedOnly bool) ([]models.Story, error) {
	return s.storyRepo.ListStories(ctx, publishedOnly)
}

func (s *storyServiceImpl) UpdateStory(ctx context.Context, story *models.Story) error {
	if story.Title == "" {
		return models.ErrInvalidInput
	}
	return s.storyRepo.UpdateStory(ctx, story)
}

func (s *storyServiceImpl) DeleteStory(ctx context.Context, id int64) error {
	return s.storyRepo.DeleteStory(ctx, id)
}

// --- Главы ---

// CreateChapter создает главу и увеличивает счетчик глав истории в одной
// транзакции.
func (s *storyServiceImpl) CreateChapter(ctx context.Context, chapter *models.Chapter) error {
	if _, err := s.storyRepo.GetStoryByID(ctx, chapter.StoryID); err != nil {
		return err
	}
	return s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		if err := s.storyRepo.CreateChapter(ctx, q, chapter); err != nil {
			return err
		}
		return s.storyRepo.AdjustCounters(ctx, q, chapter.StoryID, 1, 0)
	})
}

func (s *storyServiceImpl) ListChapters(ctx context.Context, storyID int64) ([]models.Chapter, error) {
	return s.storyRepo.ListChapters(ctx, storyID)
}

func (s *storyServiceImpl) UpdateChapter(ctx context.Context, chapter *models.Chapter) error {
	return s.storyRepo.UpdateChapter(ctx, chapter)
}

// DeleteChapter удаляет главу вместе со сценами (каскадом) и корректирует
// оба счетчика истории.
func (s *storyServiceImpl) DeleteChapter(ctx context.Context, id int64) error {
	chapter, err := s.storyRepo.GetChapterByID(ctx, id)
	if err != nil {
		return err
	}
	scenes, err := s.storyRepo.ListScenes(ctx, id)
	if err != nil {
		return err
	}
	return s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		if err := s.storyRepo.DeleteChapter(ctx, q, id); err != nil {
			return err
		}
		return s.storyRepo.AdjustCounters(ctx, q, chapter.StoryID, -1, -len(scenes))
	})
}

// --- Сцены ---

func (s *storyServiceImpl) CreateScene(ctx context.Context, scene *models.Scene) error {
	if scene.SceneType != "" && scene.SceneType != models.SceneTypeNormal && scene.SceneType != models.SceneTypeInput {
		return models.ErrInvalidInput
	}
	chapter, err := s.storyRepo.GetChapterByID(ctx, scene.ChapterID)
	if err != nil {
		return err
	}
	return s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		if err := s.storyRepo.CreateScene(ctx, q, scene); err != nil {
			return err
		}
		return s.storyRepo.AdjustCounters(ctx, q, chapter.StoryID, 0, 1)
	})
}

func (s *storyServiceImpl) ListScenes(ctx context.Context, chapterID int64) ([]models.Scene, error) {
	return s.storyRepo.ListScenes(ctx, chapterID)
}

func (s *storyServiceImpl) UpdateScene(ctx context.Context, scene *models.Scene) error {
	if scene.SceneType != "" && scene.SceneType != models.SceneTypeNormal && scene.SceneType != models.SceneTypeInput {
		return models.ErrInvalidInput
	}
	return s.storyRepo.UpdateScene(ctx, scene)
}

func (s *storyServiceImpl) DeleteScene(ctx context.Context, id int64) error {
	storyID, err := s.storyRepo.GetStoryIDForScene(ctx, id)
	if err != nil {
		return err
	}
	return s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		if err := s.storyRepo.DeleteScene(ctx, q, id); err != nil {
			return err
		}
		return s.storyRepo.AdjustCounters(ctx, q, storyID, 0, -1)
	})
}

// --- Выборы ---

func (s *storyServiceImpl) CreateChoice(ctx context.Context, choice *models.Choice) error {
	if err := s.validateChoice(ctx, choice); err != nil {
		return err
	}
	if err := s.storyRepo.CreateChoice(ctx, s.db, choice); err != nil {
		return err
	}
	s.logger.Debug("Choice created", zap.Int64("choiceID", choice.ID), zap.Int64("sceneID", choice.SceneID))
	return nil
}

func (s *storyServiceImpl) ListChoices(ctx context.Context, sceneID int64) ([]models.Choice, error) {
	return s.storyRepo.ListChoices(ctx, sceneID)
}

// UpdateChoice обновляет выбор. Сцена выбора при обновлении не меняется:
// назначение валидируется по сохраненной сцене, а не по данным клиента.
func (s *storyServiceImpl) UpdateChoice(ctx context.Context, choice *models.Choice) error {
	stored, err := s.storyRepo.GetChoiceByID(ctx, choice.ID)
	if err != nil {
		return err
	}
	choice.SceneID = stored.SceneID

	if err := s.validateChoice(ctx, choice); err != nil {
		return err
	}
	return s.storyRepo.UpdateChoice(ctx, choice)
}

func (s *storyServiceImpl) DeleteChoice(ctx context.Context, id int64) error {
	return s.storyRepo.DeleteChoice(ctx, id)
}

// validateChoice проверяет выбор на этапе авторинга: текст непустой,
// назначение задано не более чем одним полем и принадлежит дереву той же
// истории, что и сцена выбора.
func (s *storyServiceImpl) validateChoice(ctx context.Context, choice *models.Choice) error {
	if choice.ChoiceText == "" {
		return models.ErrInvalidInput
	}
	if choice.NextSceneID != nil && choice.NextChapterID != nil {
		return models.ErrInvalidDestination
	}

	storyID, err := s.storyRepo.GetStoryIDForScene(ctx, choice.SceneID)
	if err != nil {
		return err
	}

	if choice.NextChapterID != nil {
		chapter, err := s.storyRepo.GetChapterByID(ctx, *choice.NextChapterID)
		if err != nil {
			return err
		}
		if chapter.StoryID != storyID {
			return models.ErrInvalidDestination
		}
	}
	if choice.NextSceneID != nil {
		destStoryID, err := s.storyRepo.GetStoryIDForScene(ctx, *choice.NextSceneID)
		if err != nil {
			return err
		}
		if destStoryID != storyID {
			return models.ErrInvalidDestination
		}
	}
	return nil
}

// --- Экспорт/импорт ---

// ExportStory собирает полное дерево истории в переносимую структуру.
// Идентификаторы сцен и глав сохраняются для восстановления переходов
// при импорте.
func (s *storyServiceImpl) ExportStory(ctx context.Context, storyID int64) (*StoryExport, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	export := &StoryExport{
		Title:         story.Title,
		Description:   story.Description,
		CoverURL:      story.CoverURL,
		IsPremium:     story.IsPremium,
		PriceDiamonds: story.PriceDiamonds,
	}

	chapters, err := s.storyRepo.ListChapters(ctx, storyID)
	if err != nil {
		return nil, err
	}
	for _, chapter := range chapters {
		chapterExport := ChapterExport{
			ID:            chapter.ID,
			ChapterNumber: chapter.ChapterNumber,
			Title:         chapter.Title,
		}
		scenes, err := s.storyRepo.ListScenes(ctx, chapter.ID)
		if err != nil {
			return nil, err
		}
		for _, scene := range scenes {
			choices, err := s.storyRepo.ListChoices(ctx, scene.ID)
			if err != nil {
				return nil, err
			}
			chapterExport.Scenes = append(chapterExport.Scenes, SceneExport{
				ID:              scene.ID,
				SceneNumber:     scene.SceneNumber,
				SceneType:       scene.SceneType,
				BackgroundURL:   scene.BackgroundURL,
				CharacterName:   scene.CharacterName,
				CharacterSprite: scene.CharacterSprite,
				DialogueText:    scene.DialogueText,
				Choices:         choices,
			})
		}
		export.Chapters = append(export.Chapters, chapterExport)
	}

	s.logger.Info("Story exported", zap.Int64("storyID", storyID), zap.Int("chapters", len(export.Chapters)))
	return export, nil
}

// ImportStory создает новую историю из экспортного дерева. Все строки
// создаются в одной транзакции; старые идентификаторы сцен и глав
// переназначаются на новые в переходах выборов.
func (s *storyServiceImpl) ImportStory(ctx context.Context, export *StoryExport) (*models.Story, error) {
	if export.Title == "" {
		return nil, models.ErrInvalidInput
	}

	story := &models.Story{
		Title:         export.Title,
		Description:   export.Description,
		CoverURL:      export.CoverURL,
		IsPremium:     export.IsPremium,
		PriceDiamonds: export.PriceDiamonds,
	}
	if err := s.storyRepo.CreateStory(ctx, story); err != nil {
		return nil, err
	}

	err := s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		chapterIDMap := make(map[int64]int64)
		sceneIDMap := make(map[int64]int64)
		scenesTotal := 0

		// Сначала главы и сцены, чтобы заполнить карты идентификаторов
		for _, chapterExport := range export.Chapters {
			chapter := &models.Chapter{
				StoryID:       story.ID,
				ChapterNumber: chapterExport.ChapterNumber,
				Title:         chapterExport.Title,
			}
			if err := s.storyRepo.CreateChapter(ctx, q, chapter); err != nil {
				return err
			}
			chapterIDMap[chapterExport.ID] = chapter.ID

			for _, sceneExport := range chapterExport.Scenes {
				scene := &models.Scene{
					ChapterID:       chapter.ID,
					SceneNumber:     sceneExport.SceneNumber,
					SceneType:       sceneExport.SceneType,
					BackgroundURL:   sceneExport.BackgroundURL,
					CharacterName:   sceneExport.CharacterName,
					CharacterSprite: sceneExport.CharacterSprite,
					DialogueText:    sceneExport.DialogueText,
				}
				if err := s.storyRepo.CreateScene(ctx, q, scene); err != nil {
					return err
				}
				sceneIDMap[sceneExport.ID] = scene.ID
				scenesTotal++
			}
		}

		// Затем выборы с переназначением переходов на новые идентификаторы
		for _, chapterExport := range export.Chapters {
			for _, sceneExport := range chapterExport.Scenes {
				for _, choiceExport := range sceneExport.Choices {
					choice := choiceExport
					choice.ID = 0
					choice.SceneID = sceneIDMap[sceneExport.ID]
					if choice.NextSceneID != nil {
						newID, ok := sceneIDMap[*choice.NextSceneID]
						if !ok {
							return fmt.Errorf("choice references unknown scene %d: %w", *choice.NextSceneID, models.ErrInvalidDestination)
						}
						choice.NextSceneID = &newID
					}
					if choice.NextChapterID != nil {
						newID, ok := chapterIDMap[*choice.NextChapterID]
						if !ok {
							return fmt.Errorf("choice references unknown chapter %d: %w", *choice.NextChapterID, models.ErrInvalidDestination)
						}
						choice.NextChapterID = &newID
					}
					if err := s.storyRepo.CreateChoice(ctx, q, &choice); err != nil {
						return err
					}
				}
			}
		}

		return s.storyRepo.AdjustCounters(ctx, q, story.ID, len(export.Chapters), scenesTotal)
	})
	if err != nil {
		// Откатываем созданную карточку истории, дерево не записалось
		if delErr := s.storyRepo.DeleteStory(ctx, story.ID); delErr != nil {
			s.logger.Error("Failed to delete story card after failed import",
				zap.Int64("storyID", story.ID),
				zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Story imported", zap.Int64("storyID", story.ID), zap.String("title", story.Title))
	return story, nil
}
