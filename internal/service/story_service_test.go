package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
	"love-sim-server/internal/repository/mocks"
	"love-sim-server/internal/service"
)

func newStoryService(t *testing.T) (service.StoryService, *mocks.StoryRepository) {
	t.Helper()
	storyRepo := new(mocks.StoryRepository)
	svc := service.NewStoryService(nil, &mocks.TxRunner{}, storyRepo, zap.NewNop())
	return svc, storyRepo
}

func TestCreateChapter(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates chapter and bumps the chapter counter", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)
		chapter := &models.Chapter{StoryID: 1, ChapterNumber: 1, Title: "Знакомство"}

		storyRepo.On("GetStoryByID", ctx, int64(1)).Return(&models.Story{ID: 1}, nil).Once()
		storyRepo.On("CreateChapter", ctx, mock.Anything, chapter).Return(nil).Once()
		storyRepo.On("AdjustCounters", ctx, mock.Anything, int64(1), 1, 0).Return(nil).Once()

		err := svc.CreateChapter(ctx, chapter)
		require.NoError(t, err)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Duplicate chapter number leaves counters untouched", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)
		chapter := &models.Chapter{StoryID: 1, ChapterNumber: 1, Title: "Знакомство"}

		storyRepo.On("GetStoryByID", ctx, int64(1)).Return(&models.Story{ID: 1}, nil).Once()
		storyRepo.On("CreateChapter", ctx, mock.Anything, chapter).
			Return(models.ErrDuplicateNumber).Once()

		err := svc.CreateChapter(ctx, chapter)
		assert.ErrorIs(t, err, models.ErrDuplicateNumber)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Unknown story", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		storyRepo.On("GetStoryByID", ctx, int64(99)).Return(nil, models.ErrStoryNotFound).Once()

		err := svc.CreateChapter(ctx, &models.Chapter{StoryID: 99, ChapterNumber: 1})
		assert.ErrorIs(t, err, models.ErrStoryNotFound)
	})
}

func TestDeleteChapter(t *testing.T) {
	ctx := context.Background()

	t.Run("Deleting a chapter corrects both counters", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		storyRepo.On("GetChapterByID", ctx, int64(5)).
			Return(&models.Chapter{ID: 5, StoryID: 1}, nil).Once()
		storyRepo.On("ListScenes", ctx, int64(5)).Return([]models.Scene{
			{ID: 10, ChapterID: 5}, {ID: 11, ChapterID: 5}, {ID: 12, ChapterID: 5},
		}, nil).Once()
		storyRepo.On("DeleteChapter", ctx, mock.Anything, int64(5)).Return(nil).Once()
		storyRepo.On("AdjustCounters", ctx, mock.Anything, int64(1), -1, -3).Return(nil).Once()

		err := svc.DeleteChapter(ctx, 5)
		require.NoError(t, err)
		storyRepo.AssertExpectations(t)
	})
}

func TestCreateScene(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates scene and bumps the scene counter", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)
		scene := &models.Scene{ChapterID: 5, SceneNumber: 1, SceneType: models.SceneTypeNormal}

		storyRepo.On("GetChapterByID", ctx, int64(5)).
			Return(&models.Chapter{ID: 5, StoryID: 1}, nil).Once()
		storyRepo.On("CreateScene", ctx, mock.Anything, scene).Return(nil).Once()
		storyRepo.On("AdjustCounters", ctx, mock.Anything, int64(1), 0, 1).Return(nil).Once()

		err := svc.CreateScene(ctx, scene)
		require.NoError(t, err)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Unknown scene type is rejected", func(t *testing.T) {
		svc, _ := newStoryService(t)

		err := svc.CreateScene(ctx, &models.Scene{ChapterID: 5, SceneType: "cutscene"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestCreateChoiceValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty text", func(t *testing.T) {
		svc, _ := newStoryService(t)

		err := svc.CreateChoice(ctx, &models.Choice{SceneID: 10})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Both destinations set", func(t *testing.T) {
		svc, _ := newStoryService(t)

		err := svc.CreateChoice(ctx, &models.Choice{
			SceneID:       10,
			ChoiceText:    "Поехали",
			NextSceneID:   int64Ptr(11),
			NextChapterID: int64Ptr(2),
		})
		assert.ErrorIs(t, err, models.ErrInvalidDestination)
	})

	t.Run("Destination scene from another story", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		storyRepo.On("GetStoryIDForScene", ctx, int64(10)).Return(int64(1), nil).Once()
		storyRepo.On("GetStoryIDForScene", ctx, int64(500)).Return(int64(2), nil).Once()

		err := svc.CreateChoice(ctx, &models.Choice{
			SceneID:     10,
			ChoiceText:  "Поехали",
			NextSceneID: int64Ptr(500),
		})
		assert.ErrorIs(t, err, models.ErrInvalidDestination)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Valid linear choice", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)
		choice := &models.Choice{SceneID: 10, ChoiceText: "Поехали"}

		storyRepo.On("GetStoryIDForScene", ctx, int64(10)).Return(int64(1), nil).Once()
		storyRepo.On("CreateChoice", ctx, mock.Anything, choice).Return(nil).Once()

		err := svc.CreateChoice(ctx, choice)
		require.NoError(t, err)
		storyRepo.AssertExpectations(t)
	})
}

func TestUpdateChoice(t *testing.T) {
	ctx := context.Background()

	t.Run("Destination validated against the stored scene", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		// Выбор лежит на сцене 10 (история 1); клиент присылает sceneID 999,
		// ведущий в историю 2, и назначение из истории 2
		storyRepo.On("GetChoiceByID", ctx, int64(7)).
			Return(&models.Choice{ID: 7, SceneID: 10, ChoiceText: "Старый"}, nil).Once()
		storyRepo.On("GetStoryIDForScene", ctx, int64(10)).Return(int64(1), nil).Once()
		storyRepo.On("GetStoryIDForScene", ctx, int64(500)).Return(int64(2), nil).Once()

		err := svc.UpdateChoice(ctx, &models.Choice{
			ID:          7,
			SceneID:     999,
			ChoiceText:  "Новый",
			NextSceneID: int64Ptr(500),
		})
		assert.ErrorIs(t, err, models.ErrInvalidDestination)
		storyRepo.AssertNotCalled(t, "UpdateChoice", mock.Anything, mock.Anything)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Client scene claim is ignored", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		storyRepo.On("GetChoiceByID", ctx, int64(7)).
			Return(&models.Choice{ID: 7, SceneID: 10, ChoiceText: "Старый"}, nil).Once()
		storyRepo.On("GetStoryIDForScene", ctx, int64(10)).Return(int64(1), nil).Once()
		storyRepo.On("UpdateChoice", ctx, mock.MatchedBy(func(c *models.Choice) bool {
			return c.SceneID == 10
		})).Return(nil).Once()

		err := svc.UpdateChoice(ctx, &models.Choice{ID: 7, SceneID: 999, ChoiceText: "Новый"})
		require.NoError(t, err)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Unknown choice", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		storyRepo.On("GetChoiceByID", ctx, int64(404)).
			Return(nil, models.ErrChoiceNotFound).Once()

		err := svc.UpdateChoice(ctx, &models.Choice{ID: 404, ChoiceText: "Новый"})
		assert.ErrorIs(t, err, models.ErrChoiceNotFound)
		storyRepo.AssertExpectations(t)
	})
}

func TestImportStory(t *testing.T) {
	ctx := context.Background()

	export := func() *service.StoryExport {
		return &service.StoryExport{
			Title:         "Лето в Крыму",
			IsPremium:     true,
			PriceDiamonds: 100,
			Chapters: []service.ChapterExport{
				{
					ID:            10,
					ChapterNumber: 1,
					Title:         "Знакомство",
					Scenes: []service.SceneExport{
						{
							ID:          100,
							SceneNumber: 1,
							SceneType:   models.SceneTypeNormal,
							Choices: []models.Choice{
								{ID: 1000, SceneID: 100, ChoiceText: "Дальше", NextSceneID: int64Ptr(101)},
							},
						},
						{ID: 101, SceneNumber: 2, SceneType: models.SceneTypeNormal},
					},
				},
			},
		}
	}

	t.Run("Remaps old identifiers to new ones", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		storyRepo.On("CreateStory", ctx, mock.MatchedBy(func(s *models.Story) bool {
			return s.Title == "Лето в Крыму" && s.IsPremium && s.PriceDiamonds == 100
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Story).ID = 7
		}).Return(nil).Once()

		storyRepo.On("CreateChapter", ctx, mock.Anything, mock.MatchedBy(func(c *models.Chapter) bool {
			return c.StoryID == 7 && c.ChapterNumber == 1
		})).Run(func(args mock.Arguments) {
			args.Get(2).(*models.Chapter).ID = 70
		}).Return(nil).Once()

		sceneIDs := []int64{700, 701}
		storyRepo.On("CreateScene", ctx, mock.Anything, mock.MatchedBy(func(s *models.Scene) bool {
			return s.ChapterID == 70
		})).Run(func(args mock.Arguments) {
			scene := args.Get(2).(*models.Scene)
			scene.ID = sceneIDs[0]
			sceneIDs = sceneIDs[1:]
		}).Return(nil).Twice()

		// Переход на старую сцену 101 должен указать на новую 701
		storyRepo.On("CreateChoice", ctx, mock.Anything, mock.MatchedBy(func(c *models.Choice) bool {
			assert.Equal(t, int64(700), c.SceneID)
			require.NotNil(t, c.NextSceneID)
			assert.Equal(t, int64(701), *c.NextSceneID)
			return true
		})).Return(nil).Once()

		storyRepo.On("AdjustCounters", ctx, mock.Anything, int64(7), 1, 2).Return(nil).Once()

		story, err := svc.ImportStory(ctx, export())
		require.NoError(t, err)
		assert.Equal(t, int64(7), story.ID)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Reference to an unknown scene rolls back the story card", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)
		broken := export()
		broken.Chapters[0].Scenes[0].Choices[0].NextSceneID = int64Ptr(999)

		storyRepo.On("CreateStory", ctx, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Story).ID = 7
		}).Return(nil).Once()
		storyRepo.On("CreateChapter", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(2).(*models.Chapter).ID = 70
		}).Return(nil).Once()
		storyRepo.On("CreateScene", ctx, mock.Anything, mock.Anything).Return(nil).Twice()
		storyRepo.On("DeleteStory", ctx, int64(7)).Return(nil).Once()

		story, err := svc.ImportStory(ctx, broken)
		assert.Nil(t, story)
		assert.True(t, errors.Is(err, models.ErrInvalidDestination))
		storyRepo.AssertExpectations(t)
	})
}

func TestExportStory(t *testing.T) {
	ctx := context.Background()

	t.Run("Collects the full story tree", func(t *testing.T) {
		svc, storyRepo := newStoryService(t)

		storyRepo.On("GetStoryByID", ctx, int64(1)).Return(&models.Story{
			ID: 1, Title: "Лето в Крыму", IsPremium: true, PriceDiamonds: 100,
		}, nil).Once()
		storyRepo.On("ListChapters", ctx, int64(1)).Return([]models.Chapter{
			{ID: 10, StoryID: 1, ChapterNumber: 1, Title: "Знакомство"},
		}, nil).Once()
		storyRepo.On("ListScenes", ctx, int64(10)).Return([]models.Scene{
			{ID: 100, ChapterID: 10, SceneNumber: 1},
		}, nil).Once()
		storyRepo.On("ListChoices", ctx, int64(100)).Return([]models.Choice{
			{ID: 1000, SceneID: 100, ChoiceText: "Дальше"},
		}, nil).Once()

		export, err := svc.ExportStory(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Лето в Крыму", export.Title)
		require.Len(t, export.Chapters, 1)
		assert.Equal(t, int64(10), export.Chapters[0].ID)
		require.Len(t, export.Chapters[0].Scenes, 1)
		require.Len(t, export.Chapters[0].Scenes[0].Choices, 1)
		storyRepo.AssertExpectations(t)
	})
}
