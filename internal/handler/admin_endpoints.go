package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"love-sim-server/internal/models"
	"love-sim-server/internal/service"
)

// --- Истории ---

func (h *Handler) adminCreateStory(c echo.Context) error {
	var req storyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	story := &models.Story{
		Title:         req.Title,
		Description:   req.Description,
		CoverURL:      req.CoverURL,
		IsPublished:   req.IsPublished,
		IsPremium:     req.IsPremium,
		PriceDiamonds: req.PriceDiamonds,
	}
	if err := h.storyService.CreateStory(c.Request().Context(), story); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, story)
}

func (h *Handler) adminListStories(c echo.Context) error {
	stories, err := h.storyService.ListStories(c.Request().Context(), false)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, stories)
}

func (h *Handler) adminUpdateStory(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req storyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	story := &models.Story{
		ID:            storyID,
		Title:         req.Title,
		Description:   req.Description,
		CoverURL:      req.CoverURL,
		IsPublished:   req.IsPublished,
		IsPremium:     req.IsPremium,
		PriceDiamonds: req.PriceDiamonds,
	}
	if err := h.storyService.UpdateStory(c.Request().Context(), story); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

func (h *Handler) adminDeleteStory(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.storyService.DeleteStory(c.Request().Context(), storyID); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) adminExportStory(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	export, err := h.storyService.ExportStory(c.Request().Context(), storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, export)
}

func (h *Handler) adminImportStory(c echo.Context) error {
	var export service.StoryExport
	if err := c.Bind(&export); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	story, err := h.storyService.ImportStory(c.Request().Context(), &export)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, story)
}

// --- Главы ---

func (h *Handler) adminCreateChapter(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req chapterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	chapter := &models.Chapter{
		StoryID:       storyID,
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
	}
	if err := h.storyService.CreateChapter(c.Request().Context(), chapter); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, chapter)
}

func (h *Handler) adminListChapters(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	chapters, err := h.storyService.ListChapters(c.Request().Context(), storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, chapters)
}

func (h *Handler) adminUpdateChapter(c echo.Context) error {
	chapterID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req chapterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	chapter := &models.Chapter{
		ID:            chapterID,
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
	}
	if err := h.storyService.UpdateChapter(c.Request().Context(), chapter); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, chapter)
}

func (h *Handler) adminDeleteChapter(c echo.Context) error {
	chapterID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.storyService.DeleteChapter(c.Request().Context(), chapterID); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Сцены ---

func (h *Handler) adminCreateScene(c echo.Context) error {
	chapterID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req sceneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	scene := sceneFromRequest(&req)
	scene.ChapterID = chapterID
	if err := h.storyService.CreateScene(c.Request().Context(), scene); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, scene)
}

func (h *Handler) adminListScenes(c echo.Context) error {
	chapterID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	scenes, err := h.storyService.ListScenes(c.Request().Context(), chapterID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, scenes)
}

func (h *Handler) adminUpdateScene(c echo.Context) error {
	sceneID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req sceneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	scene := sceneFromRequest(&req)
	scene.ID = sceneID
	if err := h.storyService.UpdateScene(c.Request().Context(), scene); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, scene)
}

func (h *Handler) adminDeleteScene(c echo.Context) error {
	sceneID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.storyService.DeleteScene(c.Request().Context(), sceneID); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Выборы ---

func (h *Handler) adminCreateChoice(c echo.Context) error {
	sceneID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req choiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	choice := choiceFromRequest(&req)
	choice.SceneID = sceneID
	if err := h.storyService.CreateChoice(c.Request().Context(), choice); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, choice)
}

func (h *Handler) adminListChoices(c echo.Context) error {
	sceneID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	choices, err := h.storyService.ListChoices(c.Request().Context(), sceneID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, choices)
}

func (h *Handler) adminUpdateChoice(c echo.Context) error {
	choiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req choiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	choice := choiceFromRequest(&req)
	choice.ID = choiceID
	if err := h.storyService.UpdateChoice(c.Request().Context(), choice); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, choice)
}

func (h *Handler) adminDeleteChoice(c echo.Context) error {
	choiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.storyService.DeleteChoice(c.Request().Context(), choiceID); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sceneFromRequest(req *sceneRequest) *models.Scene {
	sceneType := req.SceneType
	if sceneType == "" {
		sceneType = models.SceneTypeNormal
	}
	return &models.Scene{
		SceneNumber:     req.SceneNumber,
		SceneType:       sceneType,
		BackgroundURL:   req.BackgroundURL,
		CharacterName:   req.CharacterName,
		CharacterSprite: req.CharacterSprite,
		DialogueText:    req.DialogueText,
	}
}

func choiceFromRequest(req *choiceRequest) *models.Choice {
	return &models.Choice{
		ChoiceText:              req.ChoiceText,
		TeasingChange:           req.TeasingChange,
		FriendshipChange:        req.FriendshipChange,
		PassionChange:           req.PassionChange,
		RequiredTeasingLevel:    req.RequiredTeasingLevel,
		RequiredFriendshipLevel: req.RequiredFriendshipLevel,
		RequiredPassionLevel:    req.RequiredPassionLevel,
		IsPremium:               req.IsPremium,
		DiamondsCost:            req.DiamondsCost,
		IsLegend:                req.IsLegend,
		OnlyLeader:              req.OnlyLeader,
		IsLocked:                req.IsLocked,
		UnlockedForTeams:        req.UnlockedForTeams,
		NextSceneID:             req.NextSceneID,
		NextChapterID:           req.NextChapterID,
	}
}
