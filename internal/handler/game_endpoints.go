package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"love-sim-server/internal/service"
)

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return id, nil
}

// requireStoryAccess проверяет, что история опубликована и доступна
// пользователю (куплена, если премиум).
func (h *Handler) requireStoryAccess(c echo.Context, storyID int64) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	info, err := h.economyService.CanAccess(c.Request().Context(), userID, storyID)
	if err != nil {
		return err
	}
	if !info.HasAccess {
		return service.ErrStoryNotAccessible
	}
	return nil
}

func (h *Handler) getCurrentScene(c echo.Context) error {
	storyID, err := parseIDParam(c, "story_id")
	if err != nil {
		return err
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if err := h.requireStoryAccess(c, storyID); err != nil {
		return h.handleServiceError(c, err)
	}

	view, err := h.gameService.GetCurrentScene(c.Request().Context(), userID, storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) makeChoice(c echo.Context) error {
	storyID, err := parseIDParam(c, "story_id")
	if err != nil {
		return err
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	var req makeChoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.requireStoryAccess(c, storyID); err != nil {
		return h.handleServiceError(c, err)
	}

	outcome, err := h.gameService.MakeChoice(c.Request().Context(), userID, storyID, req.ChoiceID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if outcome.Success {
		choicesMadeTotal.Inc()
	}
	return c.JSON(http.StatusOK, outcome)
}

func (h *Handler) makeInputChoice(c echo.Context) error {
	storyID, err := parseIDParam(c, "story_id")
	if err != nil {
		return err
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	var req inputChoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.requireStoryAccess(c, storyID); err != nil {
		return h.handleServiceError(c, err)
	}

	outcome, err := h.gameService.MakeInputChoice(c.Request().Context(), userID, storyID, req.Text)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if outcome.Success {
		choicesMadeTotal.Inc()
	}
	return c.JSON(http.StatusOK, outcome)
}

func (h *Handler) toNextScene(c echo.Context) error {
	storyID, err := parseIDParam(c, "story_id")
	if err != nil {
		return err
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if err := h.requireStoryAccess(c, storyID); err != nil {
		return h.handleServiceError(c, err)
	}

	outcome, err := h.gameService.ToNextScene(c.Request().Context(), userID, storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}
