package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (h *Handler) listStories(c echo.Context) error {
	stories, err := h.storyService.ListStories(c.Request().Context(), true)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, stories)
}

func (h *Handler) getStory(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	story, err := h.storyService.GetStory(c.Request().Context(), storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

func (h *Handler) getStoryAccess(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	info, err := h.economyService.CanAccess(c.Request().Context(), userID, storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) purchaseStory(c echo.Context) error {
	storyID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	if err := h.economyService.PurchaseStory(c.Request().Context(), userID, storyID); err != nil {
		return h.handleServiceError(c, err)
	}

	purchasesTotal.Inc()
	return c.JSON(http.StatusOK, echo.Map{"message": "Story purchased"})
}

func (h *Handler) redeemDiamondCode(c echo.Context) error {
	code, err := uuid.Parse(c.Param("code"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid code format")
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	value, err := h.economyService.RedeemDiamondCode(c.Request().Context(), userID, code)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	codesRedeemedTotal.Inc()
	return c.JSON(http.StatusOK, echo.Map{"credited": value})
}

func (h *Handler) getProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	user, err := h.economyService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) updateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err = h.economyService.UpdateProfile(c.Request().Context(), userID, req.DisplayName, req.Theme, req.AvatarURL)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated"})
}

func (h *Handler) getProgress(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	summary, err := h.economyService.GetProgress(c.Request().Context(), userID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// adminGrantDiamonds зачисляет алмазы пользователю.
func (h *Handler) adminGrantDiamonds(c echo.Context) error {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	var req grantDiamondsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.economyService.GrantDiamonds(c.Request().Context(), targetID, req.Amount); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Diamonds granted"})
}

// adminResetProgress сбрасывает прогресс пользователя во всех историях.
func (h *Handler) adminResetProgress(c echo.Context) error {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	if err := h.economyService.ResetProgress(c.Request().Context(), targetID); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Progress reset"})
}

func (h *Handler) adminCreateDiamondCode(c echo.Context) error {
	var req createDiamondCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	dc, err := h.economyService.CreateDiamondCode(c.Request().Context(), req.Value, req.Uses)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dc)
}
