package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	custommw "love-sim-server/internal/middleware"
	"love-sim-server/internal/models"
	"love-sim-server/internal/service"
)

// APIError — стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// CustomValidator подключает go-playground/validator к echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator создает валидатор запросов.
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Validation error: "+err.Error())
	}
	return nil
}

// Handler обрабатывает HTTP запросы платформы.
type Handler struct {
	authService    service.AuthService
	gameService    service.GameService
	storyService   service.StoryService
	economyService service.EconomyService
	logger         *zap.Logger
}

// NewHandler создает HTTP обработчик.
func NewHandler(
	authService service.AuthService,
	gameService service.GameService,
	storyService service.StoryService,
	economyService service.EconomyService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		authService:    authService,
		gameService:    gameService,
		storyService:   storyService,
		economyService: economyService,
		logger:         logger.Named("Handler"),
	}
}

// RegisterRoutes регистрирует маршруты приложения.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	authMiddleware := custommw.Auth(h.authService.VerifyAccessToken, h.logger)
	adminMiddleware := custommw.Auth(h.authService.VerifyAccessToken, h.logger, models.RoleAdmin)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh", h.refresh)
		authGroup.POST("/logout", h.logout, authMiddleware)
	}

	storiesGroup := api.Group("/stories", authMiddleware)
	{
		storiesGroup.GET("", h.listStories)
		storiesGroup.GET("/:id", h.getStory)
		storiesGroup.GET("/:id/access", h.getStoryAccess)
		storiesGroup.POST("/:id/purchase", h.purchaseStory)
	}

	gamesGroup := api.Group("/games", authMiddleware)
	{
		gamesGroup.GET("/:story_id/current_scene", h.getCurrentScene)
		gamesGroup.POST("/:story_id/choice", h.makeChoice)
		gamesGroup.POST("/:story_id/input_choice", h.makeInputChoice)
		gamesGroup.POST("/:story_id/to_next_scene", h.toNextScene)
	}

	api.POST("/codes/diamond/:code", h.redeemDiamondCode, authMiddleware)

	profileGroup := api.Group("/profile", authMiddleware)
	{
		profileGroup.GET("", h.getProfile)
		profileGroup.PUT("", h.updateProfile)
	}
	api.GET("/progress", h.getProgress, authMiddleware)

	adminGroup := api.Group("/admin", adminMiddleware)
	{
		adminGroup.POST("/stories", h.adminCreateStory)
		adminGroup.GET("/stories", h.adminListStories)
		adminGroup.GET("/stories/:id", h.getStory)
		adminGroup.PUT("/stories/:id", h.adminUpdateStory)
		adminGroup.DELETE("/stories/:id", h.adminDeleteStory)
		adminGroup.GET("/stories/:id/export", h.adminExportStory)
		adminGroup.POST("/stories/import", h.adminImportStory)

		adminGroup.POST("/stories/:id/chapters", h.adminCreateChapter)
		adminGroup.GET("/stories/:id/chapters", h.adminListChapters)
		adminGroup.PUT("/chapters/:id", h.adminUpdateChapter)
		adminGroup.DELETE("/chapters/:id", h.adminDeleteChapter)

		adminGroup.POST("/chapters/:id/scenes", h.adminCreateScene)
		adminGroup.GET("/chapters/:id/scenes", h.adminListScenes)
		adminGroup.PUT("/scenes/:id", h.adminUpdateScene)
		adminGroup.DELETE("/scenes/:id", h.adminDeleteScene)

		adminGroup.POST("/scenes/:id/choices", h.adminCreateChoice)
		adminGroup.GET("/scenes/:id/choices", h.adminListChoices)
		adminGroup.PUT("/choices/:id", h.adminUpdateChoice)
		adminGroup.DELETE("/choices/:id", h.adminDeleteChoice)

		adminGroup.POST("/codes", h.adminCreateDiamondCode)
		adminGroup.POST("/users/:id/diamonds", h.adminGrantDiamonds)
		adminGroup.POST("/users/:id/reset-progress", h.adminResetProgress)
	}
}

// handleServiceError переводит доменные ошибки в HTTP статусы. Внутренние
// ошибки наружу не протекают: клиент видит общее сообщение.
func (h *Handler) handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Invalid username or password"}
	case errors.Is(err, models.ErrUserLocked):
		statusCode = http.StatusLocked
		apiErr = APIError{Message: "Account is temporarily locked, try again later"}
	case errors.Is(err, models.ErrUserAlreadyExists):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: "Username already exists"}
	case errors.Is(err, models.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: "Email already exists"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenNotFound):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Token is invalid"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Token has expired"}
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden), errors.Is(err, service.ErrStoryNotAccessible):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrChapterNotFound),
		errors.Is(err, models.ErrSceneNotFound),
		errors.Is(err, models.ErrChoiceNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, models.ErrAlreadyPurchased):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrInsufficientDiamonds):
		statusCode = http.StatusPaymentRequired
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrCodeExhausted):
		statusCode = http.StatusGone
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidDestination),
		errors.Is(err, models.ErrDuplicateNumber),
		errors.Is(err, service.ErrInvalidOperation),
		errors.Is(err, service.ErrSceneHasChoices),
		errors.Is(err, service.ErrNotInputScene):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		h.logger.Error("Unhandled internal error", zap.Error(err), zap.String("path", c.Path()))
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}

	return c.JSON(statusCode, apiErr)
}
