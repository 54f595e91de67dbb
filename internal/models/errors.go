package models

import "errors"

// Стандартные ошибки уровня приложения.
var (
	// Общие
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input data")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Пользователи и аутентификация
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserLocked         = errors.New("account is temporarily locked")

	// Токены
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// Экономика
	ErrInsufficientDiamonds = errors.New("insufficient diamonds")
	ErrAlreadyPurchased     = errors.New("story already purchased")
	ErrCodeExhausted        = errors.New("diamond code has no uses left")

	// Дерево историй
	ErrStoryNotFound      = errors.New("story not found")
	ErrChapterNotFound    = errors.New("chapter not found")
	ErrSceneNotFound      = errors.New("scene not found")
	ErrChoiceNotFound     = errors.New("choice not found")
	ErrDuplicateNumber    = errors.New("chapter or scene with this number already exists")
	ErrInvalidDestination = errors.New("choice destination is invalid")
)
