package service

import "errors"

// Ошибки уровня сервисов.
var (
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrSceneHasChoices возвращается при попытке линейного перехода со сцены,
	// в которой есть варианты выбора.
	ErrSceneHasChoices = errors.New("scene has choices, linear advance is not allowed")
	// ErrNotInputScene возвращается при вводе текста на обычной сцене.
	ErrNotInputScene = errors.New("scene does not accept text input")
	// ErrStoryNotAccessible возвращается при попытке играть неопубликованную
	// или неоплаченную премиум-историю.
	ErrStoryNotAccessible = errors.New("story is not accessible")
)
