package handler

// --- Аутентификация ---

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// --- Игровой цикл ---

type makeChoiceRequest struct {
	ChoiceID int64 `json:"choiceId" validate:"required"`
}

type inputChoiceRequest struct {
	Text string `json:"text" validate:"required"`
}

// --- Профиль ---

type updateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=50"`
	Theme       string `json:"theme" validate:"max=30"`
	AvatarURL   string `json:"avatarUrl" validate:"omitempty,url"`
}

// --- Авторинг ---

type storyRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description"`
	CoverURL      string `json:"coverUrl" validate:"omitempty,url"`
	IsPublished   bool   `json:"isPublished"`
	IsPremium     bool   `json:"isPremium"`
	PriceDiamonds int    `json:"priceDiamonds" validate:"gte=0"`
}

type chapterRequest struct {
	ChapterNumber int    `json:"chapterNumber" validate:"required,gte=1"`
	Title         string `json:"title" validate:"required,max=200"`
}

type sceneRequest struct {
	SceneNumber     int    `json:"sceneNumber" validate:"required,gte=1"`
	SceneType       string `json:"sceneType" validate:"omitempty,oneof=normal input"`
	BackgroundURL   string `json:"backgroundUrl"`
	CharacterName   string `json:"characterName"`
	CharacterSprite string `json:"characterSprite"`
	DialogueText    string `json:"dialogueText"`
}

type choiceRequest struct {
	ChoiceText string `json:"choiceText" validate:"required"`

	TeasingChange    int `json:"teasingChange"`
	FriendshipChange int `json:"friendshipChange"`
	PassionChange    int `json:"passionChange"`

	RequiredTeasingLevel    *int `json:"requiredTeasingLevel"`
	RequiredFriendshipLevel *int `json:"requiredFriendshipLevel"`
	RequiredPassionLevel    *int `json:"requiredPassionLevel"`

	IsPremium    bool `json:"isPremium"`
	DiamondsCost int  `json:"diamondsCost" validate:"gte=0"`
	IsLegend     bool `json:"isLegend"`
	OnlyLeader   bool `json:"onlyLeader"`

	IsLocked         bool   `json:"isLocked"`
	UnlockedForTeams string `json:"unlockedForTeams"`

	NextSceneID   *int64 `json:"nextSceneId"`
	NextChapterID *int64 `json:"nextChapterId"`
}

// --- Админские операции ---

type grantDiamondsRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

type createDiamondCodeRequest struct {
	Value int `json:"value" validate:"required,gt=0"`
	Uses  int `json:"uses" validate:"required,gt=0"`
}
