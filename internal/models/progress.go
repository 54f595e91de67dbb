package models

import (
	"time"

	"github.com/google/uuid"
)

// SaveState — позиция и уровни отношений пользователя в истории.
// На пару пользователь-история приходится одно сохранение.
type SaveState struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	StoryID   int64     `db:"story_id" json:"storyId"`
	ChapterID int64     `db:"chapter_id" json:"chapterId"`
	SceneID   int64     `db:"scene_id" json:"sceneId"`

	TeasingLevel    int `db:"teasing_level" json:"teasingLevel"`
	FriendshipLevel int `db:"friendship_level" json:"friendshipLevel"`
	PassionLevel    int `db:"passion_level" json:"passionLevel"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ChoiceHistory — запись журнала сделанных выборов. Журнал только растет.
type ChoiceHistory struct {
	ID       int64     `json:"id"`
	UserID   uuid.UUID `db:"user_id" json:"userId"`
	StoryID  int64     `db:"story_id" json:"storyId"`
	SceneID  int64     `db:"scene_id" json:"sceneId"`
	ChoiceID int64     `db:"choice_id" json:"choiceId"`
	IsLegend bool      `db:"is_legend" json:"isLegend"`
	MadeAt   time.Time `db:"made_at" json:"madeAt"`
}

// Achievement — открытое достижение пользователя в истории.
type Achievement struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"userId"`
	StoryID    int64     `db:"story_id" json:"storyId"`
	Code       string    `json:"code"`
	Title      string    `json:"title"`
	UnlockedAt time.Time `db:"unlocked_at" json:"unlockedAt"`
}

// GameStat — агрегированная статистика пользователя по истории.
type GameStat struct {
	UserID      uuid.UUID  `db:"user_id" json:"userId"`
	StoryID     int64      `db:"story_id" json:"storyId"`
	ChoicesMade int        `db:"choices_made" json:"choicesMade"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// Purchase — покупка премиум-истории пользователем.
type Purchase struct {
	UserID      uuid.UUID `db:"user_id" json:"userId"`
	StoryID     int64     `db:"story_id" json:"storyId"`
	PricePaid   int       `db:"price_paid" json:"pricePaid"`
	PurchasedAt time.Time `db:"purchased_at" json:"purchasedAt"`
}

// DiamondCode — код пополнения баланса с ограниченным числом активаций.
type DiamondCode struct {
	Code          uuid.UUID `json:"code"`
	Value         int       `json:"value"`
	RemainingUses int       `db:"remaining_uses" json:"remainingUses"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
