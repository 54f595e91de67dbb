package models

import (
	"strconv"
	"strings"
	"time"
)

// Типы сцен.
const (
	SceneTypeNormal = "normal"
	SceneTypeInput  = "input"
)

// Story — карточка истории с денормализованными счетчиками контента.
type Story struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	CoverURL      string `db:"cover_url" json:"coverUrl"`
	IsPublished   bool   `db:"is_published" json:"isPublished"`
	IsPremium     bool   `db:"is_premium" json:"isPremium"`
	PriceDiamonds int    `db:"price_diamonds" json:"priceDiamonds"`

	ChaptersCount int `db:"chapters_count" json:"chaptersCount"`
	ScenesCount   int `db:"scenes_count" json:"scenesCount"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Chapter — глава истории. Номер главы уникален внутри истории.
type Chapter struct {
	ID            int64     `json:"id"`
	StoryID       int64     `db:"story_id" json:"storyId"`
	ChapterNumber int       `db:"chapter_number" json:"chapterNumber"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Scene — сцена главы. Номер сцены уникален внутри главы.
type Scene struct {
	ID              int64     `json:"id"`
	ChapterID       int64     `db:"chapter_id" json:"chapterId"`
	SceneNumber     int       `db:"scene_number" json:"sceneNumber"`
	SceneType       string    `db:"scene_type" json:"sceneType"`
	BackgroundURL   string    `db:"background_url" json:"backgroundUrl"`
	CharacterName   string    `db:"character_name" json:"characterName"`
	CharacterSprite string    `db:"character_sprite" json:"characterSprite"`
	DialogueText    string    `db:"dialogue_text" json:"dialogueText"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// IsInput сообщает, является ли сцена сценой свободного ввода.
func (s *Scene) IsInput() bool {
	return s.SceneType == SceneTypeInput
}

// Choice — вариант выбора на сцене: изменения уровней отношений, условия
// доступности и назначение перехода.
type Choice struct {
	ID         int64  `json:"id"`
	SceneID    int64  `db:"scene_id" json:"sceneId"`
	ChoiceText string `db:"choice_text" json:"choiceText"`

	TeasingChange    int `db:"teasing_change" json:"teasingChange"`
	FriendshipChange int `db:"friendship_change" json:"friendshipChange"`
	PassionChange    int `db:"passion_change" json:"passionChange"`

	// Пороги доступности: nil означает отсутствие требования
	RequiredTeasingLevel    *int `db:"required_teasing_level" json:"requiredTeasingLevel,omitempty"`
	RequiredFriendshipLevel *int `db:"required_friendship_level" json:"requiredFriendshipLevel,omitempty"`
	RequiredPassionLevel    *int `db:"required_passion_level" json:"requiredPassionLevel,omitempty"`

	IsPremium    bool `db:"is_premium" json:"isPremium"`
	DiamondsCost int  `db:"diamonds_cost" json:"diamondsCost"`
	IsLegend     bool `db:"is_legend" json:"isLegend"`
	OnlyLeader   bool `db:"only_leader" json:"onlyLeader"`

	// Командная блокировка: список id команд через ";", например "3;7"
	IsLocked         bool   `db:"is_locked" json:"isLocked"`
	UnlockedForTeams string `db:"unlocked_for_teams" json:"unlockedForTeams"`

	// Явное назначение перехода; оба nil — линейный переход к следующей сцене
	NextSceneID   *int64 `db:"next_scene_id" json:"nextSceneId,omitempty"`
	NextChapterID *int64 `db:"next_chapter_id" json:"nextChapterId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// UnlockedTeamIDs разбирает список команд, для которых выбор открыт.
// Пустая строка дает пустой список: заблокированный выбор закрыт для всех.
func (c *Choice) UnlockedTeamIDs() []int64 {
	if c.UnlockedForTeams == "" {
		return nil
	}
	parts := strings.Split(c.UnlockedForTeams, ";")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// DestinationKind — вид назначения перехода выбора.
type DestinationKind int

const (
	// DestinationLinear — переход к следующей по порядку сцене главы.
	DestinationLinear DestinationKind = iota
	// DestinationScene — переход к конкретной сцене.
	DestinationScene
	// DestinationChapter — переход к первой сцене конкретной главы.
	DestinationChapter
)

// ChoiceDestination — разобранное назначение перехода.
type ChoiceDestination struct {
	Kind      DestinationKind
	SceneID   int64
	ChapterID int64
}

// Destination возвращает назначение перехода выбора. Если заданы оба поля,
// приоритет у главы.
func (c *Choice) Destination() ChoiceDestination {
	if c.NextChapterID != nil {
		return ChoiceDestination{Kind: DestinationChapter, ChapterID: *c.NextChapterID}
	}
	if c.NextSceneID != nil {
		return ChoiceDestination{Kind: DestinationScene, SceneID: *c.NextSceneID}
	}
	return ChoiceDestination{Kind: DestinationLinear}
}
