package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User — пользователь платформы.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Не отдаем хеш пароля
	DisplayName  string    `db:"display_name" json:"displayName"`
	Theme        string    `json:"theme"`
	AvatarURL    string    `db:"avatar_url" json:"avatarUrl"`

	Diamonds     int    `json:"diamonds"`
	IsAdmin      bool   `db:"is_admin" json:"isAdmin"`
	IsTeamLeader bool   `db:"is_team_leader" json:"isTeamLeader"`
	TeamID       *int64 `db:"team_id" json:"teamId,omitempty"`

	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Roles возвращает список ролей пользователя для клеймов токена.
func (u *User) Roles() []string {
	roles := []string{RoleUser}
	if u.IsAdmin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

// HasRole проверяет наличие роли у пользователя.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// IsLockedAt сообщает, заблокирован ли аккаунт на данный момент времени.
func (u *User) IsLockedAt(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Team — команда игроков. Используется для командных блокировок выборов.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
