package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenDetails — пара выданных токенов и их идентификаторы в хранилище.
type TokenDetails struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessUUID   string `json:"-"`
	RefreshUUID  string `json:"-"`
	AtExpires    int64  `json:"at_expires"`
	RtExpires    int64  `json:"rt_expires"`
}

// Claims — клеймы access/refresh токенов.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Roles  []string  `json:"roles"`
	jwt.RegisteredClaims
}

type contextKey string

// Ключи контекста запроса, заполняемые middleware аутентификации.
const (
	UserContextKey       contextKey = "userID"
	RolesContextKey      contextKey = "userRoles"
	AccessUUIDContextKey contextKey = "accessUUID"
)
