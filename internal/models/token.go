package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind различает access- и refresh-токены.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "ACCESS"
	TokenKindRefresh TokenKind = "REFRESH"
)

// TokenClaims — данные, зашитые в подписанный токен.
// Инвариант: ExpiresAt > IssuedAt.
type TokenClaims struct {
	ID        string
	SubjectID uuid.UUID
	Email     string
	Role      Role
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Subject — часть claims, которая переносится при ротации в новую пару.
type Subject struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// TokenPair — пара токенов, выдаваемая при входе и ротации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, одноразовый при ротации;
//     в реестре хранится только его хэш;
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения (UTC).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
