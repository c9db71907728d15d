package models

import "github.com/google/uuid"

// Identity — результат успешной проверки access-токена.
// Живёт в рамках одного запроса и нигде не сохраняется.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}
