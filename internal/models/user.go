package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя в каталоге.
//
// PasswordHash никогда не покидает auth-service: наружу (gateway, клиенты)
// отдаётся только проекция UserView.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	IsVerified   bool
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView — безопасная проекция пользователя без хэша пароля.
type UserView struct {
	ID          uuid.UUID
	Email       string
	FirstName   string
	LastName    string
	Role        Role
	IsVerified  bool
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// View возвращает проекцию пользователя для внешних DTO.
func (u *User) View() UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
