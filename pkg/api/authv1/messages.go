// Package authv1 — контракт gRPC-сервиса auth.v1.AuthService:
// сообщения, кодек и дескриптор сервиса.
//
// Сообщения — обычные Go-структуры с JSON-тегами; по сети они идут
// через зарегистрированный кодек "json" (content-type application/grpc+json).
package authv1

import "time"

// User — публичная проекция пользователя (без хэша пароля).
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Role        string     `json:"role"`
	IsVerified  bool       `json:"is_verified"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair — выданная пара токенов.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type LoginResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Tokens  *TokenPair `json:"tokens,omitempty"`
	User    *User      `json:"user,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Tokens  *TokenPair `json:"tokens,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyRequest struct {
	AccessToken string `json:"access_token"`
}

// VerifyResponse: при отказе по токену Success=false и Reason
// (INVALID_TOKEN | EXPIRED_TOKEN) без ошибки RPC.
type VerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
}

type MeRequest struct {
	AccessToken string `json:"access_token"`
}

type MeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}
