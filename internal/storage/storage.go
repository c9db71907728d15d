// storage описывает контракты внешних хранилищ auth-service:
// каталог пользователей (UserDirectory) и реестр действующих
// refresh-токенов (RefreshRegistry).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/eshop-auth/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/хэш refresh-токена).
	ErrAlreadyExists = errors.New("already exists")
)

// UserDirectory — каталог пользователей. Реализация обязана быть
// потокобезопасной.
type UserDirectory interface {
	// GetByEmail находит пользователя по email (ErrNotFound, если нет).
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID находит пользователя по ID (ErrNotFound, если нет).
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// Create сохраняет нового пользователя (ErrAlreadyExists при дубле email).
	Create(ctx context.Context, user *models.User) error
	// TouchLastLogin обновляет момент последнего входа.
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RefreshRegistry — реестр действующих refresh-токенов.
//
// Ключ — хэш строки токена (см. HashToken), сам токен не хранится.
// Rotate обязан быть атомарной операцией «проверить и удалить»: из двух
// конкурентных вызовов с одним хэшем ровно один получает true.
type RefreshRegistry interface {
	// Issue регистрирует токен как действующий до expiresAt.
	Issue(ctx context.Context, hash string, userID uuid.UUID, expiresAt time.Time) error
	// Rotate атомарно проверяет наличие и удаляет запись.
	// false — записи нет (уже использована, отозвана, истекла или не выдавалась).
	Rotate(ctx context.Context, hash string) (bool, error)
	// Revoke идемпотентно удаляет запись.
	Revoke(ctx context.Context, hash string) error
	// IsValid — проверка без изменения состояния; только для диагностики,
	// решение о ротации всегда принимает Rotate.
	IsValid(ctx context.Context, hash string) (bool, error)
	// DeleteExpired удаляет просроченные записи и возвращает их количество.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
