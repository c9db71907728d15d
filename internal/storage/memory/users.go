package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/eshop-auth/internal/models"
	"github.com/pribylovaa/eshop-auth/internal/storage"
)

// Users — каталог пользователей в памяти (локальный запуск и тесты).
type Users struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

// NewUsers создаёт пустой каталог.
func NewUsers() *Users {
	return &Users{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (u *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	id, ok := u.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := *u.byID[id]
	return &cp, nil
}

func (u *Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := *user
	return &cp, nil
}

func (u *Users) Create(_ context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := u.byEmail[email]; ok {
		return storage.ErrAlreadyExists
	}
	if _, ok := u.byID[user.ID]; ok {
		return storage.ErrAlreadyExists
	}

	cp := *user
	u.byID[user.ID] = &cp
	u.byEmail[email] = user.ID

	return nil
}

func (u *Users) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.byID[id]
	if !ok {
		return storage.ErrNotFound
	}

	t := at.UTC()
	user.LastLoginAt = &t
	user.UpdatedAt = t

	return nil
}

// SetActive включает/выключает учётную запись (администрирование, тесты).
func (u *Users) SetActive(id uuid.UUID, active bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.byID[id]
	if !ok {
		return storage.ErrNotFound
	}

	user.IsActive = active
	return nil
}

var _ storage.UserDirectory = (*Users)(nil)
