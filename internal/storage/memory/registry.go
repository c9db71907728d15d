// memory — хранилища в памяти процесса. Подходят для одного экземпляра
// сервиса и для тестов; состояние не переживает рестарт.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/eshop-auth/internal/storage"
)

type refreshEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// Registry — реестр refresh-токенов на map под мьютексом.
// Rotate выполняется в одной критической секции.
type Registry struct {
	mu      sync.Mutex
	entries map[string]refreshEntry
	now     func() time.Time
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]refreshEntry),
		now:     time.Now,
	}
}

func (r *Registry) Issue(_ context.Context, hash string, userID uuid.UUID, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[hash]; ok {
		return storage.ErrAlreadyExists
	}

	r.entries[hash] = refreshEntry{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *Registry) Rotate(_ context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[hash]
	if !ok {
		return false, nil
	}

	delete(r.entries, hash)

	// Истёкшая запись считается отсутствующей.
	return r.now().Before(e.expiresAt), nil
}

func (r *Registry) Revoke(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, hash)
	return nil
}

func (r *Registry) IsValid(_ context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[hash]
	return ok && r.now().Before(e.expiresAt), nil
}

func (r *Registry) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for h, e := range r.entries {
		if !now.Before(e.expiresAt) {
			delete(r.entries, h)
			n++
		}
	}

	return n, nil
}

// Len возвращает число записей (включая ещё не вычищенные истёкшие).
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

var _ storage.RefreshRegistry = (*Registry)(nil)
