// redis — реестр refresh-токенов в Redis. Одна запись на токен:
// ключ prefix+hash, значение user_id, TTL = expiresAt - now.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/eshop-auth/internal/storage"
)

// DefaultPrefix — префикс ключей, если в конфиге не задан свой.
const DefaultPrefix = "auth:rt:"

// Registry — реализация storage.RefreshRegistry поверх go-redis.
type Registry struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение.
func New(ctx context.Context, redisURL, prefix string) (*Registry, error) {
	const op = "storage.redis.New"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(rdb, prefix), nil
}

// NewWithClient оборачивает готовый клиент (используется в тестах).
func NewWithClient(rdb redis.UniversalClient, prefix string) *Registry {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Registry{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *Registry) key(hash string) string { return r.prefix + hash }

func (r *Registry) Issue(ctx context.Context, hash string, userID uuid.UUID, expiresAt time.Time) error {
	const op = "storage.redis.Issue"

	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// Уже просроченный токен регистрировать незачем.
		return nil
	}

	ok, err := r.rdb.SetNX(ctx, r.key(hash), userID.String(), ttl).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	return nil
}

// Rotate использует GETDEL: чтение и удаление выполняются сервером
// одной командой, поэтому из конкурентных вызовов успешен ровно один.
func (r *Registry) Rotate(ctx context.Context, hash string) (bool, error) {
	const op = "storage.redis.Rotate"

	_, err := r.rdb.GetDel(ctx, r.key(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (r *Registry) Revoke(ctx context.Context, hash string) error {
	const op = "storage.redis.Revoke"

	if err := r.rdb.Del(ctx, r.key(hash)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Registry) IsValid(ctx context.Context, hash string) (bool, error) {
	const op = "storage.redis.IsValid"

	n, err := r.rdb.Exists(ctx, r.key(hash)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n == 1, nil
}

// DeleteExpired — no-op: истечение обеспечивает TTL ключей.
func (r *Registry) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Close закрывает клиент Redis.
func (r *Registry) Close() error { return r.rdb.Close() }

var _ storage.RefreshRegistry = (*Registry)(nil)
