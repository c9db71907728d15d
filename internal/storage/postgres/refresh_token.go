package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/eshop-auth/internal/storage"
)

// Issue сохраняет хэш нового refresh-токена.
func (s *Storage) Issue(ctx context.Context, hash string, userID uuid.UUID, expiresAt time.Time) error {
	const op = "storage.postgres.Issue"

	query := `
		INSERT INTO refresh_tokens(token_hash, user_id, created_at, expires_at)
		VALUES ($1, $2, now(), $3)
	`

	_, err := s.db.Exec(ctx, query, hash, userID, expiresAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Rotate удаляет запись одним DELETE ... RETURNING.
// Строку получает только одна из конкурентных транзакций.
func (s *Storage) Rotate(ctx context.Context, hash string) (bool, error) {
	const op = "storage.postgres.Rotate"

	query := `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1
		RETURNING expires_at > now()
	`

	var alive bool
	err := s.db.QueryRow(ctx, query, hash).Scan(&alive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return alive, nil
}

// Revoke удаляет запись; отсутствие записи ошибкой не считается.
func (s *Storage) Revoke(ctx context.Context, hash string) error {
	const op = "storage.postgres.Revoke"

	if _, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsValid сообщает, есть ли непросроченная запись.
func (s *Storage) IsValid(ctx context.Context, hash string) (bool, error) {
	const op = "storage.postgres.IsValid"

	query := `
		SELECT EXISTS(
			SELECT 1 FROM refresh_tokens
			WHERE token_hash = $1 AND expires_at > now()
		)
	`

	var ok bool
	if err := s.db.QueryRow(ctx, query, hash).Scan(&ok); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// DeleteExpired удаляет все просроченные токены.
func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpired"

	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
