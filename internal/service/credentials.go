package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/eshop-auth/internal/models"
	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
	"github.com/pribylovaa/eshop-auth/internal/pkg/redact"
	"github.com/pribylovaa/eshop-auth/internal/storage"
)

// Причины отказа во входе (только для логов).
const (
	reasonUserNotFound     = "user_not_found"
	reasonUserInactive     = "user_inactive"
	reasonPasswordMismatch = "password_mismatch"
)

// verifyCredentials проверяет пару email/пароль.
// Сравнение с хэшем выполняется на всех ветках (для отсутствующего
// пользователя — с decoy-хэшем), чтобы время ответа не выдавало причину.
func (s *Service) verifyCredentials(ctx context.Context, email, password string) (*models.User, string, error) {
	const op = "service.credentials.verify"

	lg := log.From(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.Verify(password, s.hasher.Decoy())
			return nil, reasonUserNotFound, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		lg.Error("user_lookup_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(email)),
			slog.String("err", err.Error()),
		)
		return nil, "", fmt.Errorf("%s: %w", op, upstreamErr(err))
	}

	match := s.hasher.Verify(password, user.PasswordHash)

	if !user.IsActive {
		return nil, reasonUserInactive, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !match {
		return nil, reasonPasswordMismatch, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return user, "", nil
}
