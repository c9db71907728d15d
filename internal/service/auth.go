package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/pribylovaa/eshop-auth/internal/events"
	"github.com/pribylovaa/eshop-auth/internal/metrics"
	"github.com/pribylovaa/eshop-auth/internal/models"
	"github.com/pribylovaa/eshop-auth/internal/password"
	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
	"github.com/pribylovaa/eshop-auth/internal/pkg/redact"
	"github.com/pribylovaa/eshop-auth/internal/storage"
)

// Register создаёт учётную запись с ролью USER. Токены не выдаются:
// для получения пары нужен отдельный Login.
func (s *Service) Register(ctx context.Context, email, pw, firstName, lastName string) (*models.User, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(pw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.users.GetByEmail(ctx, normEmail)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		lg.Error("user_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, upstreamErr(err))
	}

	digest, err := s.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%s: %w", op, ErrWeakPassword)
		}

		lg.Error("password_hash_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		PasswordHash: digest,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}

		lg.Error("user_create_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, upstreamErr(err))
	}

	lg.Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(normEmail)),
	)

	return user, nil
}

// Login проверяет учётные данные и выдаёт пару токенов.
// Обновление last_login_at — best-effort: его ошибка только логируется.
func (s *Service) Login(ctx context.Context, email, pw string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	user, reason, err := s.verifyCredentials(ctx, email, pw)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.Login(metrics.ResultInvalidCredentials)
			lg.Info("login_failed",
				slog.String("reason", reason),
				slog.String("email", redact.Email(strings.TrimSpace(email))),
			)
			s.publish(ctx, events.SecurityEvent{
				Type:   events.TypeLoginFailed,
				Email:  redact.Email(strings.ToLower(strings.TrimSpace(email))),
				Reason: reason,
			})
		} else {
			s.metrics.Login(metrics.ResultError)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(ctx, subjectOf(user))
	if err != nil {
		s.metrics.Login(metrics.ResultError)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		lg.Warn("touch_last_login_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
	} else {
		user.LastLoginAt = &now
	}

	s.metrics.Login(metrics.ResultSuccess)

	return pair, user, nil
}

// Refresh обменивает действующий refresh-токен на новую пару.
// Старый токен выводится из оборота атомарно (Rotate); повторное
// предъявление даёт ErrTokenReuseDetected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	claims, err := s.codec.DecodeKind(refreshToken, models.TokenKindRefresh)
	if err != nil {
		err = tokenErr(err)
		if errors.Is(err, ErrExpiredToken) {
			s.metrics.Refresh(metrics.ResultExpiredToken)
		} else {
			s.metrics.Refresh(metrics.ResultInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.registry.Rotate(ctx, storage.HashToken(refreshToken))
	if err != nil {
		s.metrics.Refresh(metrics.ResultError)
		lg.Error("refresh_rotate_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, upstreamErr(err))
	}

	if !ok {
		s.metrics.Refresh(metrics.ResultReuseDetected)
		s.metrics.ReuseDetected()
		lg.Warn("refresh_reuse_detected",
			slog.String("security_event", events.TypeRefreshTokenReuse),
			slog.String("user_id", claims.SubjectID.String()),
			slog.String("jti", claims.ID),
			slog.String("token", redact.Token(refreshToken)),
		)
		s.publish(ctx, events.SecurityEvent{
			Type:   events.TypeRefreshTokenReuse,
			UserID: claims.SubjectID.String(),
		})

		return nil, fmt.Errorf("%s: %w", op, ErrTokenReuseDetected)
	}

	pair, err := s.issuePair(ctx, models.Subject{
		UserID: claims.SubjectID,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	if err != nil {
		s.metrics.Refresh(metrics.ResultError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Refresh(metrics.ResultSuccess)

	return pair, nil
}

// Logout отзывает refresh-токен. Операция идемпотентна: повреждённый,
// просроченный или уже отозванный токен ошибкой не считается.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	if refreshToken == "" {
		return nil
	}

	if err := s.registry.Revoke(ctx, storage.HashToken(refreshToken)); err != nil {
		log.From(ctx).Error("refresh_revoke_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, upstreamErr(err))
	}

	return nil
}

// Verify проверяет access-токен и возвращает личность владельца.
// Если проверка пользователя не отключена, удалённый или неактивный
// пользователь делает токен недействительным, а роль берётся из каталога.
func (s *Service) Verify(ctx context.Context, accessToken string) (*models.Identity, error) {
	const op = "service.auth.Verify"

	claims, err := s.codec.DecodeKind(accessToken, models.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, tokenErr(err))
	}

	if s.cfg.SkipUserActiveCheck {
		return &models.Identity{UserID: claims.SubjectID, Email: claims.Email, Role: claims.Role}, nil
	}

	user, err := s.activeUser(ctx, op, claims.SubjectID)
	if err != nil {
		return nil, err
	}

	return &models.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// Me возвращает профиль владельца access-токена.
func (s *Service) Me(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "service.auth.Me"

	claims, err := s.codec.DecodeKind(accessToken, models.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, tokenErr(err))
	}

	return s.activeUser(ctx, op, claims.SubjectID)
}

func (s *Service) activeUser(ctx context.Context, op string, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		log.From(ctx).Error("user_lookup_failed",
			slog.String("op", op),
			slog.String("user_id", id.String()),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, upstreamErr(err))
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return user, nil
}

// issuePair выпускает access+refresh и регистрирует refresh в реестре.
func (s *Service) issuePair(ctx context.Context, sub models.Subject) (*models.TokenPair, error) {
	const op = "service.auth.issuePair"

	lg := log.From(ctx)

	access, accessClaims, err := s.codec.Issue(sub, models.TokenKindAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	refresh, refreshClaims, err := s.codec.Issue(sub, models.TokenKindRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	err = s.registry.Issue(ctx, storage.HashToken(refresh), sub.UserID, refreshClaims.ExpiresAt)
	if err != nil {
		lg.Error("refresh_register_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, upstreamErr(err))
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// publish отправляет событие безопасности; ошибка только логируется.
func (s *Service) publish(ctx context.Context, ev events.SecurityEvent) {
	ev.RequestID = log.RequestID(ctx)
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now().UTC()
	}

	if err := s.events.Publish(ctx, ev); err != nil {
		log.From(ctx).Warn("security_event_publish_failed",
			slog.String("type", ev.Type),
			slog.String("err", err.Error()),
		)
	}
}

func subjectOf(u *models.User) models.Subject {
	return models.Subject{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// validateEmail проверяет базовый формат email, обрезает пробелы
// и приводит к нижнему регистру.
func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}

// validatePassword: длина >= 8 рун, хотя бы одна строчная, заглавная,
// цифра и спецсимвол.
func validatePassword(pw string) error {
	if len(pw) == 0 {
		return ErrEmptyPassword
	}

	if len([]rune(pw)) < 8 {
		return ErrWeakPassword
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return ErrWeakPassword
	}

	return nil
}
