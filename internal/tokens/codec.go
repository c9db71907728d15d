// tokens выпускает и проверяет подписанные JWT (access и refresh).
//
// Основные аспекты:
//   - формат токена — общий «протокол» всех экземпляров сервисов: одинаковые
//     алгоритм, ключ и имена claims (sub, email, role, kind, iat, exp, jti, iss, aud);
//   - Decode — чистая функция от (токен, текущее время, ключ): без I/O,
//     безопасна для конкурентного вызова;
//   - сначала проверяется подпись, и только потом срок действия: подделанный
//     токен всегда даёт ErrInvalidToken, но никогда ErrExpiredToken.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/eshop-auth/internal/models"
)

// MinSecretLen — минимальная длина общего секрета HMAC в байтах.
const MinSecretLen = 32

var (
	// ErrInvalidToken — токен повреждён, подделан, подписан чужим ключом/алгоритмом
	// или содержит некорректные claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken — подпись верна, но срок действия истёк.
	ErrExpiredToken = errors.New("token expired")
	// ErrNoSigningKey — ключ подписи не сконфигурирован или слишком короткий.
	ErrNoSigningKey = errors.New("signing key is not configured")
	// ErrUnsupportedAlg — алгоритм подписи не поддерживается.
	ErrUnsupportedAlg = errors.New("unsupported signing algorithm")
	// ErrInvalidTTL — время жизни токена должно быть положительным.
	ErrInvalidTTL = errors.New("token ttl must be positive")
)

// Codec — контракт выпуска и проверки токенов.
type Codec interface {
	// Issue подписывает claims субъекта и возвращает токен и claims в том виде,
	// в каком они зашиты в токен.
	Issue(subject models.Subject, kind models.TokenKind, ttl time.Duration) (string, models.TokenClaims, error)
	// Decode проверяет подпись и срок действия токена.
	Decode(token string) (models.TokenClaims, error)
	// DecodeKind — Decode с дополнительной проверкой вида токена.
	DecodeKind(token string, kind models.TokenKind) (models.TokenClaims, error)
}

// Config — параметры подписи.
type Config struct {
	Secret    string
	Algorithm string
	Issuer    string
	Audience  []string
	Leeway    time.Duration
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// JWT — реализация Codec на HMAC-подписи (HS256/HS384/HS512).
type JWT struct {
	method   *jwt.SigningMethodHMAC
	key      []byte
	issuer   string
	audience []string
	leeway   time.Duration
	now      func() time.Time
}

// Option настраивает JWT.
type Option func(*JWT)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *JWT) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт кодек. Пустой или короткий секрет — фатальная ошибка
// конфигурации; запасного «секрета по умолчанию» нет.
func New(cfg Config, opts ...Option) (*JWT, error) {
	const op = "tokens.New"

	if len(cfg.Secret) < MinSecretLen {
		return nil, fmt.Errorf("%s: %w (need at least %d bytes)", op, ErrNoSigningKey, MinSecretLen)
	}

	method, err := methodFor(cfg.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := &JWT{
		method:   method,
		key:      []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func methodFor(alg string) (*jwt.SigningMethodHMAC, error) {
	switch alg {
	case "", jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}

// Issue подписывает новый токен.
func (c *JWT) Issue(subject models.Subject, kind models.TokenKind, ttl time.Duration) (string, models.TokenClaims, error) {
	const op = "tokens.Issue"

	if ttl <= 0 {
		return "", models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidTTL)
	}

	// JWT хранит время с точностью до секунды.
	now := c.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl).Truncate(time.Second)
	if !exp.After(now) {
		exp = now.Add(time.Second)
	}

	out := models.TokenClaims{
		ID:        uuid.NewString(),
		SubjectID: subject.UserID,
		Email:     subject.Email,
		Role:      subject.Role,
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: exp,
	}

	rc := jwt.RegisteredClaims{
		ID:        out.ID,
		Subject:   subject.UserID.String(),
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	if len(c.audience) > 0 {
		rc.Audience = jwt.ClaimStrings(c.audience)
	}

	token := jwt.NewWithClaims(c.method, claims{
		Email:            subject.Email,
		Role:             subject.Role.String(),
		Kind:             string(kind),
		RegisteredClaims: rc,
	})

	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", models.TokenClaims{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, out, nil
}

// Decode проверяет токен и возвращает его claims.
func (c *JWT) Decode(tokenStr string) (models.TokenClaims, error) {
	const op = "tokens.Decode"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if len(c.audience) > 0 {
		opts = append(opts, jwt.WithAudience(c.audience...))
	}

	var parsed claims
	token, err := jwt.ParseWithClaims(tokenStr, &parsed,
		func(t *jwt.Token) (any, error) {
			if t.Method != c.method {
				return nil, ErrInvalidToken
			}
			return c.key, nil
		},
		opts...,
	)
	if err != nil {
		// jwt/v5 проверяет claims только после успешной проверки подписи,
		// поэтому ErrTokenExpired здесь означает подлинный, но истёкший токен.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrExpiredToken)
		}

		return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if !token.Valid {
		return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	role, ok := models.ParseRole(parsed.Role)
	if !ok {
		return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	kind := models.TokenKind(parsed.Kind)
	if kind != models.TokenKindAccess && kind != models.TokenKindRefresh {
		return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if parsed.IssuedAt == nil || parsed.ExpiresAt == nil || !parsed.ExpiresAt.After(parsed.IssuedAt.Time) {
		return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return models.TokenClaims{
		ID:        parsed.ID,
		SubjectID: uid,
		Email:     parsed.Email,
		Role:      role,
		Kind:      kind,
		IssuedAt:  parsed.IssuedAt.UTC(),
		ExpiresAt: parsed.ExpiresAt.UTC(),
	}, nil
}

// DecodeKind проверяет токен и требует заданный вид (access/refresh).
func (c *JWT) DecodeKind(tokenStr string, kind models.TokenKind) (models.TokenClaims, error) {
	const op = "tokens.DecodeKind"

	tc, err := c.Decode(tokenStr)
	if err != nil {
		return models.TokenClaims{}, err
	}

	if tc.Kind != kind {
		return models.TokenClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return tc, nil
}

var _ Codec = (*JWT)(nil)
