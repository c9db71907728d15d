// service содержит бизнес-логику auth-сервиса: регистрацию и вход,
// выпуск, ротацию, отзыв и проверку токенов.
//
// Service не хранит состояние запроса и безопасен для конкурентного
// использования, если потокобезопасны переданные хранилища. Единственное
// разделяемое изменяемое состояние — реестр refresh-токенов.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/eshop-auth/internal/events"
	"github.com/pribylovaa/eshop-auth/internal/metrics"
	"github.com/pribylovaa/eshop-auth/internal/password"
	"github.com/pribylovaa/eshop-auth/internal/storage"
	"github.com/pribylovaa/eshop-auth/internal/tokens"
)

var (
	// ErrInvalidCredentials — неизвестный email, неактивная учётная запись
	// или неверный пароль. Снаружи причины неразличимы.
	// Транспорт: codes.Unauthenticated.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail — email уже занят. Транспорт: codes.AlreadyExists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidToken — токен повреждён, подписан чужим ключом, другого вида
	// или принадлежит удалённому/неактивному пользователю.
	// Транспорт: codes.Unauthenticated.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken — подпись верна, срок действия истёк.
	// Транспорт: codes.Unauthenticated.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenReuseDetected — refresh-токен с верной подписью уже был
	// использован или отозван. Транспорт: codes.Unauthenticated.
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")

	// ErrUpstreamUnavailable — каталог пользователей или реестр не ответили
	// в срок. Транспорт: codes.Unavailable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInternal — прочие сбои. Транспорт: codes.Internal.
	ErrInternal = errors.New("internal error")

	// ErrInvalidEmail — некорректный формат email. Транспорт: codes.InvalidArgument.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не проходит политику сложности.
	// Транспорт: codes.InvalidArgument.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. Транспорт: codes.InvalidArgument.
	ErrEmptyPassword = errors.New("password is empty")
)

// Config — параметры бизнес-логики.
type Config struct {
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	SkipUserActiveCheck bool
}

// Deps — зависимости Service. Events и Metrics необязательны.
type Deps struct {
	Users    storage.UserDirectory
	Registry storage.RefreshRegistry
	Codec    tokens.Codec
	Hasher   *password.Hasher
	Events   events.Publisher
	Metrics  *metrics.Auth
}

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	users    storage.UserDirectory
	registry storage.RefreshRegistry
	codec    tokens.Codec
	hasher   *password.Hasher
	events   events.Publisher
	metrics  *metrics.Auth
	cfg      Config
	now      func() time.Time
}

// New создаёт новый экземпляр Service.
func New(deps Deps, cfg Config) *Service {
	pub := deps.Events
	if pub == nil {
		pub = events.Nop{}
	}

	return &Service{
		users:    deps.Users,
		registry: deps.Registry,
		codec:    deps.Codec,
		hasher:   deps.Hasher,
		events:   pub,
		metrics:  deps.Metrics,
		cfg:      cfg,
		now:      time.Now,
	}
}

// upstreamErr классифицирует ошибку хранилища: дедлайн/отмена — недоступность,
// остальное — внутренняя ошибка.
func upstreamErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrUpstreamUnavailable
	}

	return ErrInternal
}

// tokenErr переводит ошибки кодека в ошибки сервиса.
func tokenErr(err error) error {
	if errors.Is(err, tokens.ErrExpiredToken) {
		return ErrExpiredToken
	}

	return ErrInvalidToken
}
