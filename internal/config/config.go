package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Бэкенды реестра refresh-токенов.
const (
	RegistryMemory   = "memory"
	RegistryRedis    = "redis"
	RegistryPostgres = "postgres"
)

// MinSecretLen — минимальная длина общего секрета подписи (байт).
const MinSecretLen = 32

// ErrInvalidConfig — конфигурация загружена, но не прошла проверку.
var ErrInvalidConfig = errors.New("invalid config")

// Config — корневая конфигурация auth-service.
type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Auth     AuthConfig     `yaml:"auth"`
	DB       DBConfig       `yaml:"db"`
	Registry RegistryConfig `yaml:"registry"`
	Events   EventsConfig   `yaml:"events"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — HTTP-сервер проб и метрик.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50081"`
}

// GRPCConfig описывает сетевые настройки gRPC-сервера.
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// AuthConfig содержит параметры выпуска и проверки токенов и паролей.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	SigningAlg       string        `yaml:"signing_alg" env:"JWT_SIGNING_ALG" env-default:"HS256"`
	Issuer           string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"auth-service"`
	Audience         []string      `yaml:"audience" env:"JWT_AUDIENCE" env-default:"api-gateway"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	BcryptCost       int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	// SkipUserActiveCheck отключает проверку пользователя в каталоге при Verify.
	// Флаг отрицательный: env-default в cleanenv перекрывает false из YAML.
	SkipUserActiveCheck bool `yaml:"skip_user_active_check" env:"SKIP_USER_ACTIVE_CHECK"`
}

// DBConfig — подключение к PostgreSQL. Пустой URL допустим только вне prod:
// тогда каталог пользователей живёт в памяти процесса.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL"`
}

// RegistryConfig — хранилище действующих refresh-токенов.
type RegistryConfig struct {
	Backend       string        `yaml:"backend" env:"REGISTRY_BACKEND" env-default:"postgres"`
	RedisURL      string        `yaml:"redis_url" env:"REDIS_URL"`
	KeyPrefix     string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"auth:rt:"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"REGISTRY_SWEEP_INTERVAL" env-default:"30m"`
}

// EventsConfig — журнал событий безопасности в Kafka. Пустой список
// брокеров отключает публикацию.
type EventsConfig struct {
	Brokers []string `yaml:"brokers" env:"EVENTS_BROKERS"`
	Topic   string   `yaml:"topic" env:"EVENTS_TOPIC" env-default:"auth.security-events"`
}

// Validate проверяет значения, которые cleanenv проверить не может.
func (c *Config) Validate() error {
	a := c.Auth

	if len(a.JWTSecret) < MinSecretLen {
		return fmt.Errorf("%w: auth.jwt_secret must be at least %d bytes", ErrInvalidConfig, MinSecretLen)
	}

	switch a.SigningAlg {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%w: auth.signing_alg %q is not supported", ErrInvalidConfig, a.SigningAlg)
	}

	if a.AccessTokenTTL <= 0 || a.RefreshTokenTTL <= 0 {
		return fmt.Errorf("%w: token ttl must be positive", ErrInvalidConfig)
	}

	if a.AccessTokenTTL >= a.RefreshTokenTTL {
		return fmt.Errorf("%w: access_token_ttl must be shorter than refresh_token_ttl", ErrInvalidConfig)
	}

	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: auth.bcrypt_cost must be in [%d, %d]", ErrInvalidConfig, bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.Registry.Backend {
	case RegistryMemory:
	case RegistryRedis:
		if c.Registry.RedisURL == "" {
			return fmt.Errorf("%w: registry.redis_url is required for redis backend", ErrInvalidConfig)
		}
	case RegistryPostgres:
		if c.DB.DatabaseURL == "" {
			return fmt.Errorf("%w: db.db_url is required for postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown registry.backend %q", ErrInvalidConfig, c.Registry.Backend)
	}

	if c.Env == "prod" && c.DB.DatabaseURL == "" {
		return fmt.Errorf("%w: db.db_url is required in prod", ErrInvalidConfig)
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию auth-service (файл по умолчанию ./local.yaml)
// и проверяет её.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := load(path, "local.yaml", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
