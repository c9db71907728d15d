package config

import (
	"net"
	"time"
)

// GatewayConfig — конфигурация api-gateway.
type GatewayConfig struct {
	Env       string               `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      GatewayHTTPConfig    `yaml:"http"`
	Metrics   MetricsConfig        `yaml:"metrics"`
	GRPC      UpstreamConfig       `yaml:"grpc"`
	Timeouts  GatewayTimeoutConfig `yaml:"timeouts"`
	Cookie    CookieConfig         `yaml:"cookie"`
	RateLimit RateLimitConfig      `yaml:"rate_limit"`
}

// GatewayHTTPConfig — публичный REST-сервер шлюза.
type GatewayHTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50090"`
}

func (h GatewayHTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// MetricsConfig — отдельный HTTP для Prometheus.
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"50085"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// UpstreamConfig — адрес auth-service.
type UpstreamConfig struct {
	AuthAddr string `yaml:"auth_addr" env:"GRPC_AUTH_ADDR" env-default:"127.0.0.1:50051"`
}

// GatewayTimeoutConfig — Service ограничивает весь HTTP-запрос,
// Verify — отдельный короткий бюджет на проверку токена в guard.
type GatewayTimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
	Verify  time.Duration `yaml:"verify" env:"VERIFY_TIMEOUT" env-default:"2s"`
}

// CookieConfig — HttpOnly-cookie с access-токеном.
// Insecure снимает флаг Secure (только для локального HTTP).
type CookieConfig struct {
	Enabled  bool   `yaml:"enabled" env:"COOKIE_ENABLED"`
	Insecure bool   `yaml:"insecure" env:"COOKIE_INSECURE"`
	Name     string `yaml:"name" env:"COOKIE_NAME" env-default:"Authentication"`
}

// RateLimitConfig — лимит на login/register с одного IP.
// Отрицательный RPS отключает лимит (0 из YAML заменяется default).
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// MustLoadGateway — паника при ошибке загрузки.
func MustLoadGateway(path string) *GatewayConfig {
	cfg, err := LoadGateway(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadGateway загружает конфигурацию шлюза (файл по умолчанию ./gateway.yaml).
func LoadGateway(path string) (*GatewayConfig, error) {
	var cfg GatewayConfig

	if err := load(path, "gateway.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
