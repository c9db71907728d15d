// metrics — доменные счётчики auth-service (Prometheus).
// gRPC-метрики сервера собирает go-grpc-prometheus, здесь только то,
// чего из кодов ответов не видно.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Значения label result.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultInvalidToken       = "invalid_token"
	ResultExpiredToken       = "expired_token"
	ResultReuseDetected      = "reuse_detected"
	ResultError              = "error"
)

// Auth — набор счётчиков. Нулевой указатель допустим: все методы no-op.
type Auth struct {
	loginTotal    *prometheus.CounterVec
	refreshTotal  *prometheus.CounterVec
	reuseDetected prometheus.Counter
}

// New создаёт счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Auth {
	m := &Auth{
		loginTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Login attempts by result.",
			},
			[]string{"result"},
		),
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_refresh_total",
				Help: "Refresh attempts by result.",
			},
			[]string{"result"},
		),
		reuseDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_token_reuse_detected_total",
			Help: "Presentations of an already rotated or revoked refresh token.",
		}),
	}

	reg.MustRegister(m.loginTotal, m.refreshTotal, m.reuseDetected)

	return m
}

// Login учитывает попытку входа.
func (m *Auth) Login(result string) {
	if m == nil {
		return
	}
	m.loginTotal.WithLabelValues(result).Inc()
}

// Refresh учитывает попытку обновления пары токенов.
func (m *Auth) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

// ReuseDetected учитывает повторное предъявление refresh-токена.
func (m *Auth) ReuseDetected() {
	if m == nil {
		return
	}
	m.reuseDetected.Inc()
}
