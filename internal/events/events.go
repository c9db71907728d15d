// events — публикация событий безопасности (повторное использование
// refresh-токена, неудачный вход) во внешний журнал.
//
// Публикация best-effort: ошибка логируется вызывающей стороной и
// никогда не влияет на результат запроса.
package events

import (
	"context"
	"time"
)

// Типы событий.
const (
	TypeRefreshTokenReuse = "refresh_token_reuse"
	TypeLoginFailed       = "login_failed"
)

// SecurityEvent — запись журнала безопасности.
// Токены и пароли сюда не попадают; email только в редактированном виде.
type SecurityEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher — приёмник событий безопасности.
type Publisher interface {
	Publish(ctx context.Context, ev SecurityEvent) error
}

// Nop — приёмник, который ничего не делает (events.brokers не заданы).
type Nop struct{}

func (Nop) Publish(context.Context, SecurityEvent) error { return nil }

var _ Publisher = Nop{}
