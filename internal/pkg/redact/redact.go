// redact маскирует чувствительные данные перед записью в лог
// (e-mail, токены, пароли), оставляя то, что полезно для отладки.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Email маскирует e-mail: первые две руны локальной части + "***",
// домен без изменений. Строка не с одним '@' целиком заменяется на "***".
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает заглушку с коротким отпечатком токена: по нему можно
// сопоставить записи лога об одном и том же токене, не раскрывая его.
// Пустой токен даёт "[EMPTY_TOKEN]".
func Token(token string) string {
	if token == "" {
		return "[EMPTY_TOKEN]"
	}

	sum := sha256.Sum256([]byte(token))
	return "[REDACTED_TOKEN:" + hex.EncodeToString(sum[:4]) + "]"
}

// Password — заглушка для пароля.
func Password() string { return "[REDACTED_PASSWORD]" }
