// handlers — REST-эндпоинты api-gateway поверх auth.v1.AuthService.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/eshop-auth/internal/config"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

// maxBodyBytes — лимит тела JSON-запроса.
const maxBodyBytes = 1 << 20

// Handlers агрегирует зависимости: клиент auth-service и настройки cookie.
type Handlers struct {
	Auth   authv1.AuthServiceClient
	Cookie config.CookieConfig
}

func New(auth authv1.AuthServiceClient, cookie config.CookieConfig) *Handlers {
	return &Handlers{Auth: auth, Cookie: cookie}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
