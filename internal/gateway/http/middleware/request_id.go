package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
)

// maxRequestIDLen — входящий X-Request-Id длиннее этого заменяется своим.
const maxRequestIDLen = 128

// RequestID обеспечивает наличие X-Request-Id: берёт входящий или
// генерирует UUID, пишет его в заголовки запроса/ответа и в контекст
// (log.WithRequestID), откуда его читает gRPC-интерсептор metadata.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)

			next.ServeHTTP(w, r.WithContext(log.WithRequestID(r.Context(), id)))
		})
	}
}
