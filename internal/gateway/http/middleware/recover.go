package middleware

import (
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/eshop-auth/internal/gateway/errors"
	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
)

// Recover перехватывает panic и отвечает 500/internal; детали не уходят клиенту.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic_recovered",
						slog.String("path", r.URL.Path),
						slog.Any("reason", rec),
					)
					apierrors.WriteError(w, r, apierrors.ErrInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
