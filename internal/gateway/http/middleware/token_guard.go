package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apierrors "github.com/pribylovaa/eshop-auth/internal/gateway/errors"
	"github.com/pribylovaa/eshop-auth/internal/gateway/identity"
	"github.com/pribylovaa/eshop-auth/internal/models"
	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

// Verifier — часть клиента auth-service, нужная guard'у.
type Verifier interface {
	Verify(ctx context.Context, in *authv1.VerifyRequest, opts ...grpc.CallOption) (*authv1.VerifyResponse, error)
}

// GuardOptions — параметры TokenGuard.
//   - Timeout ограничивает вызов Verify (<=0 — без отдельного дедлайна);
//   - CookieName — имя cookie с access-токеном; пустое значение отключает cookie.
type GuardOptions struct {
	Timeout    time.Duration
	CookieName string
}

// TokenGuard проверяет access-токен через auth-service и кладёт
// models.Identity в контекст (identity.Into).
//
// Токен берётся из Authorization: Bearer, иначе из cookie. Ответы:
// нет токена / недействителен — 401 invalid_token, истёк — 401 expired_token,
// auth-service недоступен или не уложился в таймаут — 503.
func TokenGuard(v Verifier, opts GuardOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFrom(r, opts.CookieName)
			if token == "" {
				apierrors.WriteError(w, r, apierrors.ErrMissingToken)
				return
			}

			ctx := r.Context()
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}

			resp, err := v.Verify(ctx, &authv1.VerifyRequest{AccessToken: token})
			if err != nil {
				switch status.Code(err) {
				case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
					log.From(r.Context()).Warn("token_verify_unavailable",
						slog.String("err", err.Error()),
					)
					apierrors.WriteError(w, r, apierrors.ErrUnavailable)
				default:
					apierrors.WriteError(w, r, err)
				}
				return
			}

			if !resp.Success {
				log.From(r.Context()).Info("token_rejected", slog.String("reason", resp.Reason))
				if resp.Reason == authv1.ReasonExpiredToken {
					apierrors.WriteError(w, r, apierrors.ErrExpiredToken)
					return
				}
				apierrors.WriteError(w, r, apierrors.ErrInvalidToken)
				return
			}

			id, ok := identityOf(resp)
			if !ok {
				log.From(r.Context()).Error("token_verify_bad_payload",
					slog.String("user_id", resp.UserID),
					slog.String("role", resp.Role),
				)
				apierrors.WriteError(w, r, apierrors.ErrInternal)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.Into(r.Context(), id)))
		})
	}
}

// RequireRole пропускает только identity с одной из ролей; иначе 403.
// Без identity в контексте (guard не стоит выше) — 401.
func RequireRole(roles ...models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.From(r.Context())
			if !ok {
				apierrors.WriteError(w, r, apierrors.ErrMissingToken)
				return
			}

			if !slices.Contains(roles, id.Role) {
				log.From(r.Context()).Info("role_forbidden",
					slog.String("user_id", id.UserID.String()),
					slog.String("role", id.Role.String()),
				)
				apierrors.WriteError(w, r, apierrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TokenFrom достаёт access-токен: Authorization: Bearer, затем cookie
// cookieName (пустое имя — cookie не читается). "" — токена нет.
func TokenFrom(r *http.Request, cookieName string) string {
	const prefix = "Bearer "

	if auth := r.Header.Get("Authorization"); len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		if tok := strings.TrimSpace(auth[len(prefix):]); tok != "" {
			return tok
		}
	}

	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return strings.TrimSpace(c.Value)
		}
	}

	return ""
}

func identityOf(resp *authv1.VerifyResponse) (models.Identity, bool) {
	uid, err := uuid.Parse(resp.UserID)
	if err != nil {
		return models.Identity{}, false
	}

	role, ok := models.ParseRole(resp.Role)
	if !ok {
		return models.Identity{}, false
	}

	return models.Identity{UserID: uid, Email: resp.Email, Role: role}, true
}
