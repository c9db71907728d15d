// identity — проверенная личность вызывающего в контексте HTTP-запроса.
package identity

import (
	"context"

	"github.com/pribylovaa/eshop-auth/internal/models"
)

type ctxKey struct{}

// Into кладёт identity в контекст.
func Into(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From достаёт identity; ok=false, если запрос не прошёл через guard.
func From(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(models.Identity)
	return id, ok
}
