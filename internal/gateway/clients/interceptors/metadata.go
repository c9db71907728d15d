// interceptors — клиентские unary-интерсепторы gRPC для api-gateway.
package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
)

// ClientWithMetadata добавляет в исходящий вызов x-request-id (из контекста,
// см. log.WithRequestID) и user-agent. Пустые значения не пишутся.
func ClientWithMetadata(userAgent string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		var pairs []string

		if rid := log.RequestID(ctx); rid != "" {
			pairs = append(pairs, "x-request-id", rid)
		}
		if userAgent != "" {
			pairs = append(pairs, "user-agent", userAgent)
		}

		if len(pairs) > 0 {
			ctx = metadata.AppendToOutgoingContext(ctx, pairs...)
		}

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
