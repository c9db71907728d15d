package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

// ClientUnaryLoggingInterceptor логирует исходящие unary-вызовы одной
// записью msg="grpc" с code, reason (ErrorInfo, если есть) и dur.
// request_id берётся из контекста или исходящего metadata; если его нет,
// генерируется и добавляется в metadata. Payload не логируется.
func ClientUnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryClientInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()

		rid := log.RequestID(ctx)
		if rid == "" {
			if md, ok := metadata.FromOutgoingContext(ctx); ok {
				if v := md.Get("x-request-id"); len(v) > 0 {
					rid = v[0]
				}
			}
		}
		if rid == "" {
			rid = uuid.NewString()
			ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", rid)
		}

		target := "-"
		if cc != nil && cc.Target() != "" {
			target = cc.Target()
		}

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", method),
			slog.String("target", target),
		)
		ctx = log.Into(ctx, l)

		err := invoker(ctx, method, req, reply, cc, opts...)

		code := status.Code(err)
		attrs := []slog.Attr{
			slog.String("code", code.String()),
			slog.Duration("dur", time.Since(start)),
		}
		if reason := authv1.ReasonOf(err); reason != "" {
			attrs = append(attrs, slog.String("reason", reason))
		}

		l.LogAttrs(ctx, levelFor(code), "grpc", attrs...)

		return err
	}
}

func levelFor(code codes.Code) slog.Level {
	switch code {
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return slog.LevelError
	case codes.Unavailable, codes.DeadlineExceeded:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
