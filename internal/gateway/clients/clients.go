// clients — gRPC-клиент auth-service для api-gateway.
package clients

import (
	"fmt"
	"log/slog"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pribylovaa/eshop-auth/internal/config"
	"github.com/pribylovaa/eshop-auth/internal/gateway/clients/interceptors"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

const userAgent = "api-gateway"

// Clients держит соединение с auth-service.
type Clients struct {
	Auth authv1.AuthServiceClient
	conn *grpc.ClientConn
}

// New создаёт коннект к auth-service. Соединение ленивое: grpc.NewClient
// не ходит в сеть, первая попытка подключения — при первом вызове.
func New(cfg config.GatewayConfig, log *slog.Logger) (*Clients, error) {
	const op = "gateway.clients.New"

	if cfg.GRPC.AuthAddr == "" {
		return nil, fmt.Errorf("%s: empty auth addr", op)
	}

	// metadata -> timeout -> logging -> prometheus.
	conn, err := grpc.NewClient(
		cfg.GRPC.AuthAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			interceptors.ClientWithMetadata(userAgent),
			interceptors.ClientWithTimeout(cfg.Timeouts.Service),
			interceptors.ClientUnaryLoggingInterceptor(log),
			grpc_prometheus.UnaryClientInterceptor,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: auth dial: %w", op, err)
	}

	return &Clients{Auth: authv1.NewAuthServiceClient(conn), conn: conn}, nil
}

// Close закрывает соединение.
func (c *Clients) Close() error {
	if c.conn == nil {
		return nil
	}

	return c.conn.Close()
}
