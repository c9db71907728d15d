package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/pribylovaa/eshop-auth/internal/config"
	"github.com/pribylovaa/eshop-auth/internal/events"
	"github.com/pribylovaa/eshop-auth/internal/interceptors"
	"github.com/pribylovaa/eshop-auth/internal/metrics"
	"github.com/pribylovaa/eshop-auth/internal/password"
	logpkg "github.com/pribylovaa/eshop-auth/internal/pkg/log"
	"github.com/pribylovaa/eshop-auth/internal/service"
	"github.com/pribylovaa/eshop-auth/internal/storage"
	"github.com/pribylovaa/eshop-auth/internal/storage/memory"
	"github.com/pribylovaa/eshop-auth/internal/storage/postgres"
	redisstore "github.com/pribylovaa/eshop-auth/internal/storage/redis"
	"github.com/pribylovaa/eshop-auth/internal/tokens"
	auth "github.com/pribylovaa/eshop-auth/internal/transport/grpc"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := logpkg.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env, "registry", cfg.Registry.Backend)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close(log)

	hasher, err := password.New(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	codec, err := tokens.New(tokens.Config{
		Secret:    cfg.Auth.JWTSecret,
		Algorithm: cfg.Auth.SigningAlg,
		Issuer:    cfg.Auth.Issuer,
		Audience:  cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Events.Brokers) > 0 {
		k := events.NewKafka(cfg.Events.Brokers, cfg.Events.Topic)
		defer func() {
			if err := k.Close(); err != nil {
				log.Warn("kafka_close_failed", slog.String("err", err.Error()))
			}
		}()
		publisher = k
		log.Info("security_events_enabled", slog.String("topic", cfg.Events.Topic))
	}

	srvc := service.New(service.Deps{
		Users:    st.users,
		Registry: st.registry,
		Codec:    codec,
		Hasher:   hasher,
		Events:   publisher,
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
	}, service.Config{
		AccessTokenTTL:      cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL:     cfg.Auth.RefreshTokenTTL,
		SkipUserActiveCheck: cfg.Auth.SkipUserActiveCheck,
	})
	log.Info("service_initialized")

	var ready atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		if err := st.ping(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}()

	grpc_prometheus.EnableHandlingTimeHistogram()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.WithTimeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	authv1.RegisterAuthServiceServer(grpcServer, auth.NewAuthServer(srvc))
	grpc_prometheus.Register(grpcServer)

	startRefreshJanitor(ctx, st.registry, log, cfg.Registry.SweepInterval)

	addr := cfg.GRPC.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		_ = httpSrv.Shutdown(context.Background())
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	log.Info("grpc_listen_start", slog.String("addr", addr))

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(authv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	ready.Store(true)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		if serveErr != nil {
			log.Error("grpc_serve_failed", slog.String("err", serveErr.Error()))
		}
	}

	hs.Shutdown()
	ready.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	}

	return serveErr
}

// stores — выбранные по конфигурации каталог пользователей и реестр
// refresh-токенов плюс их закрытие и проверка готовности.
type stores struct {
	users    storage.UserDirectory
	registry storage.RefreshRegistry
	pg       *postgres.Storage
	redis    *redisstore.Registry
}

func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{}

	if cfg.DB.DatabaseURL != "" {
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pg, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
		dbCancel()
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		st.pg = pg
		st.users = pg
		log.Info("postgres_connected")
	} else {
		st.users = memory.NewUsers()
		log.Warn("user_directory_in_memory")
	}

	switch cfg.Registry.Backend {
	case config.RegistryPostgres:
		st.registry = st.pg
	case config.RegistryRedis:
		rCtx, rCancel := context.WithTimeout(ctx, 5*time.Second)
		rr, err := redisstore.New(rCtx, cfg.Registry.RedisURL, cfg.Registry.KeyPrefix)
		rCancel()
		if err != nil {
			st.close(log)
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		st.redis = rr
		st.registry = rr
		log.Info("redis_connected")
	default:
		st.registry = memory.NewRegistry()
		log.Warn("refresh_registry_in_memory")
	}

	return st, nil
}

func (s *stores) ping(ctx context.Context) error {
	if s.pg != nil {
		return s.pg.Ping(ctx)
	}

	return nil
}

func (s *stores) close(log *slog.Logger) {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn("redis_close_failed", slog.String("err", err.Error()))
		}
	}
	if s.pg != nil {
		s.pg.Close()
	}
}

// startRefreshJanitor периодически удаляет просроченные записи реестра
// refresh-токенов (RefreshRegistry.DeleteExpired).
func startRefreshJanitor(ctx context.Context, registry storage.RefreshRegistry, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := registry.DeleteExpired(ctx, time.Now().UTC())
				if err != nil {
					log.Error("refresh_janitor_failed", slog.String("err", err.Error()))
					continue
				}
				if n > 0 {
					log.Info("refresh_janitor_swept", slog.Int64("deleted", n))
				}
			}
		}
	}()
}
