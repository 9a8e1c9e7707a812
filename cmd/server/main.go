package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"meridian/internal/audit"
	"meridian/internal/intake"
	intakemetrics "meridian/internal/intake/metrics"
	"meridian/internal/intake/registry"
	"meridian/internal/intake/service"
	"meridian/internal/intake/store"
	jwttoken "meridian/internal/jwt_token"
	"meridian/internal/platform/config"
	"meridian/internal/platform/httpserver"
	"meridian/internal/platform/logger"
	platformredis "meridian/internal/platform/redis"
	httptransport "meridian/internal/transport/http"
)

// main wires dependencies and runs the server lifecycle. Business logic
// lives in the internal verticals.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "meridian: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recordStore, health, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer cleanup()

	sink, sinkCleanup, err := buildAuditSink(cfg, log)
	if err != nil {
		return fmt.Errorf("build audit sink: %w", err)
	}
	defer sinkCleanup()

	auditWorker := audit.NewWorker(sink, 256, log)

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	intakeService := intake.NewService(recordStore,
		service.WithLogger(log),
		service.WithAuditPublisher(audit.NewPublisher(auditWorker)),
		service.WithMetrics(intakemetrics.New()),
	)
	intakeHandler := intake.NewHandler(intakeService, log, jwttoken.NewServiceAdapter(jwtService))

	router := httptransport.NewRouter(intakeHandler, health)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting meridian",
		"addr", cfg.Addr,
		"store_backend", cfg.StoreBackend,
		"kafka_audit", len(cfg.Kafka.Brokers) > 0,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return auditWorker.Run(gctx)
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	auditWorker.Wait()
	log.Info("meridian stopped")
	return err
}

// buildStore selects the persistence backend from config and returns the
// store, its health check, and a cleanup function.
func buildStore(ctx context.Context, cfg config.Server) (service.Store, httptransport.HealthChecker, func(), error) {
	reg := registry.Default()

	switch cfg.StoreBackend {
	case config.StorePostgres:
		if cfg.PostgresURL == "" {
			return nil, nil, nil, errors.New("MERIDIAN_POSTGRES_URL is required for the postgres backend")
		}
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		pg := store.NewPostgres(db, reg)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return pg, db.PingContext, func() { _ = db.Close() }, nil

	case config.StoreRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		if client == nil {
			return nil, nil, nil, errors.New("MERIDIAN_REDIS_URL is required for the redis backend")
		}
		return store.NewRedis(client.Client, reg), client.Health, func() { _ = client.Close() }, nil

	case config.StoreMemory:
		return store.NewInMemory(reg), nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// buildAuditSink returns the Kafka sink when brokers are configured, and the
// in-process store otherwise.
func buildAuditSink(cfg config.Server, log *slog.Logger) (audit.Sink, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return audit.NewInMemoryStore(), func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, nil, err
	}
	return sink, func() { _ = sink.Close() }, nil
}
