package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/api"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/auth"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/config"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/logging"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/outbox"
	persistence "github.com/rahulwaghole14/fitnessapp-backend/internal/persistence/postgres"
	httptransport "github.com/rahulwaghole14/fitnessapp-backend/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		results, err := persistence.Migrate(ctx, pool)
		if err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Int("count", len(results)))
	}

	repo := persistence.NewRepository(pool)
	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
	dispatcher := outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger.Named("outbox"))

	go dispatcher.Start(ctx)

	service := domain.NewService(repo, domain.WithLogger(logger.Named("rollup")))

	handler := api.NewHandler(service, logger.Named("api"))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	requestLogger := httptransport.RequestLogger(logger.Named("http"))
	cors := httptransport.CORS(cfg.CORSOrigin)

	serverCfg := httptransport.DefaultServerConfig(cfg.HTTPAddress)
	server := httptransport.NewServer(serverCfg, requestLogger(cors(authMiddleware.Wrap(mux))))

	if err := httptransport.Serve(ctx, server, serverCfg.ShutdownTimeout, logger.Named("http")); err != nil {
		logger.Error("api server stopped with error", zap.Error(err))
		cancel()
	}

	dispatcher.Wait()
	logger.Info("activity rollup api stopped")
}
