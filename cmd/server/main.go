package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	housingclient "resportal/internal/clients/housing"
	identityclient "resportal/internal/clients/identity"
	"resportal/internal/housing/audit"
	"resportal/internal/housing/halls"
	"resportal/internal/housing/handler"
	housingmetrics "resportal/internal/housing/metrics"
	"resportal/internal/housing/service"
	memorystore "resportal/internal/housing/store/memory"
	postgresstore "resportal/internal/housing/store/postgres"
	"resportal/internal/platform/config"
	"resportal/internal/platform/httpserver"
	kafkaproducer "resportal/internal/platform/kafka/producer"
	"resportal/internal/platform/logger"
	"resportal/internal/platform/metrics"
	platformredis "resportal/internal/platform/redis"
)

// main wires the directories, the workflow service, and the HTTP surface.
// Business logic lives in internal/housing; this stays assembly only.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	housingDir, cleanup, err := buildHousingDirectory(ctx, cfg, log)
	if err != nil {
		log.Fatal("housing directory setup failed", zap.Error(err))
	}
	defer cleanup()

	var identityDir service.IdentityDirectory
	if cfg.Identity.BaseURL != "" {
		identityDir = identityclient.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey)
	} else {
		identityDir = memorystore.NewIdentityStore()
		log.Warn("no identity service configured, using empty in-memory directory")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Fatal("redis setup failed", zap.Error(err))
	}
	var cache *goredis.Client
	if redisClient != nil {
		defer redisClient.Close()
		cache = redisClient.Client
	}

	producer, err := kafkaproducer.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Fatal("kafka setup failed", zap.Error(err))
	}
	var publisher audit.Publisher
	if producer != nil {
		defer producer.Close()
		publisher = audit.NewKafkaPublisher(producer)
	}

	svc := service.NewService(identityDir, housingDir,
		service.WithLogger(log),
		service.WithMetrics(housingmetrics.New()),
		service.WithAudit(audit.NewEmitter(publisher, log)),
	)
	hallSource := halls.NewSource(housingDir, cache,
		cfg.Housing.FallbackHalls, cfg.Housing.HallsCacheTTL, log)

	h := handler.NewHandler(svc, hallSource, log)
	router := handler.NewRouter(h, []byte(cfg.Server.JWTSigningKey), metrics.NewHTTP())
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting resportal",
		zap.String("addr", cfg.Server.Addr),
		zap.String("housing_mode", cfg.Housing.Mode))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("graceful shutdown failed", zap.Error(err))
	}
}

func buildHousingDirectory(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.HousingDirectory, func(), error) {
	switch cfg.Housing.Mode {
	case config.ModeMemory:
		return memorystore.NewStore(cfg.Housing.FallbackHalls), func() {}, nil
	case config.ModePostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgresstore.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case config.ModeRemote:
		return housingclient.NewClient(cfg.Housing.BaseURL, cfg.Housing.APIKey), func() {}, nil
	default:
		// config.Load validates the mode; this is unreachable.
		log.Fatal("unknown housing mode", zap.String("mode", cfg.Housing.Mode))
		return nil, nil, nil
	}
}
