package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/gateway"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/grpcserver"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/sweeper"
)

const (
	shutdownTimeout = 15 * time.Second

	dispatcherWorkers   = 2
	dispatcherBatchSize = 20
	dispatcherFlush     = 200 * time.Millisecond
)

func main() {
	envPath, envLoaded := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if envLoaded {
		log.Info("loaded environment file", zap.String("path", envPath))
	}

	if err := run(cfg, log); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("service stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDb(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		return err
	}

	userRepo := postgresql.NewUserRepo(database)
	if cfg.AdminUsername != "" {
		created, err := userRepo.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword, "admin")
		if err != nil {
			return err
		}
		if created {
			log.Info("seeded admin user", zap.String("username", cfg.AdminUsername))
		}
	}

	outboxRepo := postgresql.NewOutboxTaskRepo()
	dispatcher := notify.NewDispatcher(
		kafka.NewOutboxSink(database, outboxRepo, cfg.Kafka.Topic),
		dispatcherWorkers, dispatcherBatchSize, dispatcherFlush, log,
	)
	// Started on a background context: it is flushed only after the
	// servers have drained.
	dispatcher.Start(context.Background())

	listingCache := cache.NewListingCache(log)
	gw := gateway.New(
		database,
		postgresql.NewListingRepo(database),
		postgresql.NewRequestRepo(),
		postgresql.NewDonationRepo(),
		listingCache,
		dispatcher,
		gateway.Config{
			RetryAttempts: cfg.TxRetryAttempts,
			RetryBackoff:  cfg.TxRetryBackoff,
			Policy:        cfg.Policy,
		},
		log,
	)
	if err := gw.WarmCache(ctx); err != nil {
		return err
	}

	var producer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log)
	} else {
		log.Warn("KAFKA_BROKERS is empty, notifications will be written to the log")
		producer = kafka.NewConsoleProducer(log)
	}
	publisher := kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		StaleAfter:   cfg.Outbox.StaleAfter,
	}, log)

	authService := auth.NewService(userRepo, auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))
	httpServer := server.New(gw, authService, log)
	grpcServer := grpcserver.NewServer(gw, authService, log)
	expiry := sweeper.New(gw, cfg.ExpirySweepInterval, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Run(cfg.HTTPPort)
	})
	g.Go(func() error {
		return grpcServer.Run(cfg.GRPCPort)
	})
	g.Go(func() error {
		return expiry.Run(gctx)
	})
	g.Go(func() error {
		return publisher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.Shutdown(shutdownCtx)
		// Events still queued are written to the outbox and published on
		// the next start.
		dispatcher.Shutdown(shutdownCtx)
		publisher.Shutdown(shutdownCtx)
		return err
	})

	return g.Wait()
}
