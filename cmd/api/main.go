package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/localloop/localloop-backend/api/controllers"
	"github.com/localloop/localloop-backend/api/routes"
	"github.com/localloop/localloop-backend/internal/actions"
	"github.com/localloop/localloop-backend/internal/assistant"
	"github.com/localloop/localloop-backend/internal/borrowings"
	"github.com/localloop/localloop-backend/internal/disposal"
	"github.com/localloop/localloop-backend/internal/events"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/config"
	"github.com/localloop/localloop-backend/pkg/db"
	"github.com/localloop/localloop-backend/pkg/logger"
	"github.com/localloop/localloop-backend/pkg/metrics"
	"github.com/localloop/localloop-backend/pkg/pubsub"
	"github.com/localloop/localloop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry := prometheus.NewRegistry()
	stateMetrics := metrics.NewStateMetrics(registry)
	actionMetrics := metrics.NewActionMetrics(registry)

	readiness := map[string]controllers.Pinger{}

	var closers []func() error
	defer func() {
		var closeErr error
		for i := len(closers) - 1; i >= 0; i-- {
			closeErr = multierr.Append(closeErr, closers[i]())
		}
		if closeErr != nil {
			logg.Error(context.Background(), "error closing resources", closeErr)
		}
	}()

	var backend state.Backend
	if cfg.Snapshot.UsesDB() {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		closers = append(closers, dbClient.Close)
		readiness["db"] = dbClient

		backend, err = state.NewGormBackend(dbClient.DB(), logg)
		if err != nil {
			logg.Error(ctx, "failed to create snapshot backend", err)
			os.Exit(1)
		}
	} else {
		backend, err = state.NewFileBackend(cfg.Snapshot.Path, logg)
		if err != nil {
			logg.Error(ctx, "failed to create snapshot backend", err)
			os.Exit(1)
		}
	}

	store, err := state.Open(ctx, backend, logg, stateMetrics)
	if err != nil {
		logg.Error(ctx, "failed to open building state", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		readiness["redis"] = redisClient
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		closers = append(closers, pubsubClient.Close)

		publisher, err = events.NewPubSubPublisher(pubsubClient.EventsPublisher(), logg)
		if err != nil {
			logg.Error(ctx, "failed to create event publisher", err)
			os.Exit(1)
		}
	}

	borrowSvc, err := borrowings.NewService(store, cfg.Impact, logg)
	if err != nil {
		logg.Error(ctx, "failed to create borrowings service", err)
		os.Exit(1)
	}

	disposalSvc, err := disposal.NewService(store, cfg.Disposal, cfg.Impact, publisher, stateMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create disposal service", err)
		os.Exit(1)
	}

	interp, err := actions.NewInterpreter(store, borrowSvc, disposalSvc, actionMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create action interpreter", err)
		os.Exit(1)
	}

	llm, err := assistant.NewGeminiClient(ctx, cfg.AI)
	if err != nil {
		logg.Error(ctx, "failed to create gemini client", err)
		os.Exit(1)
	}

	var history assistant.HistoryStore = assistant.NewMemoryHistory(cfg.Chat.MaxHistoryTurns)
	if redisClient != nil {
		history = assistant.NewRedisHistory(redisClient, cfg.Chat.MaxHistoryTurns)
	}

	assistantSvc, err := assistant.NewService(store, interp, llm, history, cfg.Chat, logg)
	if err != nil {
		logg.Error(ctx, "failed to create assistant service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"snapshot": cfg.Snapshot.Backend,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, store, borrowSvc, assistantSvc, interp, redisClient, registry, readiness),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}
