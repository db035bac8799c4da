package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tobilawal/localdiscovery/internal/adapters/events"
	"github.com/tobilawal/localdiscovery/internal/adapters/providers/geolocation"
	"github.com/tobilawal/localdiscovery/internal/adapters/storage"
	"github.com/tobilawal/localdiscovery/internal/application/services"
	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/internal/domain/providers"
	redisclient "github.com/tobilawal/localdiscovery/internal/infrastructure/clients/redis"
	"github.com/tobilawal/localdiscovery/internal/infrastructure/observability"
	"github.com/tobilawal/localdiscovery/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.Service.Name, cfg.Service.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := openStateStore(cfg)
	defer store.Close()

	bus := events.NewInProcessBus()
	geo := geolocation.NewStaticProvider(
		cfg.Geolocation.Latitude,
		cfg.Geolocation.Longitude,
		cfg.Geolocation.AccuracyM,
	)

	engine := services.NewSearchContextService(store, bus, geo, cfg.Context)
	if err := engine.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize search context engine")
	}
	defer engine.Cleanup()

	logger.Info().
		Str("session_id", engine.CurrentSessionID()).
		Str("storage", cfg.Storage.Backend).
		Msg("search context engine running")

	// Surface engine activity in the process log.
	bus.Subscribe(entities.ContextEventSearchAdded, func(e *entities.ContextEvent) {
		logger.Info().Str("entry_id", e.SearchAdded.EntryID).Str("query", e.SearchAdded.Query).
			Msg("search recorded")
	})
	bus.Subscribe(entities.ContextEventHistoryCleared, func(e *entities.ContextEvent) {
		logger.Info().Int("removed", e.HistoryCleared.Removed).Msg("history cleared")
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
}

// openStateStore picks the configured backend. Redis trouble degrades to
// the in-memory store instead of failing startup; the engine keeps
// working, just without durability.
func openStateStore(cfg *config.Config) providers.StateStore {
	logger := observability.Component("storage")

	switch cfg.Storage.Backend {
	case "redis":
		client, err := redisclient.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory store")
			return storage.NewMemoryStore()
		}
		return storage.NewRedisStore(client)
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			logger.Warn().Err(err).Msg("sqlite unavailable, falling back to in-memory store")
			return storage.NewMemoryStore()
		}
		return store
	default:
		return storage.NewMemoryStore()
	}
}
