package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/homegame/homegame/internal/api/http"
	"github.com/homegame/homegame/internal/application/ledger"
	"github.com/homegame/homegame/internal/application/payout"
	appProfile "github.com/homegame/homegame/internal/application/profile"
	"github.com/homegame/homegame/internal/application/session"
	"github.com/homegame/homegame/internal/application/watch"
	"github.com/homegame/homegame/internal/config"
	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/notification"
	"github.com/homegame/homegame/internal/domain/profile"
	"github.com/homegame/homegame/internal/infrastructure/postgres"
	"github.com/homegame/homegame/internal/infrastructure/profilecache"
	"github.com/homegame/homegame/internal/infrastructure/sqlite"
	"github.com/homegame/homegame/internal/infrastructure/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// infrastructure
	sseHub := sse.NewHub(logger)

	var (
		store     game.Store
		publisher notification.Publisher = sseHub
	)
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("db error: %v", err)
		}
		defer db.Close()
		store = db
		logger.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db error: %v", err)
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migration error: %v", err)
		}
		store = postgres.NewStore(pool)

		// Events go through NOTIFY so watchers on every instance see them;
		// the listener feeds this instance's hub.
		publisher = postgres.NewNotifier(pool, cfg.NotifyChannel)
		listener := postgres.NewListener(pool, cfg.NotifyChannel, sseHub, logger)
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("notify listener stopped")
			}
		}()
		logger.Info().Msg("using postgres store")
	}

	resolverCache := profilecache.New(profile.NewRepositoryResolver(store.Profiles()), cfg.ProfileCacheTTL, logger)

	// services
	sessionSvc := session.NewService(store, resolverCache, publisher, session.NewRecorder(logger), cfg.ShortCodeLength, logger)
	ledgerSvc := ledger.NewService(store, resolverCache, publisher, logger)
	payoutSvc := payout.NewService(store, resolverCache, logger)
	profileSvc := appProfile.NewService(store, resolverCache, logger)

	// API server
	apiServer := httpapi.NewServer(
		sessionSvc,
		ledgerSvc,
		payoutSvc,
		profileSvc,
		watch.NewStoreLoader(store, resolverCache),
		sseHub,
		cfg.PollInterval,
		logger,
	)

	// No write timeout: event streams stay open for the life of a game.
	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sseHub.Stop()
	_ = httpServer.Shutdown(ctxShutdown)
}
