package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terrasight/tracker-sync/internal/api"
	"github.com/terrasight/tracker-sync/internal/api/handler"
	"github.com/terrasight/tracker-sync/internal/core/buffer"
	"github.com/terrasight/tracker-sync/internal/core/motion"
	"github.com/terrasight/tracker-sync/internal/core/registry"
	"github.com/terrasight/tracker-sync/internal/core/service"
	mongodb "github.com/terrasight/tracker-sync/internal/infrastructure/db/mongo"
	redisdb "github.com/terrasight/tracker-sync/internal/infrastructure/db/redis"
	"github.com/terrasight/tracker-sync/internal/infrastructure/geo"
	"github.com/terrasight/tracker-sync/internal/infrastructure/network"
	"github.com/terrasight/tracker-sync/internal/infrastructure/pubsub"
	"github.com/terrasight/tracker-sync/internal/infrastructure/queue"
	"github.com/terrasight/tracker-sync/internal/pkg/config"
	"github.com/terrasight/tracker-sync/internal/pkg/tracing"
	"github.com/terrasight/tracker-sync/pkg/logger"
)

const (
	serviceName     = "tracker-sync"
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

//go:generate swag init --parseInternal -d ../../ -g cmd/server/main.go -o ../../docs

// @title                       Tracker Sync API
// @version                     1.0
// @description                 Live GPS tracker synchronisation: registry, pub/sub channel, durable position log.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb unavailable")
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongodb indexes")
	}

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}

	tc := cfg.Tracking

	// Registry and interpolation.
	smoother := motion.NewSmoother(tc.UpdateInterval)
	reg := registry.New(tc.HistoryMax, tc.OfflineAfter, registry.WithObserver(smoother.Observe))

	// Workers outlive the signal ctx and stop only after the sync service is
	// disabled.
	workCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := queue.NewDispatcher(tc.InboundWorkers, reg, logger.Component("dispatcher"))
	dispatcher.Start(workCtx)

	// Device and connectivity sources.
	locations := geo.NewHub()
	probe := network.NewProbe(func(ctx context.Context) error {
		return mongoClient.Ping(ctx, nil)
	}, tc.ProbeInterval, logger.Component("network"))
	go probe.Run(ctx)

	// Persistence.
	logs := mongodb.NewTrackerLogRepository(db)
	offline := buffer.NewQueue(redisdb.NewBufferSlot(redisClient, tc.BufferKey), tc.BufferCap)

	plan := service.DefaultSimPlan()
	if tc.SimRouteFile != "" {
		if plan, err = service.LoadSimPlan(tc.SimRouteFile); err != nil {
			log.Fatal().Err(err).Str("file", tc.SimRouteFile).Msg("simulation route")
		}
	}

	syncService := service.NewSyncService(
		service.SyncConfig{
			Topic:             tc.Topic,
			SubscribeTimeout:  tc.SubscribeTimeout,
			PresenceTTL:       tc.PresenceTTL,
			LogCooldown:       tc.LogCooldown,
			BroadcastCooldown: tc.BroadcastCooldown,
			MinDisplacement:   tc.MinDisplacement,
			MaxAccuracy:       tc.MaxAccuracy,
			SimTick:           tc.SimTick,
		},
		reg,
		dispatcher,
		pubsub.NewRedisChannel(redisClient, tc.PresenceTTL, logger.Component("pubsub")),
		logs,
		offline,
		locations,
		probe,
		service.NewSimulator(plan),
		log,
	)

	authService := service.NewAuthService(mongodb.NewAuthRepository(db), cfg.JWTSecret, tokenTTL)

	e := api.NewRouter(api.Dependencies{
		JWTSecret: cfg.JWTSecret,
		FrameRate: tc.FrameRate,
		Log:       logger.Component("http"),
		Auth:      authService,
		Sync:      syncService,
		Trackers:  reg,
		Frames:    smoother,
		Logs:      logs,
		Locations: locations,
		Readiness: map[string]handler.CheckFunc{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting tracker-sync")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	syncService.Disable()
	stopWorkers()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect")
	}
}
