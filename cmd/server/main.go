// @title        Bug Tracker API
// @version      1.0
// @description  REST API for reporting and tracking software bugs.
// @BasePath     /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/mern-bugtracker/bug-tracker/internal/api"
	"github.com/mern-bugtracker/bug-tracker/internal/api/handler"
	"github.com/mern-bugtracker/bug-tracker/internal/core/ports"
	"github.com/mern-bugtracker/bug-tracker/internal/core/service"
	"github.com/mern-bugtracker/bug-tracker/internal/infrastructure/db/memory"
	"github.com/mern-bugtracker/bug-tracker/internal/infrastructure/db/mongo"
	"github.com/mern-bugtracker/bug-tracker/internal/infrastructure/db/redis"
	"github.com/mern-bugtracker/bug-tracker/internal/infrastructure/queue"
	"github.com/mern-bugtracker/bug-tracker/internal/pkg/config"
	"github.com/mern-bugtracker/bug-tracker/pkg/logger"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 30 * time.Second
)

// stores groups the repositories selected for the current environment.
type stores struct {
	bugs     ports.BugRepository
	users    ports.UserRepository
	activity ports.ActivityRepository
}

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "bug-tracker",
		Env:     cfg.Env,
	})

	if cfg.RequireAuth && cfg.JWTSecret == "" {
		log.Fatal().Msg("REQUIRE_AUTH is set but JWT_SECRET is empty")
	}

	ctx := context.Background()
	readiness := map[string]handler.PingFunc{}

	// 2. Storage
	var st stores
	var mongoClient *mongodriver.Client
	if cfg.IsTest() {
		log.Warn().Msg("ENV=test: using in-memory storage")
		st = stores{
			bugs:     memory.NewBugRepository(),
			users:    memory.NewUserRepository(),
			activity: memory.NewActivityRepository(),
		}
	} else {
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Str("uri", cfg.Mongo.URI).Msg("failed to connect to MongoDB")
		}
		mongoClient = client
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

		st, err = mongoStores(ctx, db)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare MongoDB collections")
		}
		readiness["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	// 3. Idempotency keys (optional)
	var replays ports.IdempotencyStore
	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		redisClient = client
		replays = redis.NewIdempotencyStore(client)
		readiness["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Info().Str("addr", client.Options().Addr).Int("db", client.Options().DB).Msg("idempotency keys enabled")
	}

	// 4. Services and the activity workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	activityService := service.NewActivityService(st.activity, logger.Component("activity"))
	dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, activityService, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	bugService := service.NewBugService(st.bugs, dispatcher, replays, logger.Component("bugs"))
	userService := service.NewUserService(st.users, cfg.JWTSecret, tokenTTL)

	// 5. HTTP
	e := api.NewRouter(api.Dependencies{
		Bugs:        bugService,
		Activity:    activityService,
		Users:       userService,
		Readiness:   readiness,
		Log:         logger.Component("http"),
		JWTSecret:   cfg.JWTSecret,
		RequireAuth: cfg.RequireAuth,
		Development: cfg.IsDevelopment(),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server running")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// 6. Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}

	stopWorkers()
	dispatcher.Wait()

	closeClients(shutdownCtx, log, mongoClient, redisClient)
	log.Info().Msg("server stopped")
}

func mongoStores(ctx context.Context, db *mongodriver.Database) (stores, error) {
	bugs := mongo.NewBugRepository(db)
	if err := bugs.EnsureSchema(ctx); err != nil {
		return stores{}, err
	}
	users := mongo.NewUserRepository(db)
	if err := users.EnsureSchema(ctx); err != nil {
		return stores{}, err
	}
	activity := mongo.NewActivityRepository(db)
	if err := activity.EnsureIndexes(ctx); err != nil {
		return stores{}, err
	}
	return stores{bugs: bugs, users: users, activity: activity}, nil
}

func closeClients(ctx context.Context, log zerolog.Logger, mc *mongodriver.Client, rc *goredis.Client) {
	if mc != nil {
		if err := mc.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect error")
		}
	}
	if rc != nil {
		if err := rc.Close(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}
}
