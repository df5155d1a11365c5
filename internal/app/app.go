package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"planetguard/internal/cache"
	"planetguard/internal/config"
	"planetguard/internal/repository"
	"planetguard/internal/service"
	"planetguard/internal/transport/rest"
	"planetguard/internal/transport/ws"
)

// App holds the process-wide dependencies of the server
type App struct {
	Mongo *mongo.Client
	Redis *redis.Client

	SessionRepo  repository.SessionRepo
	QuestionRepo repository.QuestionRepo
	ProfileRepo  repository.ProfileRepo

	AuthService *service.AuthService
	GameService *service.GameService
	WSHub       *ws.Hub

	cfg    *config.Config
	logger *zap.Logger
}

// New connects to MongoDB and Redis and wires the services. Redis is
// optional; without it there is no snapshot cache and no leaderboard.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	a.Mongo = mongoClient

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	db := mongoClient.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(pingCtx, db); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	a.SessionRepo = repository.NewSessionRepo(db)
	a.QuestionRepo = repository.NewQuestionRepo(db)
	a.ProfileRepo = repository.NewProfileRepo(db)

	a.AuthService = service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	a.GameService = service.NewGameService(a.SessionRepo, a.QuestionRepo, a.ProfileRepo, logger, service.GameOptions{
		StoreTimeout: cfg.StoreTimeout,
		Retries:      cfg.MutationRetries,
		RetryBackoff: service.DefaultGameOptions().RetryBackoff,
	})

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			a.Close(ctx)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.Redis = rdb
		a.GameService.SetSnapshotCache(cache.NewSessionCache(rdb, cfg.SnapshotTTL))
		a.GameService.SetLeaderboard(cache.NewLeaderboardCache(rdb))
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, snapshot cache and leaderboard disabled")
	}

	a.WSHub = ws.NewHub(logger)
	a.GameService.SetNotifier(a.WSHub)
	return a, nil
}

// Handler returns the HTTP handler serving REST and WebSocket traffic
func (a *App) Handler() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:    a.AuthService,
		GameService:    a.GameService,
		WSHub:          a.WSHub,
		Logger:         a.logger,
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
	})
}

// Close waits for background stats updates and releases all connections.
func (a *App) Close(ctx context.Context) error {
	if a.GameService != nil {
		a.GameService.Wait()
	}
	if a.WSHub != nil {
		a.WSHub.Stop()
	}

	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
