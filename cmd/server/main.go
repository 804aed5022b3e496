package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/iliyamo/taskboard/internal/config"
	"github.com/iliyamo/taskboard/internal/database"
	"github.com/iliyamo/taskboard/internal/handler"
	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/repository"
	"github.com/iliyamo/taskboard/internal/router"
	"github.com/iliyamo/taskboard/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	logger := logging.New(os.Stderr, cfg.LogLevel, "taskboard-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Credential store and audit log.
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("mysql migrate: %v", err)
	}

	// Task store.
	mc, mdb, err := database.OpenMongo(ctx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	if err := database.EnsureIndexes(ctx, mdb); err != nil {
		logger.Warn("mongo indexes not ensured", "err", err)
	}

	// Redis is optional: without it the API runs without rate limiting.
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "err", err)
	} else {
		defer rdb.Close()
	}
	limits := config.LoadRateLimitConfigs()

	events := queue.NewPublisher(cfg.RabbitURL)
	if !events.Enabled() {
		logger.Info("RABBITMQ_URL not set, card events disabled")
	}

	auth := service.NewAuthService(
		repository.NewUserRepo(db),
		repository.NewTokenRepo(db),
		service.AuthConfig{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL(),
			BcryptCost: cfg.BcryptCost,
		},
		logger,
	)
	cards := service.NewCardService(
		repository.NewCardRepo(mdb),
		repository.NewCommentRepo(mdb),
		repository.NewAuditRepo(db),
		events,
		logger,
	)

	e := router.New(router.Deps{
		Logger: logger,
		Auth:   handler.NewAuthHandler(auth),
		Cards:  handler.NewCardHandler(cards),
		Health: &handler.HealthHandler{
			Mongo: mongoPing(mc),
			MySQL: sqlPing(db),
		},
		Verifier:  auth,
		AuthLimit: middleware.NewTokenBucket(limits.Auth, rdb, logger),
		APILimit:  middleware.NewTokenBucket(limits.General, rdb, logger),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

func mongoPing(c *mongo.Client) handler.PingFunc {
	return func(ctx context.Context) error { return c.Ping(ctx, readpref.Primary()) }
}

func sqlPing(db *sql.DB) handler.PingFunc {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
