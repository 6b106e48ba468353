package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"negoshop/internal/config"
	"negoshop/internal/httpserver"
	"negoshop/internal/llm"
	"negoshop/internal/negotiation"
	"negoshop/internal/presence"
	"negoshop/internal/security"
	"negoshop/internal/store"
	"negoshop/internal/store/postgres"
	redisstore "negoshop/internal/store/redis"
	"negoshop/internal/store/sqlite"
	"negoshop/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Storage: PostgreSQL when configured, embedded SQLite otherwise.
	var (
		db    *sql.DB
		repos *store.Repositories
	)
	if cfg.DatabaseURL != "" {
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		if err := postgres.Migrate(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		repos = postgres.NewRepositories(db)
		logger.Info("using postgres storage")
	} else {
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		if err := sqlite.Migrate(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		repos = sqlite.NewRepositories(db)
		logger.Info("using sqlite storage", zap.String("path", cfg.SQLitePath))
	}
	defer db.Close()

	// When Redis is configured, merchant presence lives there instead of SQL.
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cancel()
		repos.Activities = redisstore.NewActivityRepo(rdb)
		logger.Info("using redis presence store", zap.String("addr", cfg.RedisAddr))
	}

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)
	encryptor, err := security.NewEncryptor([]byte(cfg.EncryptKey))
	if err != nil {
		logger.Fatal("failed to initialize encryptor", zap.Error(err))
	}

	// Presence tracker and background reconciliation sweep
	tracker := presence.NewTracker(repos.Activities, repos.Messages, logger)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go tracker.RunSweeper(sweepCtx, time.Duration(cfg.SweepIntervalSeconds)*time.Second)

	// Assistant replies: generative provider when configured, deterministic
	// templates otherwise.
	var completer negotiation.TextCompleter
	if cfg.AIBaseURL != "" && cfg.AIAPIKey != "" {
		completer = llm.NewClient(llm.Config{
			BaseURL: cfg.AIBaseURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			Timeout: time.Duration(cfg.AITimeoutSeconds) * time.Second,
		}, logger)
		logger.Info("generative provider configured", zap.String("model", cfg.AIModel))
	} else {
		logger.Info("no generative provider configured, using template replies")
	}
	responder := negotiation.NewResponder(completer, logger)

	hub := ws.NewHub(logger)

	router := httpserver.NewRouter(cfg, repos, hub, tokenSvc, passwordHasher, encryptor, tracker, responder, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "production" && !cfg.Debug {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
