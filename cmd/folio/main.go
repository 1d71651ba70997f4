package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/folioworks/folio/internal/config"
	logpkg "github.com/folioworks/folio/internal/logger"
	"github.com/folioworks/folio/internal/metrics"
	"github.com/folioworks/folio/internal/repository/cache"
	"github.com/folioworks/folio/internal/storage/sqlite"
	chiTransport "github.com/folioworks/folio/internal/transport/chi"
	healthuc "github.com/folioworks/folio/internal/usecase/health"
	indexuc "github.com/folioworks/folio/internal/usecase/index"
	searchuc "github.com/folioworks/folio/internal/usecase/search"
	"github.com/folioworks/folio/internal/version"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting folio search API",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
	)

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	var responseCache cache.Cache = cache.Noop{}
	if len(cfg.Cache.Addrs) > 0 {
		redisCache, err := cache.NewRedis(cfg.Cache.Addrs, cfg.Cache.Password)
		if err != nil {
			logger.Fatal("Failed to connect cache", zap.Error(err))
		}
		defer redisCache.Close()
		responseCache = redisCache
		logger.Info("Search response cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	metrics.Register()

	indexer := indexuc.New(store)
	searcher := searchuc.New(store, sqlite.NewPermissionFilter())
	healthChecker := healthuc.New(store, store)

	server := chiTransport.NewServer(
		searcher, indexer, healthChecker,
		responseCache, time.Duration(cfg.Cache.TTLSec)*time.Second,
		cfg.Search, logger,
	)

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(metrics.Middleware())
	r.Use(chiTransport.ActorMiddleware(cfg.Auth))
	server.Register(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second,
		)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
