package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/craftyclassroom/classroom-api/api/swagger"
	"github.com/craftyclassroom/classroom-api/internal/policy"
	"github.com/craftyclassroom/classroom-api/internal/repository"
	"github.com/craftyclassroom/classroom-api/internal/router"
	"github.com/craftyclassroom/classroom-api/internal/service"
	"github.com/craftyclassroom/classroom-api/pkg/cache"
	"github.com/craftyclassroom/classroom-api/pkg/config"
	"github.com/craftyclassroom/classroom-api/pkg/database"
	"github.com/craftyclassroom/classroom-api/pkg/logger"
)

// @title Crafty Classroom API
// @version 1.0.0
// @description Classroom marketplace REST API over MongoDB
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	os.Exit(exitCode(logr, run(cfg, logr)))
}

// exitCode logs the outcome of run and flushes the logger before the process
// exits.
func exitCode(logr *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logr.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = logr.Sync()
	return code
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	access, err := policy.New(cfg.Access.Profile, cfg.Access.ProtectedRoutes)
	if err != nil {
		return fmt.Errorf("access policy: %w", err)
	}

	metrics := service.NewMetricsService()

	store, err := openStore(ctx, cfg.Database, metrics)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logr.Warn("failed to close store", zap.Error(err))
		}
	}()

	cacheRepo := repository.NewCacheRepository(nil)
	cacheOn := false
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, list cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client)
			cacheOn = true
		}
	}
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheOn)

	validate := validator.New()
	tokens := service.NewTokenService(validate, logr, service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	engine, err := router.New(router.Deps{
		Logger:         logr,
		Policy:         access,
		Store:          store,
		Tokens:         tokens,
		Users:          service.NewUserService(store.Users, cacheSvc, validate, logr),
		Classes:        service.NewClassService(store.Classes, cacheSvc, validate, logr),
		Enrollments:    service.NewEnrollmentService(store.Enrollments, metrics, validate, logr),
		Metrics:        metrics,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		PaymentKey:     cfg.Payment.SecretKey,
		EnableDocs:     cfg.Env != config.EnvProduction,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Database.Driver),
			zap.Bool("cache", cacheSvc.Enabled()),
			zap.String("access_profile", access.Profile()),
			zap.Strings("protected_routes", access.Strings()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, metrics *service.MetricsService) (*repository.Store, error) {
	if cfg.Driver == config.DriverMemory {
		return repository.NewMemoryStore(), nil
	}
	client, err := database.NewMongo(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return repository.NewMongoStore(client, cfg.Name, cfg.Timeout, metrics), nil
}
