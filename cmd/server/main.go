package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "recipeapi/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"recipeapi/internal/auth"
	"recipeapi/internal/cache"
	"recipeapi/internal/config"
	"recipeapi/internal/db"
	"recipeapi/internal/handler"
	"recipeapi/internal/logging"
	"recipeapi/internal/repository"
	"recipeapi/internal/router"
	"recipeapi/internal/service"
	"recipeapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Recipe API
// @version 1.0
// @description Recipe management API with per-user recipes, tags, ingredients, image uploads and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := db.WaitForDB(ctx, gormDB, cfg.DBWaitAttempts, cfg.DBWaitInterval); err != nil {
		return err
	}

	// Drop tables if RESET_DB environment variable is set
	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, running without cache", slog.Any("error", err))
	}

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize repositories
	store := repository.NewStore(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(store.Users(), cacheClient)
	authService := service.NewAuthService(store.Users(), userService, jwtService, tokenStore)
	recipeService := service.NewRecipeService(store, files)
	imageService := service.NewImageService(store, files, cfg.MaxUploadBytes)

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(e, cfg, logger, jwtService, authService, router.Handlers{
		Health:     handler.NewHealthHandler(store, cacheClient),
		User:       handler.NewUserHandler(userService),
		Auth:       handler.NewAuthHandler(authService),
		Recipe:     handler.NewRecipeHandler(recipeService, imageService),
		Tag:        handler.NewLabelHandler(service.NewTagService(store)),
		Ingredient: handler.NewLabelHandler(service.NewIngredientService(store)),
	})

	addr := ":" + cfg.ServerPort
	logger.Info("starting server", slog.String("addr", addr), slog.String("swagger", "http://localhost"+addr+"/swagger/index.html"))

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.StorageS3 {
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	}
	return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
}
