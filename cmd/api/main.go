package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis only backs rate limiting; without it each instance limits on its own
	var (
		redisClient   *redis.Client
		createLimiter middleware.Limiter
		modifyLimiter middleware.Limiter
	)
	createCfg := middleware.RecipeCreationConfig(cfg.RecipeCreateLimit)
	modifyCfg := middleware.RecipeModificationConfig(cfg.RecipeModifyLimit)
	if redisClient, err = database.NewRedisClient(cfg); err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, using in-process rate limiting")
		redisClient = nil
		createLimiter = middleware.NewMemoryLimiter(createCfg)
		modifyLimiter = middleware.NewMemoryLimiter(modifyCfg)
	} else {
		defer redisClient.Close()
		createLimiter = middleware.NewRedisLimiter(redisClient, createCfg)
		modifyLimiter = middleware.NewRedisLimiter(redisClient, modifyCfg)
	}

	images, mediaDir := imageStore(cfg)

	stores := service.NewStores(db)
	handler := router.SetupRouter(router.Dependencies{
		DB:            db,
		Redis:         redisClient,
		Auth:          service.NewAuthService(stores.Users, cfg.JWTSecret, cfg.TokenTTL),
		Users:         service.NewUserService(stores),
		Follows:       service.NewFollowService(stores),
		Recipes:       service.NewRecipeService(stores, images),
		Favorites:     service.NewFavoriteService(stores),
		Cart:          service.NewShoppingCartService(stores),
		Shopping:      service.NewShoppingListService(stores.Recipes),
		Catalog:       service.NewCatalogService(stores),
		CreateLimiter: createLimiter,
		ModifyLimiter: modifyLimiter,
		CORSOrigins:   cfg.CORSOrigins,
		MediaDir:      mediaDir,
	})

	srv := server.New(cfg, handler)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logging.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("received signal")
	}

	logging.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	logging.Info().Msg("server stopped")
}

// imageStore uploads to S3 when a bucket is configured and to the media directory otherwise.
// The returned directory is non-empty only for disk storage.
func imageStore(cfg *config.Config) (service.ImageStore, string) {
	if cfg.S3Bucket != "" {
		s3Config, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize S3")
		}
		return service.NewS3ImageStore(s3Config), ""
	}

	store, err := service.NewDiskImageStore(cfg.MediaDir, "/media")
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize media directory")
	}
	return store, cfg.MediaDir
}
