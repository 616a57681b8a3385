package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptgram/internal/cache"
	"promptgram/internal/config"
	"promptgram/internal/database"
	"promptgram/internal/generation"
	"promptgram/internal/handler"
	"promptgram/internal/queue"
	"promptgram/internal/redis"
	"promptgram/internal/repository"
	"promptgram/internal/service"
	"promptgram/internal/worker"
)

// Run wires the whole application together and serves until interrupted.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	var cacheStore cache.Store
	if cfg.CacheEnabled {
		cacheStore = cache.NewStore(rdb.Client)
	} else {
		log.Printf("[Server] Cache disabled, running without read-through caching")
		cacheStore = cache.NewNoopStore()
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	imageRepo := repository.NewImageRepository(db)
	remixRepo := repository.NewRemixRepository(db)
	counterRepo := repository.NewCounterRepository(db)

	publisher := queue.NewPublisher(rdb.Client)
	generator := generation.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)

	authService := service.NewAuthService(cfg)
	identityService := service.NewIdentityService(userRepo, cacheStore)
	userService := service.NewUserService(userRepo, imageRepo, cacheStore, publisher, cfg.DefaultAvatarURL)
	followService := service.NewFollowService(followRepo, userRepo, db, cacheStore)
	imageService := service.NewImageService(imageRepo, remixRepo, db, cacheStore, generator, publisher, int64(cfg.GenerateRateLimit))

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	// Reconciliation worker: consumes counter-drift events and recounts from
	// the edge tables.
	consumer := queue.NewConsumer(rdb.Client)
	manager := worker.NewManager(consumer, worker.NewHandler(counterRepo), worker.ManagerConfig{
		WorkerCount: cfg.WorkerCount,
	})
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reconciliation workers: %w", err)
	}
	defer manager.Stop()

	router := NewRouter(RouterConfig{
		AuthHandler:   handler.NewAuthHandler(userService, authService),
		UserHandler:   handler.NewUserHandler(userService, identityService, mediaService),
		FollowHandler: handler.NewFollowHandler(followService),
		ImageHandler:  handler.NewImageHandler(imageService),
		JWTSecret:     cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
