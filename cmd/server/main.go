package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/config"
	"github.com/voxscholar/voxscholar/internal/database"
	"github.com/voxscholar/voxscholar/internal/handler"
	"github.com/voxscholar/voxscholar/internal/logger"
	"github.com/voxscholar/voxscholar/internal/repository"
	"github.com/voxscholar/voxscholar/internal/router"
	"github.com/voxscholar/voxscholar/internal/service"
	"github.com/voxscholar/voxscholar/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("auth_mode", string(cfg.AuthMode)).
		Bool("provider_configured", cfg.ProviderAPIKey != "").
		Msg("Starting Vox Scholar API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis (optional provider-response cache) ───────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, provider caching disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	settingRepo := repository.NewSettingRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	provider := service.NewProviderClient(cfg)
	authService := service.NewAuthService(cfg, userRepo)
	settingService := service.NewSettingService(settingRepo, log)
	itemService := service.NewItemService(itemRepo, cfg, log)
	speechService := service.NewSpeechService(provider, cfg, rdb, log)
	questionService := service.NewQuestionService(provider, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		System:  handler.NewSystemHandler(),
		Auth:    handler.NewAuthHandler(authService),
		Session: handler.NewSessionHandler(settingService),
		Setting: handler.NewSettingHandler(settingService),
		Item:    handler.NewItemHandler(itemService),
		Speech:  handler.NewSpeechHandler(speechService),
		Chat:    handler.NewChatHandler(questionService),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
