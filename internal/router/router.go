package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/voxscholar/voxscholar/internal/config"
	"github.com/voxscholar/voxscholar/internal/handler"
	"github.com/voxscholar/voxscholar/internal/middleware"
	"github.com/voxscholar/voxscholar/internal/response"
	"github.com/voxscholar/voxscholar/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	System  *handler.SystemHandler
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
	Setting *handler.SettingHandler
	Item    *handler.ItemHandler
	Speech  *handler.SpeechHandler
	Chat    *handler.ChatHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	api := router.Group("/api")

	// ─── Public ────────────────────────────────────────────────────────
	api.GET("/health", handlers.System.Health)
	api.POST("/auth/login", handlers.Auth.Login)

	// ─── Scoped Data (auth optional or required per config) ────────────
	scoped := api.Group("")
	scoped.Use(middleware.ResolveUser(authService, cfg.AuthMode))
	{
		scoped.GET("/last-session", handlers.Session.GetLastSession)
		scoped.POST("/last-session", handlers.Session.SaveLastSession)
		scoped.DELETE("/last-session", handlers.Session.ClearLastSession)

		scoped.GET("/session-history", handlers.Session.GetHistory)
		scoped.POST("/session-history", handlers.Session.ReplaceHistory)

		scoped.GET("/weak-areas", handlers.Session.GetWeakAreas)
		scoped.POST("/weak-areas", handlers.Session.ReplaceWeakAreas)

		scoped.GET("/settings", handlers.Setting.GetSettings)
		scoped.PUT("/settings", handlers.Setting.UpdateSettings)

		// /items/subjects must register before /items/:id.
		scoped.GET("/items/subjects", handlers.Item.Subjects)
		scoped.GET("/items", handlers.Item.ListBySubject)
		scoped.GET("/items/:id", handlers.Item.Get)
		scoped.GET("/items/:id/download", handlers.Item.Download)
		scoped.POST("/items", handlers.Item.Create)
		scoped.PATCH("/items/:id", handlers.Item.Update)
		scoped.DELETE("/items/:id", handlers.Item.Delete)
	}

	// ─── Provider Proxies (rate limited) ───────────────────────────────
	providerLimiter := middleware.NewRateLimiter(30, time.Minute)
	provider := api.Group("")
	provider.Use(
		middleware.ResolveUser(authService, cfg.AuthMode),
		providerLimiter.Middleware(),
	)
	{
		provider.POST("/tts", handlers.Speech.Synthesize)
		provider.POST("/chat", handlers.Chat.Chat)
		provider.POST("/generate-questions", handlers.Chat.GenerateQuestions)
	}

	return router
}
