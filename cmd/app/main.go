package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-miniapp-gateway/internal/common/cache"
	"news-miniapp-gateway/internal/common/config"
	"news-miniapp-gateway/internal/common/logger"
	"news-miniapp-gateway/internal/common/middleware"
	"news-miniapp-gateway/internal/features/catalog"
	catalogHTTP "news-miniapp-gateway/internal/features/catalog/delivery/http"
	"news-miniapp-gateway/internal/features/identity"
	newsHTTP "news-miniapp-gateway/internal/features/news/delivery/http"
	newsService "news-miniapp-gateway/internal/features/news/service"
	profileHTTP "news-miniapp-gateway/internal/features/profile/delivery/http"
	profileService "news-miniapp-gateway/internal/features/profile/service"
	sessionHTTP "news-miniapp-gateway/internal/features/session/delivery/http"
	sessionRepo "news-miniapp-gateway/internal/features/session/repository/redis"
	sessionService "news-miniapp-gateway/internal/features/session/service"
	supportHTTP "news-miniapp-gateway/internal/features/support/delivery/http"
	supportService "news-miniapp-gateway/internal/features/support/service"
	"news-miniapp-gateway/internal/platform/newsapi"
	"news-miniapp-gateway/internal/platform/redis"
)

// @title           News Mini App Gateway API
// @version         1.0
// @description     BFF for the News Telegram Mini App: session bootstrap, onboarding, settings and news views.

// @BasePath  /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Signed Telegram Mini App init data

// @securityDefinitions.apikey SessionID
// @in header
// @name X-Session-ID
// @description Session id returned by /session/bootstrap

const serviceName = "news-miniapp-gateway"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(serviceName, false)
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(serviceName, cfg.Debug)
	logger.Info().
		Str("env", cfg.Env).
		Bool("debug", cfg.Debug).
		Bool("init_data_signed", cfg.Telegram.BotToken != "").
		Bool("dev_fallback", cfg.DevFallback.Enabled).
		Msg("Starting News Mini App gateway")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := redis.Open(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)
	logger.Info().Msg("Cache service initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, cacheService, newsapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger.Component("newsapi")))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Ждем сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupRouter(cfg *config.Config, cacheService *cache.CacheService, backend *newsapi.Client) *gin.Engine {
	httpLog := logger.Component("http")
	cat := catalog.New()

	fallback := sessionService.Fallback{Enabled: cfg.DevFallback.Enabled}
	if fallback.Enabled {
		fallback.Claim = identity.Claim{ID: cfg.DevFallback.TgID, FirstName: cfg.DevFallback.FirstName}
	}

	// Без токена сессии открываются по неподписанным данным (только для разработки)
	var verifier sessionService.Verifier
	if cfg.Telegram.BotToken != "" {
		verifier = identity.SignatureVerifier{BotToken: cfg.Telegram.BotToken, TTL: cfg.Telegram.InitDataTTL}
	}

	sessionSvc := sessionService.NewSessionService(
		backend,
		sessionRepo.NewClaimStore(cacheService),
		cfg.Session.TTL,
		fallback,
		verifier,
		logger.Component("session"),
	)
	profileSvc := profileService.NewProfileService(backend, cacheService, cat, logger.Component("profile"))
	newsSvc := newsService.NewNewsService(backend, cacheService, cfg.Session.NewsCacheTTL, cat, logger.Component("news"))
	supportSvc := supportService.NewSupportService(backend, logger.Component("support"))

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(httpLog))
	router.Use(middleware.ErrorHandler(httpLog))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Accept",
		middleware.RequestIDHeader, middleware.SessionIDHeader, middleware.InitDataHeader,
	}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	sessionHTTP.NewSessionHandler(sessionSvc, httpLog).RegisterRoutes(v1)

	views := v1.Group("")
	views.Use(middleware.TelegramIdentity(sessionSvc, middleware.InitDataConfig{
		BotToken: cfg.Telegram.BotToken,
		TTL:      cfg.Telegram.InitDataTTL,
	}, httpLog))
	catalogHTTP.NewCatalogHandler(cat).RegisterRoutes(views)
	profileHTTP.NewProfileHandler(profileSvc, backend, cat, httpLog).RegisterRoutes(views)
	newsHTTP.NewNewsHandler(newsSvc, cat, httpLog).RegisterRoutes(views)
	supportHTTP.NewSupportHandler(supportSvc, httpLog).RegisterRoutes(views)

	setupHealthRoutes(router, cacheService, httpLog)
	return router
}

func setupHealthRoutes(router *gin.Engine, cacheService *cache.CacheService, log zerolog.Logger) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	// Liveness
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Readiness
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := cacheService.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
