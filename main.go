package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snaplink/internal/cache"
	"snaplink/internal/config"
	"snaplink/internal/controllers"
	"snaplink/internal/database"
	"snaplink/internal/geoip"
	"snaplink/internal/middleware"
	"snaplink/internal/repository"
	"snaplink/internal/server"
	"snaplink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// reapInterval bounds how long an expired row can stay visible to the store.
const reapInterval = time.Minute

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "snaplink").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go signalHandler(ctx, cancel, log)

	// Load configuration
	cfg := config.Load()

	// Connect to database and run migrations
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database ready")

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
			cacheClient = nil
		} else {
			log.Info().Msg("connected to Redis cache")
		}
	}

	// Initialize geolocation (optional - resolve everything to Unknown without it)
	locator := geoip.NewNoopLocator()
	if cfg.GeoIPDBPath != "" {
		locator, err = geoip.NewMaxMindLocator(cfg.GeoIPDBPath)
		if err != nil {
			log.Warn().Err(err).Msg("GeoIP database unavailable, locations will be Unknown")
			locator = geoip.NewNoopLocator()
		}
	}
	defer locator.Close()

	// Initialize repository and service
	linkRepo := repository.NewLinkRepository(db)
	linkService := service.NewLinkService(linkRepo, cacheClient, locator, log)

	// Initialize controllers
	shortenerController := controllers.NewShortenerController(linkService, cfg.BaseURL)
	qrcodeController := controllers.NewQRCodeController(cfg.BaseURL)

	// Background reaper for expired links
	go runReaper(ctx, linkRepo, log)

	// Initialize rate limiters
	apiRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	redirectRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRedirectRPS), cfg.RateLimitRedirectBurst)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// Forwarded headers are recorded on clicks but never trusted for identity
	_ = router.SetTrustedProxies(nil)
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	router.GET("/health", controllers.HealthCheck)

	router.POST("/shorturls", apiRateLimiter.LimitMiddleware(), shortenerController.CreateShortLink)
	router.GET("/shorturls/:shortcode", apiRateLimiter.LimitMiddleware(), shortenerController.GetLinkStats)
	router.GET("/qrcode/:shortcode", apiRateLimiter.LimitMiddleware(), qrcodeController.GenerateQRCode)

	// Redirect endpoint with more lenient rate limiting
	router.GET("/:shortcode", redirectRateLimiter.LimitMiddleware(), shortenerController.RedirectToURL)

	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := server.Run(ctx, addr, router, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}

	log.Info().Msg("application stopped")
}

// runReaper periodically deletes links past their expiry so reads never see
// them for longer than one interval.
func runReaper(ctx context.Context, repo repository.LinkRepository, log zerolog.Logger) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("failed to reap expired links")
				continue
			}
			if removed > 0 {
				log.Info().Int64("removed", removed).Msg("reaped expired links")
			}
		}
	}
}

// signalHandler cancels the root context on SIGINT/SIGTERM
func signalHandler(ctx context.Context, cancel context.CancelFunc, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}
}
