package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sharespace/sharespace-api/internal/config"
	"github.com/sharespace/sharespace-api/internal/domain/admin"
	"github.com/sharespace/sharespace-api/internal/domain/auth"
	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/domain/notify"
	"github.com/sharespace/sharespace-api/internal/domain/search"
	"github.com/sharespace/sharespace-api/internal/domain/unlock"
	"github.com/sharespace/sharespace-api/internal/domain/user"
	"github.com/sharespace/sharespace-api/internal/middleware"
	"github.com/sharespace/sharespace-api/internal/pkg/database"
	"github.com/sharespace/sharespace-api/internal/pkg/gateway"
	"github.com/sharespace/sharespace-api/internal/pkg/imaging"
	"github.com/sharespace/sharespace-api/internal/pkg/jwt"
	"github.com/sharespace/sharespace-api/internal/pkg/logger"
	pkgresponse "github.com/sharespace/sharespace-api/internal/pkg/response"
	"github.com/sharespace/sharespace-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting ShareSpace API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(migrateCtx, db)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- File host ----------
	storageCfg := storage.Config{
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PublicURL: cfg.S3PublicURL,
	}
	var fileStorage storage.Storage
	if storageCfg.Enabled() {
		s3, err := storage.NewS3Storage(context.Background(), storageCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 storage")
		}
		fileStorage = s3
	} else {
		log.Warn().Msg("S3 storage not configured, listing photo uploads disabled")
	}

	// ---------- Realtime ----------
	hub := notify.NewHub(redis)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	listingRepo := listing.NewRepository(db)
	unlockRepo := unlock.NewRepository(db)
	refreshRepo := auth.NewRefreshTokenRepository(db)
	pricingRepo := coin.NewPricingRepository(db)
	ledger := coin.NewLedger(db)

	var pricing coin.PricingStore = pricingRepo
	if redis != nil {
		pricing = coin.NewCachedPricingStore(pricingRepo, redis, cfg.PricingCacheTTL)
	}

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.GatewayBaseURL,
		ClientID:  cfg.GatewayClientID,
		SecretKey: cfg.GatewaySecretKey,
		Timeout:   cfg.GatewayTimeout(),
	})

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, refreshRepo)
	listingService := listing.NewService(listingRepo, unlockRepo, fileStorage, imaging.NewProcessor(imaging.DefaultConfig()))
	searchService := search.NewService(listingRepo, search.NewEngine())
	coinService := coin.NewService(pricing, pricingRepo, ledger, gatewayClient, hub)
	unlockService := unlock.NewService(unlockRepo, listingService, cfg.UnlockCost, hub)
	adminService := admin.NewService(listingService, coinService, userRepo, authService, hub,
		time.Duration(cfg.ListingTTLDays)*24*time.Hour)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	listingHandler := listing.NewHandler(listingService)
	searchHandler := search.NewHandler(searchService)
	coinHandler := coin.NewHandler(coinService)
	webhookHandler := coin.NewWebhookHandler(coinService, cfg.GatewayWebhookSecret)
	unlockHandler := unlock.NewHandler(unlockService)
	adminHandler := admin.NewHandler(adminService)
	notifyHandler := notify.NewHandler(hub, jwtService, cfg.AllowedOrigins)

	// ---------- Workers ----------
	expiryWorker := listing.NewExpiryWorker(listingRepo, cfg.ExpirySweepInterval)
	expiryWorker.Start()
	defer expiryWorker.Stop()

	// ---------- Router ----------
	authMiddleware := middleware.Auth(jwtService)
	optionalAuthMiddleware := middleware.OptionalAuth(jwtService)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket stays outside the compression group
	r.Mount("/ws", notifyHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{
				"status":  "ok",
				"version": "1.0.0",
			})
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Mount("/auth", authHandler.Routes(authMiddleware))
			mountListingRoutes(r, authMiddleware, searchHandler.Search, unlockHandler.Unlock,
				listingHandler.Routes(authMiddleware, optionalAuthMiddleware))
			r.Mount("/unlocks", unlockHandler.Routes(authMiddleware))
			r.Mount("/coins", coinHandler.Routes(authMiddleware))
		})

		r.Mount("/webhooks", webhookHandler.Routes())
		r.Mount("/api/admin", adminHandler.Routes(authMiddleware, middleware.RequireAdmin()))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// mountListingRoutes registers /listings. Search and unlock are registered
// before the listing router so "/search" is never read as a listing id.
func mountListingRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler, searchHandler, unlockHandler http.HandlerFunc, listings http.Handler) {
	r.Route("/listings", func(r chi.Router) {
		r.Get("/search", searchHandler)
		r.With(authMiddleware).Post("/{id}/unlock", unlockHandler)
		r.Mount("/", listings)
	})
}
