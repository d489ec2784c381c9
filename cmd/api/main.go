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

	"github.com/luminaria/luminaria-api/internal/config"
	"github.com/luminaria/luminaria-api/internal/domain/conversion"
	"github.com/luminaria/luminaria-api/internal/domain/ledger"
	"github.com/luminaria/luminaria-api/internal/domain/marketplace"
	"github.com/luminaria/luminaria-api/internal/domain/transfer"
	"github.com/luminaria/luminaria-api/internal/domain/user"
	"github.com/luminaria/luminaria-api/internal/middleware"
	"github.com/luminaria/luminaria-api/internal/pkg/database"
	"github.com/luminaria/luminaria-api/internal/pkg/events"
	"github.com/luminaria/luminaria-api/internal/pkg/jwt"
	"github.com/luminaria/luminaria-api/internal/pkg/logger"
	"github.com/luminaria/luminaria-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Luminaria API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	publisher := events.NewPublisher(rdb)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	marketplaceRepo := marketplace.NewRepository(db)
	conversionRepo := conversion.NewRepository(db)

	// ---------- Services ----------
	taxonomy := ledger.DefaultTaxonomy()
	if cfg.TransactionTaxonomy != "" {
		taxonomy = ledger.ParseTaxonomy(cfg.TransactionTaxonomy)
	}
	ledgerService := ledger.NewService(ledgerRepo, taxonomy)
	userService := user.NewService(userRepo, ledgerService, jwtService, cfg.StartingGrant)
	transferService := transfer.NewService(ledgerService)
	marketplaceService := marketplace.NewService(marketplaceRepo, ledgerService, cfg.MarketplaceCommissionPct)
	conversionService := conversion.NewService(conversionRepo, ledgerService, userRepo, conversion.Config{
		Min:              cfg.ConversionMin,
		Max:              cfg.ConversionMax,
		PayoutMin:        cfg.ConversionPayoutMin,
		PayoutMax:        cfg.ConversionPayoutMax,
		CommissionPct:    cfg.ConversionCommissionPct,
		MinLevel:         cfg.ConversionMinLevel,
		WithdrawalMin:    cfg.WithdrawalMin,
		WithdrawalFeePct: cfg.WithdrawalFeePct,
	})

	// ---------- Handlers ----------
	userHandler := user.NewHandler(userService)
	ledgerHandler := ledger.NewHandler(ledgerService)
	transferHandler := transfer.NewHandler(transferService, publisher)
	marketplaceHandler := marketplace.NewHandler(marketplaceService, publisher)
	conversionHandler := conversion.NewHandler(conversionService, publisher)

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", userHandler.AuthRoutes())
		r.Mount("/users", userHandler.Routes(authMiddleware))
		r.Mount("/wallet", ledgerHandler.Routes(authMiddleware))
		r.Mount("/transfers", transferHandler.Routes(authMiddleware))
		r.Mount("/marketplace", marketplaceHandler.Routes(authMiddleware))
		r.Mount("/conversions", conversionHandler.ConversionRoutes(authMiddleware))
		r.Mount("/withdrawals", conversionHandler.WithdrawalRoutes(authMiddleware))

		r.Route("/admin", func(r chi.Router) {
			r.Mount("/ledger", ledgerHandler.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/users", userHandler.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/", conversionHandler.AdminRoutes(authMiddleware, adminMiddleware))
		})
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
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
