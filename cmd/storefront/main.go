package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/storefront-bff-go/internal/config"
	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/handler"
	"github.com/boddenberg/storefront-bff-go/internal/infra/cache"
	"github.com/boddenberg/storefront-bff-go/internal/infra/client"
	"github.com/boddenberg/storefront-bff-go/internal/infra/observability"
	"github.com/boddenberg/storefront-bff-go/internal/infra/resilience"
	"github.com/boddenberg/storefront-bff-go/internal/infra/session"
	"github.com/boddenberg/storefront-bff-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("commerce_api_url", cfg.CommerceAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("session_db_path", cfg.SessionDBPath),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "storefront-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Session store & cache ---
	sessionStore, err := session.Open(cfg.SessionDBPath, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer sessionStore.Close()

	sessionCache := cache.New[*domain.Principal](cfg.CacheTTL)
	defer sessionCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("commerce-api")

	// --- Commerce API client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	commerce := client.New(httpClient, cfg.CommerceAPIURL, cb, resilienceCfg, metrics, logger)

	// --- Services ---
	sessionSvc := service.NewSessionService(sessionStore, sessionCache, metrics, logger)
	cartSvc := service.NewCartService(commerce, sessionSvc, metrics, logger)
	checkoutSvc := service.NewCheckoutService(commerce, cartSvc, sessionSvc, metrics, logger)
	sessionSvc.SetCartDropper(cartSvc)
	sessionSvc.SetCheckoutResetter(checkoutSvc)

	svcs := handler.Services{
		Catalog:  service.NewCatalogService(commerce, commerce, sessionSvc, cfg.RecommendationCount, logger),
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   service.NewOrderService(commerce, sessionSvc, logger),
		Auth:     service.NewAuthService(commerce, sessionSvc, logger),
		Session:  sessionSvc,
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, cfg.CORSAllowedOrigins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
