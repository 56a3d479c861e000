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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/media"
	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/georgemunganga/storefront-backend/internal/modules/order"
	"github.com/georgemunganga/storefront-backend/internal/modules/store"
	"github.com/georgemunganga/storefront-backend/internal/pipeline"
	"github.com/georgemunganga/storefront-backend/internal/pkg/cache"
	"github.com/georgemunganga/storefront-backend/internal/pkg/config"
	"github.com/georgemunganga/storefront-backend/internal/pkg/database"
	"github.com/georgemunganga/storefront-backend/internal/pkg/httpx"
	"github.com/georgemunganga/storefront-backend/internal/pkg/logger"
	"github.com/georgemunganga/storefront-backend/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to database")

	mediaStore, err := media.New(ctx, cfg.Media, log)
	if err != nil {
		return err
	}

	resolver, err := newResolver(cfg.Auth, log)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var catalogCache cache.Catalog = cache.Nop{}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		catalogCache = cache.NewRedis(client, cfg.CatalogCacheTTL, log, m)
		log.Info("catalog cache enabled", zap.Duration("ttl", cfg.CatalogCacheTTL))
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httpx.Logging(log, m))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", healthz(db))
	router.Handle("/metrics", promhttp.Handler())

	storeRepo := store.NewPostgresRepository(db)
	guard := store.NewOwnershipGuard(storeRepo)
	p := pipeline.New(guard, mediaStore, log,
		pipeline.WithMetrics(m),
		pipeline.WithInvalidator(catalogCache))

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(resolver))

		// ── Stores ──────────────────────────────────────────
		store.NewHandler(store.NewService(storeRepo, p, log), log).RegisterRoutes(r)

		// ── Catalog ─────────────────────────────────────────
		catalog.NewHandler(
			catalog.NewProductService(catalog.NewProductRepository(db), p, catalogCache, log),
			catalog.NewBillboardService(catalog.NewBillboardRepository(db), p),
			catalog.NewCategoryService(catalog.NewCategoryRepository(db), p),
			catalog.NewAttributeService(catalog.NewAttributeRepository(db, catalog.KindSize), p),
			catalog.NewAttributeService(catalog.NewAttributeRepository(db, catalog.KindColor), p),
			log,
		).RegisterRoutes(r)

		// ── Orders ──────────────────────────────────────────
		order.NewHandler(order.NewService(order.NewPostgresRepository(db), guard), log).RegisterRoutes(r)
	})

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newResolver prefers an RS256 public key over a shared HS256 secret.
func newResolver(cfg config.AuthConfig, log *zap.Logger) (auth.Resolver, error) {
	if cfg.JWTPublicKey != "" {
		return auth.NewRS256Resolver(cfg.JWTPublicKey, cfg.JWTIssuer, log)
	}
	return auth.NewHS256Resolver(cfg.JWTSecret, cfg.JWTIssuer, log), nil
}

func healthz(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			httpx.Respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
