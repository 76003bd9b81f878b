// Package app wires the application together: configuration, storage
// backend, HTTP clients, session manager, handlers, middleware, and
// graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/bazarshop/bazar-api/internal/client/catalog"
	"github.com/bazarshop/bazar-api/internal/client/pricing"
	"github.com/bazarshop/bazar-api/internal/domain/product"
	"github.com/bazarshop/bazar-api/internal/handler"
	"github.com/bazarshop/bazar-api/internal/session"
	"github.com/bazarshop/bazar-api/internal/storage"
	"github.com/bazarshop/bazar-api/internal/storage/memstore"
	"github.com/bazarshop/bazar-api/internal/storage/postgres"
	"github.com/bazarshop/bazar-api/internal/storage/redis"
	"github.com/bazarshop/bazar-api/pkg/health"
	"github.com/bazarshop/bazar-api/pkg/httpmiddleware"
)

// pinger is implemented by every storage backend; the readiness probe uses it.
type pinger interface {
	Ping(ctx context.Context) error
}

// dbCatalog serves the product catalog from the seeded products table,
// deferring to the remote/embedded catalog while the table is empty.
type dbCatalog struct {
	db       *postgres.Catalog
	fallback handler.Catalog
}

func (c *dbCatalog) List(ctx context.Context) []product.Product {
	products, err := c.db.List(ctx)
	if err != nil || len(products) == 0 {
		return c.fallback.List(ctx)
	}
	return products
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	// Session storage backend.
	var (
		kv      storage.KV
		kvPing  pinger
		pool    *pgxpool.Pool
		cleanup func()
	)
	switch cfg.Storage {
	case StoragePostgres:
		p, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		cleanup = p.Close
		if err := postgres.RunMigrations(ctx, p); err != nil {
			p.Close()
			return errors.Wrap(err, "run migrations")
		}
		pool = p
		store := postgres.NewKV(p)
		kv, kvPing = store, store
	case StorageRedis:
		store := redis.New(cfg.RedisAddr)
		cleanup = func() { _ = store.Close() }
		kv, kvPing = store, store
	default:
		store := memstore.New()
		kv, kvPing = store, store
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck(cfg.Storage, 5*time.Second, kvPing.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Upstream clients. With postgres storage the seeded products table is
	// the preferred catalog source.
	quotes := pricing.New(cfg.PricingServiceURL, cfg.PricingUserID, cfg.PricingTimeout)

	var products handler.Catalog = catalog.New(cfg.CatalogServiceURL, cfg.PricingTimeout)
	if pool != nil {
		products = &dbCatalog{db: postgres.NewCatalog(pool), fallback: products}
	}

	// Session manager and handlers.
	sessions := session.NewManager(kv, quotes)
	h := handler.New(sessions, products)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Session-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("bazar-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
