package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bagaspradana/tokoadmin-backend/api/routes"
	"github.com/bagaspradana/tokoadmin-backend/internal/auth"
	"github.com/bagaspradana/tokoadmin-backend/internal/catalog"
	"github.com/bagaspradana/tokoadmin-backend/internal/dashboard"
	"github.com/bagaspradana/tokoadmin-backend/internal/media"
	"github.com/bagaspradana/tokoadmin-backend/internal/orders"
	product "github.com/bagaspradana/tokoadmin-backend/internal/products"
	"github.com/bagaspradana/tokoadmin-backend/internal/users"
	"github.com/bagaspradana/tokoadmin-backend/pkg/auth/session"
	"github.com/bagaspradana/tokoadmin-backend/pkg/config"
	"github.com/bagaspradana/tokoadmin-backend/pkg/db"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/metrics"
	"github.com/bagaspradana/tokoadmin-backend/pkg/migrate"
	"github.com/bagaspradana/tokoadmin-backend/pkg/pubsub"
	"github.com/bagaspradana/tokoadmin-backend/pkg/redis"
	"github.com/bagaspradana/tokoadmin-backend/pkg/storage/gcs"
)

const shutdownGrace = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "gcs", err)
	defer gcsClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	deletions, err := media.NewPubSubDeletionPublisher(pubsubClient.ImageDeletionPublisher(), logg)
	requireResource(ctx, logg, "image deletion publisher", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	lqMetrics := metrics.NewLiveQueryMetrics(promReg)
	notifier := livequery.NewRedisNotifier(redisClient)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Limiter:        redisClient,
		JWTConfig:      cfg.JWT,
		RateLimit:      cfg.AuthRateLimit,
	})
	requireResource(ctx, logg, "auth service", err)

	newCatalog := func(collection catalog.Collection) catalog.Service {
		repo, err := catalog.NewRepository(dbClient.DB(), collection)
		requireResource(ctx, logg, collection.Name+" repository", err)
		svc, err := catalog.NewService(repo, gcsClient, deletions, redisClient, notifier, lqMetrics, logg)
		requireResource(ctx, logg, collection.Name+" service", err)
		return svc
	}
	bannerService := newCatalog(catalog.Banners)
	brandService := newCatalog(catalog.Brands)
	categoryService := newCatalog(catalog.Categories)

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(productRepo, gcsClient, deletions, redisClient, notifier, lqMetrics, logg)
	requireResource(ctx, logg, "product service", err)

	orderRepo := orders.NewRepository(dbClient.DB())
	orderService, err := orders.NewService(orderRepo, redisClient, notifier, lqMetrics, logg)
	requireResource(ctx, logg, "order service", err)

	brandRepo, err := catalog.NewRepository(dbClient.DB(), catalog.Brands)
	requireResource(ctx, logg, "brand repository", err)
	categoryRepo, err := catalog.NewRepository(dbClient.DB(), catalog.Categories)
	requireResource(ctx, logg, "category repository", err)

	dashboardService, err := dashboard.NewService(
		productRepo,
		brandRepo,
		categoryRepo,
		orderRepo,
		redisClient,
		notifier,
		logg,
		dashboard.Options{
			CountCacheTTL: cfg.Dashboard.CountCacheTTL,
			RecentOrders:  cfg.Dashboard.RecentOrders,
			RevenueDays:   cfg.Dashboard.RevenueDays,
		},
	)
	requireResource(ctx, logg, "dashboard service", err)

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, gcsClient, sessionManager, routes.Services{
		Auth:       authService,
		Banners:    bannerService,
		Brands:     brandService,
		Categories: categoryService,
		Products:   productService,
		Orders:     orderService,
		Dashboard:  dashboardService,
	}, promReg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
