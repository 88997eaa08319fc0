package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bagaspradana/tokoadmin-backend/api/controllers"
	"github.com/bagaspradana/tokoadmin-backend/api/middleware"
	"github.com/bagaspradana/tokoadmin-backend/internal/auth"
	"github.com/bagaspradana/tokoadmin-backend/internal/catalog"
	"github.com/bagaspradana/tokoadmin-backend/internal/dashboard"
	"github.com/bagaspradana/tokoadmin-backend/internal/orders"
	product "github.com/bagaspradana/tokoadmin-backend/internal/products"
	"github.com/bagaspradana/tokoadmin-backend/pkg/auth/session"
	"github.com/bagaspradana/tokoadmin-backend/pkg/config"
	"github.com/bagaspradana/tokoadmin-backend/pkg/db"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/redis"
	"github.com/bagaspradana/tokoadmin-backend/pkg/storage/gcs"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth       auth.Service
	Banners    catalog.Service
	Brands     catalog.Service
	Categories catalog.Service
	Products   product.Service
	Orders     orders.Service
	Dashboard  *dashboard.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	sessions session.Checker,
	svcs Services,
	promReg *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	if promReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
			r.Get("/me", controllers.AuthMe(svcs.Auth, logg))
		})
	})

	pageSize := cfg.LiveQuery.PageSize

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		mountCatalog := func(path string, svc catalog.Service) {
			r.Route(path, func(r chi.Router) {
				r.Get("/", controllers.CatalogList(svc, pageSize, logg))
				r.Get("/watch", controllers.CatalogWatch(svc, pageSize, logg))
				r.Get("/options", controllers.CatalogOptions(svc, logg))
				r.Post("/", controllers.CatalogCreate(svc, logg))
				r.Get("/{entryId}", controllers.CatalogGet(svc, logg))
				r.Patch("/{entryId}", controllers.CatalogUpdate(svc, logg))
				r.Delete("/{entryId}", controllers.CatalogDelete(svc, logg))
			})
		}
		mountCatalog("/banners", svcs.Banners)
		mountCatalog("/brands", svcs.Brands)
		mountCatalog("/categories", svcs.Categories)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, pageSize, logg))
			r.Get("/watch", controllers.ProductWatch(svcs.Products, pageSize, logg))
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(svcs.Products, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svcs.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, pageSize, logg))
			r.Get("/watch", controllers.OrderWatch(svcs.Orders, pageSize, logg))
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Patch("/{orderId}", controllers.OrderUpdate(svcs.Orders, logg))
			r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))
			r.Delete("/{orderId}", controllers.OrderDelete(svcs.Orders, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", controllers.DashboardSummary(svcs.Dashboard, logg))
			r.Get("/watch", controllers.DashboardWatch(svcs.Dashboard, logg))
		})
	})

	return r
}
