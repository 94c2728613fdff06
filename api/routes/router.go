package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecomops/logiscan-backend/api/controllers"
	"github.com/ecomops/logiscan-backend/api/middleware"
	"github.com/ecomops/logiscan-backend/internal/auth"
	"github.com/ecomops/logiscan-backend/internal/manifests"
	"github.com/ecomops/logiscan-backend/internal/provisioning"
	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/internal/users"
	"github.com/ecomops/logiscan-backend/internal/warehouses"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db"
	"github.com/ecomops/logiscan-backend/pkg/logger"
	"github.com/ecomops/logiscan-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config              *config.Config
	Logger              *logger.Logger
	DB                  db.Pinger
	Redis               *redis.Client
	Registry            *prometheus.Registry
	AuthService         auth.Service
	UserRepo            *users.Repository
	ManifestService     manifests.Service
	ScanService         scans.Service
	WarehouseService    warehouses.Service
	ProvisioningService provisioning.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(p.AuthService, logg))
			r.Get("/me", controllers.AuthMe(p.UserRepo, logg))
		})
	})

	if !cfg.App.IsProd() {
		r.Post("/api/admin/v1/tenants", controllers.TenantProvision(p.ProvisioningService, cfg, logg))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/manifests", func(r chi.Router) {
			r.Post("/start", controllers.ManifestStart(p.ManifestService, logg))
			r.Get("/", controllers.ManifestList(p.ManifestService, logg))
			r.Route("/{manifestID}", func(r chi.Router) {
				r.Get("/", controllers.ManifestGet(p.ManifestService, logg))
				r.Post("/close", controllers.ManifestClose(p.ManifestService, logg))
				r.Get("/export.csv", controllers.ManifestExportCSV(p.ManifestService, p.ScanService, logg))
			})
		})

		r.Route("/scan-events", func(r chi.Router) {
			r.Post("/bulk", controllers.ScanBulkIngest(p.ScanService, logg))
			r.Get("/", controllers.ScanEventList(p.ScanService, logg))
			r.Get("/me", controllers.ScanEventListMine(p.ScanService, logg))
			r.Get("/{eventID}", controllers.ScanEventGet(p.ScanService, logg))
		})

		r.Route("/scans/batch", func(r chi.Router) {
			r.Post("/", controllers.ScanBatch(p.ScanService, logg))
			r.Get("/{batchID}", controllers.ScanBatchStatus(p.ScanService, logg))
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Post("/", controllers.WarehouseCreate(p.WarehouseService, logg))
			r.Get("/", controllers.WarehouseList(p.WarehouseService, logg))
			r.Get("/{warehouseID}", controllers.WarehouseGet(p.WarehouseService, logg))
		})
	})

	return r
}
