package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ashasetu/ashasetu-backend/api/controllers"
	"github.com/ashasetu/ashasetu-backend/api/middleware"
	"github.com/ashasetu/ashasetu-backend/internal/auth"
	"github.com/ashasetu/ashasetu-backend/pkg/config"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
	"github.com/ashasetu/ashasetu-backend/pkg/metrics"
	pkgredis "github.com/ashasetu/ashasetu-backend/pkg/redis"
)

// Params carries everything the router mounts. Idempotency, Redis and Registry
// are optional; nil disables the matching feature.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Registry    *prometheus.Registry
	AuthService auth.Service
	Gate        middleware.SessionResolver
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)
	if p.Registry != nil {
		r.Use(middleware.Metrics(metrics.NewHTTPMetrics(p.Registry)))
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, metrics.Handler(p.Registry))
	}

	deps := map[string]controllers.Pinger{"db": p.DB}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(p.Idempotency, cfg.Idempotency.TTL, logg)).
			Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(p.Gate, logg))
			r.Get("/me", controllers.ProfileMe(p.AuthService, logg))
			r.Put("/update", controllers.ProfileUpdate(p.AuthService, logg))
			r.Put("/change-password", controllers.ProfileChangePassword(p.AuthService, logg))
		})
	})

	return r
}
