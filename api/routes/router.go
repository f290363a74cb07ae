package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/licenciapp/licencias-backend/api/controllers"
	"github.com/licenciapp/licencias-backend/api/middleware"
	"github.com/licenciapp/licencias-backend/internal/auth"
	"github.com/licenciapp/licencias-backend/internal/evidence"
	"github.com/licenciapp/licencias-backend/internal/profiles"
	"github.com/licenciapp/licencias-backend/internal/requests"
	"github.com/licenciapp/licencias-backend/pkg/auth/session"
	"github.com/licenciapp/licencias-backend/pkg/config"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	"github.com/licenciapp/licencias-backend/pkg/logger"
	"github.com/licenciapp/licencias-backend/pkg/metrics"
	"github.com/licenciapp/licencias-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Redis          *redis.Client
	HTTPMetrics    *metrics.HTTPMetrics
	SessionChecker session.AccessSessionChecker
	RoleSource     middleware.RoleSource

	AuthService     auth.Service
	ProfileService  profiles.Service
	RequestService  requests.Service
	EvidenceService evidence.Service

	// HealthDeps maps a dependency name to its ping surface.
	HealthDeps map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthDeps))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, deps.RoleSource, logg))

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/me", controllers.ProfileMe(deps.ProfileService, logg))
			r.With(middleware.RequireRole(enums.ActorRoleAdministrador, logg)).
				Patch("/{profileId}/role", controllers.ProfileUpdateRole(deps.ProfileService, logg))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.RequestCreate(deps.RequestService, logg))
			r.Get("/", controllers.RequestList(deps.RequestService, logg))
			r.Get("/radicado/{radicado}", controllers.RequestGetByRadicado(deps.RequestService, logg))
			r.Get("/{requestId}", controllers.RequestGet(deps.RequestService, logg))
			r.Post("/{requestId}/transition", controllers.RequestTransition(deps.RequestService, logg))

			r.Route("/{requestId}/evidence", func(r chi.Router) {
				r.Get("/", controllers.EvidenceList(deps.EvidenceService, logg))
				r.Post("/{documentType}/{itemId}", controllers.EvidencePut(deps.EvidenceService, logg))
				r.Get("/{documentType}/{itemId}", controllers.EvidenceExists(deps.EvidenceService, logg))
				r.Delete("/{documentType}/{itemId}", controllers.EvidenceDelete(deps.EvidenceService, logg))
			})
		})
	})

	return r
}
