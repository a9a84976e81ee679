package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Yashop965/CamPass/api/controllers"
	"github.com/Yashop965/CamPass/api/middleware"
	"github.com/Yashop965/CamPass/internal/auth"
	"github.com/Yashop965/CamPass/internal/gate"
	"github.com/Yashop965/CamPass/internal/locations"
	"github.com/Yashop965/CamPass/internal/passes"
	"github.com/Yashop965/CamPass/internal/sos"
	"github.com/Yashop965/CamPass/internal/users"
	"github.com/Yashop965/CamPass/pkg/config"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/Yashop965/CamPass/pkg/redis"
)

// Services bundles the wired domain services the router exposes.
type Services struct {
	Auth      auth.Service
	Users     users.Service
	Passes    passes.Service
	Gate      gate.Service
	Locations locations.Service
	SOS       sos.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	pubsubP controllers.Pinger,
	svcs Services,
) http.Handler {
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
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, pubsubP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/me", controllers.UserProfile(svcs.Users, logg))
			r.Post("/me/device-token", controllers.RegisterDeviceToken(svcs.Users, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleParent), logg))
				r.Post("/link-student", controllers.LinkStudent(svcs.Users, logg))
				r.Get("/children", controllers.Children(svcs.Users, logg))
			})
		})

		r.Route("/v1/passes", func(r chi.Router) {
			r.Post("/", controllers.PassCreate(svcs.Passes, logg))
			r.Get("/", controllers.PassList(svcs.Passes, logg))

			r.With(middleware.RequireRole(string(enums.RoleParent), logg)).
				Get("/pending", controllers.PassPendingForParent(svcs.Passes, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole([]string{string(enums.RoleWarden), string(enums.RoleAdmin)}, logg))
				r.Get("/review-queue", controllers.PassReviewQueue(svcs.Passes, logg))
				r.Get("/history", controllers.PassHistory(svcs.Passes, logg))
			})

			r.Route("/{passId}", func(r chi.Router) {
				r.Get("/", controllers.PassDetail(svcs.Passes, logg))
				r.Post("/approve", controllers.PassApprove(svcs.Passes, logg))
				r.Post("/reject", controllers.PassReject(svcs.Passes, logg))
			})
		})

		r.Route("/v1/gate", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleGuard), logg))
			r.Post("/scan", controllers.GateScan(svcs.Gate, logg))
		})

		r.Route("/v1/locations", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.RoleStudent), logg)).
				Post("/", controllers.LocationRecord(svcs.Locations, logg))
			r.Get("/{studentId}/latest", controllers.LocationLatest(svcs.Locations, logg))
			r.Get("/{studentId}/history", controllers.LocationHistory(svcs.Locations, logg))
		})

		r.Route("/v1/sos", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.RoleStudent), logg)).
				Post("/", controllers.SOSTrigger(svcs.SOS, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole([]string{string(enums.RoleWarden), string(enums.RoleAdmin)}, logg))
				r.Get("/active", controllers.SOSActiveList(svcs.SOS, logg))
				r.Post("/{alertId}/resolve", controllers.SOSResolve(svcs.SOS, logg))
			})
		})
	})

	return r
}
