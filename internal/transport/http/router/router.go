package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/access"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/docs"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/transport/http/response"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type UserHandler interface {
	Current(w http.ResponseWriter, r *http.Request)
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	CheckResetToken(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Users  UserHandler

	Policy   *access.Policy
	Verifier middleware.TokenVerifier

	// nil selects the in-process limiter
	ForgotLimiter middleware.RateLimiter
	ForgotLimit   middleware.FixedWindowConfig

	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("nil Users handler")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("nil access policy")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("nil token verifier")
	}

	r := chi.NewRouter()
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Access(deps.Policy, deps.Verifier, response.WriteError))

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger-ui.html", docs.SwaggerUI)
	r.Get(docs.APIDocsPath, docs.OpenAPI)

	forgotLimit := deps.ForgotLimit
	if forgotLimit.RouteKey == "" {
		forgotLimit.RouteKey = "forgot_password"
	}

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/current", deps.Users.Current)

		r.With(middleware.RateLimitFixedWindow(deps.ForgotLimiter, forgotLimit, response.WriteError)).
			Post("/forgot-password", deps.Users.ForgotPassword)
		r.Get("/check-reset-password-token", deps.Users.CheckResetToken) // ?token=...
		r.Post("/reset-password", deps.Users.ResetPassword)
	})

	return r, nil
}
