package middleware

import (
	"net/http"
	"strings"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/access"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/security"
	appCtx "github.com/baechuer/real-time-ressys/services/user-service/internal/pkg/context"
)

type TokenVerifier interface {
	Verify(token string) (security.Claims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Access enforces the resource-server table. Public paths pass straight through;
// protected ones need Authorization: Bearer <jwt>, whose subject is put in the context.
func Access(policy *access.Policy, verifier TokenVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := policy.Decide(r.URL.Path)
			if decision == access.Public {
				AccessDecisionsTotal.WithLabelValues(decision.String(), "allowed").Inc()
				next.ServeHTTP(w, r)
				return
			}

			raw, err := bearerToken(r)
			if err != nil {
				AccessDecisionsTotal.WithLabelValues(decision.String(), "rejected").Inc()
				writeErr(w, r, err)
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				AccessDecisionsTotal.WithLabelValues(decision.String(), "rejected").Inc()
				writeErr(w, r, err)
				return
			}

			AccessDecisionsTotal.WithLabelValues(decision.String(), "allowed").Inc()
			ctx := appCtx.WithSubject(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", domain.ErrTokenMissing()
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", domain.ErrTokenInvalid()
	}
	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", domain.ErrTokenInvalid()
	}
	return raw, nil
}
