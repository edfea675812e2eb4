package middleware

import (
	"net/http"
	"strings"

	"github.com/vikramshaw/shopora-backend/api/responses"
	pkgAuth "github.com/vikramshaw/shopora-backend/pkg/auth"
	"github.com/vikramshaw/shopora-backend/pkg/config"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// authenticated user id. When JWT auth is disabled in config the middleware
// passes requests through untouched and handlers trust the userId in the
// request itself.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
