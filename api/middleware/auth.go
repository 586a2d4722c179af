package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"userhub-backend/api/responses"
	"userhub-backend/internal/users"
	pkgauth "userhub-backend/pkg/auth"
	"userhub-backend/pkg/config"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
)

// IdentityLoader resolves the account referenced by verified token claims.
type IdentityLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
}

// Auth validates the bearer token, loads the referenced account and seeds the
// request context with it. A token whose account no longer exists is treated
// the same as an invalid token.
func Auth(cfg config.JWTConfig, loader IdentityLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
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

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.UserID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			identity, err := loader.FindByID(r.Context(), claims.UserID)
			if err != nil {
				out := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
				if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
					if !errors.Is(err, users.ErrNotFound) {
						out = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load identity")
					}
				}
				responses.WriteError(r.Context(), logg, w, out)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    identity.ID.String(),
					"actor_role": identity.Role.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
