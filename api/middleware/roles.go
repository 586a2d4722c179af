package middleware

import (
	"net/http"

	"userhub-backend/api/responses"
	"userhub-backend/pkg/enums"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
)

// RequireRole gates a route on the authenticated account's role. A failed
// check is Unauthorized, matching how the API folds role failures into the
// same status as credential failures.
func RequireRole(role enums.UserRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil || identity.Role != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "insufficient privileges"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
