package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"userhub-backend/api/responses"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope so one bad request
// cannot take the process down. The stack goes to the log, never the client.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic": fmt.Sprint(rec),
						"stack": string(debug.Stack()),
					})
					logg.Error(ctx, "handler.panic", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "handler panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
