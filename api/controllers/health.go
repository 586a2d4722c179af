package controllers

import (
	"context"
	"net/http"
	"time"

	"userhub-backend/api/responses"
	"userhub-backend/pkg/config"
	"userhub-backend/pkg/db"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/storage/avatars"
)

const readyProbeTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Userhub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the database and avatar store before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, storeP avatars.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Userhub-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if storeP != nil {
			if err := storeP.Ping(ctx); err != nil {
				checks["avatar_store"] = err.Error()
				healthy = false
			} else {
				checks["avatar_store"] = "ok"
			}
		}

		if !healthy {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "checks", checks), "readiness probe failed")
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dependencies unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"checks": checks,
		})
	}
}
