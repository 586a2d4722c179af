package controllers

import (
	"net/http"

	"userhub-backend/api/responses"
	"userhub-backend/api/validators"
	"userhub-backend/internal/accounts"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/pagination"
	"userhub-backend/pkg/storage/avatars"
)

func AdminListUsers(svc accounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListUsers(r.Context(), pagination.Params{Page: page, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AdminGetUser(svc accounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseQueryUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetUser(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

// AdminModifyUser applies a whitelisted partial update to the target account.
// The raw payload is decoded as a map so unknown keys can be dropped silently
// instead of rejected.
func AdminModifyUser(svc accounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseQueryUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload, err := validators.DecodeJSONMap(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.ModifyUser(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

func AdminDeleteUser(svc accounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseQueryUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteUser(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "user deleted")
	}
}

// AdminCreateAdmin reuses the registration decoding, including avatar upload
// and compensating cleanup, but persists the account with the admin role.
func AdminCreateAdmin(svc accounts.AdminService, store avatars.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guard := &uploadGuard{store: store, logg: logg}

		req, err := decodeRegisterRequest(r, store, guard)
		if err != nil {
			guard.Cleanup(r.Context())
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateAdmin(r.Context(), *req)
		if err != nil {
			guard.Cleanup(r.Context())
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		guard.Release()

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
