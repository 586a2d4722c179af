package controllers

import (
	"net/http"

	"userhub-backend/api/middleware"
	"userhub-backend/api/responses"
	"userhub-backend/api/validators"
	"userhub-backend/internal/accounts"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/storage/avatars"
)

// Register creates an account. Accepts a JSON body or a multipart form with
// an optional avatar file; the stored file is removed again if anything past
// the upload fails.
func Register(svc accounts.Service, store avatars.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guard := &uploadGuard{store: store, logg: logg}

		req, err := decodeRegisterRequest(r, store, guard)
		if err != nil {
			guard.Cleanup(r.Context())
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Register(r.Context(), *req)
		if err != nil {
			guard.Cleanup(r.Context())
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		guard.Release()

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func Login(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body accounts.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetAccount returns the caller's own record, as loaded by the auth gate.
func GetAccount(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		responses.WriteSuccess(w, identity)
	}
}

// UpdateAccount merges the supplied profile fields, handling an optional
// avatar upload with the same compensating cleanup as registration.
func UpdateAccount(svc accounts.Service, store avatars.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		guard := &uploadGuard{store: store, logg: logg}

		req, err := decodeUpdateRequest(r, store, guard)
		if err != nil {
			guard.Cleanup(r.Context())
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateAccount(r.Context(), identity.ID, *req)
		if err != nil {
			guard.Cleanup(r.Context())
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		guard.Release()

		responses.WriteSuccess(w, updated)
	}
}

func ChangePassword(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body accounts.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), identity.ID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "password updated")
	}
}

func DeleteAccount(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body accounts.DeleteAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAccount(r.Context(), identity.ID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "account deleted")
	}
}

func decodeRegisterRequest(r *http.Request, store avatars.Store, guard *uploadGuard) (*accounts.RegisterRequest, error) {
	if !isMultipart(r) {
		var body accounts.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return &body, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "invalid multipart form")
	}

	req := accounts.RegisterRequest{
		Name:     r.FormValue("name"),
		Password: r.FormValue("password"),
		Email:    formValuePtr(r, "email"),
		Phone:    formValuePtr(r, "phone"),
	}

	avatarPath, err := storeAvatarUpload(r, store, guard)
	if err != nil {
		return nil, err
	}
	req.AvatarPath = avatarPath

	return &req, nil
}

func decodeUpdateRequest(r *http.Request, store avatars.Store, guard *uploadGuard) (*accounts.UpdateAccountRequest, error) {
	if !isMultipart(r) {
		var body accounts.UpdateAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return &body, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "invalid multipart form")
	}

	req := accounts.UpdateAccountRequest{
		Name:  formValuePtr(r, "name"),
		Email: formValuePtr(r, "email"),
		Phone: formValuePtr(r, "phone"),
	}

	avatarPath, err := storeAvatarUpload(r, store, guard)
	if err != nil {
		return nil, err
	}
	req.AvatarPath = avatarPath

	return &req, nil
}
