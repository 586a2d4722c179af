package controllers

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/storage/avatars"
)

const (
	avatarFormField = "avatar"
	maxUploadBytes  = 5 << 20
	maxMultipartMem = 1 << 20
)

// uploadGuard tracks a stored avatar so any failure exit path of the request
// can remove it before the error is written. Release disarms it once the
// record referencing the file is persisted.
type uploadGuard struct {
	store avatars.Store
	logg  *logger.Logger
	path  string
	armed bool
}

func (g *uploadGuard) arm(path string) {
	g.path = path
	g.armed = true
}

// Release hands ownership of the file to the persisted record.
func (g *uploadGuard) Release() {
	g.armed = false
}

// Cleanup deletes the orphaned upload. Best-effort: failures are logged.
func (g *uploadGuard) Cleanup(ctx context.Context) {
	if !g.armed || g.path == "" {
		return
	}
	g.armed = false
	if err := g.store.Delete(ctx, g.path); err != nil && g.logg != nil {
		g.logg.Warn(g.logg.WithField(ctx, "avatar_path", g.path), "failed to delete orphaned upload")
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// storeAvatarUpload saves an uploaded avatar, if any, and arms the guard with
// the stored path. A missing file is not an error.
func storeAvatarUpload(r *http.Request, store avatars.Store, guard *uploadGuard) (*string, error) {
	file, header, err := r.FormFile(avatarFormField)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "invalid avatar upload")
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "avatar exceeds maximum size")
	}

	path, err := store.Save(r.Context(), header.Filename, file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store avatar")
	}

	guard.arm(path)
	return &path, nil
}

func formValuePtr(r *http.Request, field string) *string {
	value := strings.TrimSpace(r.FormValue(field))
	if value == "" {
		return nil
	}
	return &value
}
