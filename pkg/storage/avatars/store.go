package avatars

import (
	"context"
	"io"
)

// Store abstracts where avatar images live. Save returns an opaque path that
// is persisted on the user record and later handed back to Delete.
type Store interface {
	Save(ctx context.Context, filename string, contents io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// Pinger exposes the health check surface of a store implementation.
type Pinger interface {
	Ping(ctx context.Context) error
}
