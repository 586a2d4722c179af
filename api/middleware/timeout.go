package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"userhub-backend/api/responses"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
)

// Timeout bounds a handler's wall-clock work. When the budget is exhausted
// the client gets a 504 envelope and any late handler writes are discarded.
// A zero duration disables the middleware.
func Timeout(budget time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if budget <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), budget)
			defer cancel()

			guarded := newGuardedWriter(w)
			done := make(chan struct{})

			go func() {
				defer close(done)
				next.ServeHTTP(guarded, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if guarded.tryClaim() {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeTimeout, "request timed out"))
				}
			}
		})
	}
}

// guardedWriter lets exactly one of the handler goroutine and the timeout
// path write the response. The handler gets a private header map that is
// flushed to the underlying writer on its first write, so a handler that
// keeps mutating headers after the deadline never races the timeout path.
type guardedWriter struct {
	rw          http.ResponseWriter
	header      http.Header
	mu          sync.Mutex
	claimed     bool
	timedOut    bool
	wroteHeader bool
}

func newGuardedWriter(w http.ResponseWriter) *guardedWriter {
	return &guardedWriter{rw: w, header: make(http.Header)}
}

// tryClaim marks the response as taken over by the timeout path.
func (g *guardedWriter) tryClaim() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimed {
		return false
	}
	g.claimed = true
	g.timedOut = true
	return true
}

func (g *guardedWriter) Header() http.Header {
	return g.header
}

func (g *guardedWriter) WriteHeader(status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeHeaderLocked(status)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut {
		return len(b), nil
	}
	if !g.wroteHeader {
		g.writeHeaderLocked(http.StatusOK)
	}
	return g.rw.Write(b)
}

func (g *guardedWriter) writeHeaderLocked(status int) {
	if g.timedOut || g.wroteHeader {
		return
	}
	g.claimed = true
	g.wroteHeader = true
	dst := g.rw.Header()
	for k, v := range g.header {
		dst[k] = v
	}
	g.rw.WriteHeader(status)
}
