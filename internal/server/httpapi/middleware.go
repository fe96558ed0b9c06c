package httpapi

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// statusRecorder captures the status code and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Logging logs one line per request.
func Logging(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"size", wrapped.size,
				"duration", time.Since(start),
			)
		})
	}
}

// Recovery turns a panic into a 500 JSON response.
func Recovery(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error(r.Context(), "panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"method", r.Method,
						"path", r.URL.Path,
					)
					writeResult(w, http.StatusInternalServerError, false, common.ErrInternal.Error())
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Sessions loads the caller's session from the cookie into the request
// context. A missing or unknown cookie yields a fresh anonymous session.
func Sessions(store session.Store, cookie CookieConfig, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookie.Name); err == nil {
				id = c.Value
			}

			sess, err := store.Load(r.Context(), id)
			if err != nil {
				logger.Error(r.Context(), "session load failed", "error", err)
				writeResult(w, http.StatusInternalServerError, false, common.ErrInternal.Error())
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session loaded by Sessions, or a fresh one when the
// middleware did not run.
func SessionFrom(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(sessionContextKey).(*session.Session); ok {
		return sess
	}
	return session.New()
}

// SessionRefresher re-validates an authenticated session against storage.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, sess *session.Session) error
}

// RequireLogin rejects anonymous sessions with 401. Authenticated sessions
// are refreshed first, so a deleted user is logged out and a renamed one
// sees the new name.
func RequireLogin(auth SessionRefresher, store session.Store, cookie CookieConfig, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := SessionFrom(ctx)
			if !sess.Authenticated() {
				writeResult(w, http.StatusUnauthorized, false, "login required")
				return
			}

			err := auth.RefreshSession(ctx, sess)
			if err != nil && !errors.Is(err, common.ErrUnauthorized) {
				logger.Error(ctx, "session refresh failed", "error", err)
				writeResult(w, http.StatusInternalServerError, false, common.ErrInternal.Error())
				return
			}

			if perr := persistSession(ctx, w, store, cookie, sess); perr != nil {
				logger.Error(ctx, "session save failed", "error", perr)
				writeResult(w, http.StatusInternalServerError, false, common.ErrInternal.Error())
				return
			}

			if err != nil {
				writeResult(w, http.StatusUnauthorized, false, "login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
