package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/omniguard/internal/server/session"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// persistSession saves a modified session and keeps the cookie in step with
// it, including a new id after login. It must run before the response header
// is written.
func persistSession(ctx context.Context, w http.ResponseWriter, store session.Store, cfg CookieConfig, sess *session.Session) error {
	if !sess.Modified() {
		return nil
	}

	if err := store.Save(ctx, sess); err != nil {
		return err
	}

	c := &http.Cookie{
		Name:     cfg.Name,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if len(sess.Values()) == 0 {
		c.Value = ""
		c.MaxAge = -1
	} else if cfg.MaxAge > 0 {
		c.MaxAge = int(cfg.MaxAge / time.Second)
	}
	http.SetCookie(w, c)
	return nil
}
