// Package middleware holds the HTTP middlewares specific to the order form.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxSession ctxKey = "session_id"
	ctxTheme   ctxKey = "pref_theme"
)

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session makes sure every request carries a session id, issuing a random one
// in a cookie when the client has none or sends garbage.
func Session(opts SessionOptions) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "bdc_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(opts.CookieName); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
			}
			// sliding expiry, refreshed on every request
			http.SetCookie(w, &http.Cookie{
				Name:     opts.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// WithSessionID stores id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxSession, id)
}

// SessionID returns the session id of the request, or "" outside the Session middleware.
func SessionID(r *http.Request) string {
	if v, ok := r.Context().Value(ctxSession).(string); ok {
		return v
	}
	return ""
}
