package middleware

import (
	"context"
	"net/http"
)

var themes = map[string]bool{"light": true, "dark": true, "system": true}

// Prefs extracts the theme preference (query > cookie) and stores it in context.
// A query-provided theme is persisted in a cookie for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		theme := "system"
		if c, err := r.Cookie("theme"); err == nil && themes[c.Value] {
			theme = c.Value
		}
		if qt := r.URL.Query().Get("theme"); themes[qt] {
			theme = qt
			http.SetCookie(w, &http.Cookie{Name: "theme", Value: theme, Path: "/", MaxAge: 86400 * 30, SameSite: http.SameSiteLaxMode})
		}
		ctx := context.WithValue(r.Context(), ctxTheme, theme)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ThemeFrom returns theme preference from context or fallback.
func ThemeFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxTheme).(string); ok && v != "" {
		return v
	}
	return "system"
}
