// Package server assembles the HTTP router of the order form.
package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/diewo77/bon-de-commande/httpx"
	"github.com/diewo77/bon-de-commande/internal/config"
	"github.com/diewo77/bon-de-commande/internal/handlers"
	"github.com/diewo77/bon-de-commande/internal/middleware"
	"github.com/diewo77/bon-de-commande/internal/observability"
)

// Deps aggregates what the router needs.
type Deps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Metrics *observability.Metrics
	Orders  *handlers.OrderHandler
	Static  fs.FS
}

// NewRouter wires middlewares and routes.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:",
		SSLRedirect:           cfg.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         cfg.App.Dev,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(d.Metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	if d.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(d.Static))))
	}

	// Each export route gets its own per-IP budget.
	limit := func() func(http.Handler) http.Handler {
		if cfg.Export.RateLimit <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		return httprate.LimitByIP(cfg.Export.RateLimit, time.Minute)
	}

	origins := cfg.Server.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
		r.With(limit()).Post("/render", d.Orders.RenderStateless)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionOptions{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.IsProduction(),
		}))
		r.Use(middleware.Prefs)

		r.Get("/", d.Orders.Show)
		r.Post("/form", d.Orders.UpdateHeader)
		r.Post("/form/reset", d.Orders.Reset)
		r.Post("/items", d.Orders.AddItem)
		r.Post("/items/{index}", d.Orders.UpdateItem)
		r.Post("/items/{index}/delete", d.Orders.RemoveItem)
		r.Delete("/items/{index}", d.Orders.RemoveItem)
		r.With(limit()).Get("/export", d.Orders.Export)
	})
	return r
}
