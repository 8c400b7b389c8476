package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/bon-de-commande/internal/assets"
	"github.com/diewo77/bon-de-commande/internal/config"
	"github.com/diewo77/bon-de-commande/internal/handlers"
	"github.com/diewo77/bon-de-commande/internal/middleware"
	"github.com/diewo77/bon-de-commande/internal/observability"
	"github.com/diewo77/bon-de-commande/internal/server"
	"github.com/diewo77/bon-de-commande/internal/services"
	"github.com/diewo77/bon-de-commande/view"
	"github.com/diewo77/bon-de-commande/web"
)

// App bundles the long-lived pieces of the server.
type App struct {
	Handler http.Handler
	Store   *services.FormStore
	Metrics *observability.Metrics
}

// NewApp builds services, views and routes from cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store := services.NewFormStore(cfg.Session.TTL)
	metrics := observability.NewMetrics(store.Len)

	orders := services.NewOrderService(store)
	exports := services.NewExportService(logoSource(cfg.Logo),
		services.WithRecorder(metrics),
		services.WithLocation(loc),
	)
	views := view.New(web.Templates(), web.Static(),
		view.WithDev(cfg.App.Dev),
		view.WithThemeResolver(middleware.ThemeFrom),
	)

	handler := server.NewRouter(server.Deps{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		Orders:  handlers.NewOrderHandler(orders, exports, views, logger),
		Static:  web.Static(),
	})
	return &App{Handler: handler, Store: store, Metrics: metrics}, nil
}

// logoSource picks the configured logo: a file, then a URL, then the embedded default.
func logoSource(cfg config.LogoConfig) assets.Source {
	switch {
	case cfg.Path != "":
		return assets.FileSource{Path: cfg.Path}
	case cfg.URL != "":
		return assets.URLSource{
			URL:     cfg.URL,
			Client:  &http.Client{Timeout: cfg.Timeout + time.Second},
			Timeout: cfg.Timeout,
		}
	}
	return assets.BytesSource(web.DefaultLogo())
}
