package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/angeloszaimis/map-gateway/internal/apiurl"
	"github.com/angeloszaimis/map-gateway/internal/handler"
	"github.com/angeloszaimis/map-gateway/internal/metrics"
	"github.com/angeloszaimis/map-gateway/internal/middleware"
	"github.com/angeloszaimis/map-gateway/internal/tracing"
)

type routes struct {
	gateway   *handler.GatewayHandler
	apiConfig apiurl.Config
	spa       *handler.SPAHandler
	collector *metrics.Collector
	exporter  *metrics.Exporter
	strategy  string
	tracing   bool
}

func setupRouter(log *slog.Logger, rt routes) *chi.Mux {
	r := chi.NewRouter()
	r.Use(tracing.Middleware(rt.tracing, serviceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Logging(log))

	r.Get("/health", handler.HealthHandler(serviceName))
	r.Get("/api-config.json", handler.APIConfigHandler(rt.apiConfig))
	r.Get("/metrics", rt.collector.Handler(rt.strategy))
	r.Handle("/metrics/prometheus", rt.exporter.Handler())

	r.Handle("/api/*", rt.gateway)

	// A nil *SPAHandler must not end up inside the http.Handler interface.
	if rt.spa != nil {
		r.Handle("/*", rt.spa)
	} else {
		r.Handle("/*", handler.FrontendMissingHandler())
	}

	return r
}
