package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/angeloszaimis/map-gateway/internal/apiurl"
	"github.com/angeloszaimis/map-gateway/internal/metrics"
	"github.com/angeloszaimis/map-gateway/internal/middleware"
	"github.com/angeloszaimis/map-gateway/internal/pool"
)

const (
	HeaderUpstreamService = "X-Upstream-Service"
	HeaderUpstreamServer  = "X-Upstream-Server"
)

// GatewayHandler proxies /api requests. Paths under one of the download
// prefixes go to the download service, everything else to the backend.
type GatewayHandler struct {
	logger           *slog.Logger
	pools            map[apiurl.Service]*pool.Pool
	downloadPrefixes []string
	metricsCollector *metrics.Collector
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// NewGatewayHandler builds the handler. There must be a pool for every
// service in apiurl.Services. collector may be nil.
func NewGatewayHandler(logger *slog.Logger, pools []*pool.Pool, downloadPrefixes []string, collector *metrics.Collector) *GatewayHandler {
	byService := make(map[apiurl.Service]*pool.Pool, len(pools))
	for _, p := range pools {
		byService[p.Service()] = p
	}

	return &GatewayHandler{
		logger:           logger,
		pools:            byService,
		downloadPrefixes: downloadPrefixes,
		metricsCollector: collector,
	}
}

// Route returns the service that serves path.
func (h *GatewayHandler) Route(path string) apiurl.Service {
	for _, prefix := range h.downloadPrefixes {
		if strings.HasPrefix(path, prefix) {
			return apiurl.ServiceDownload
		}
	}
	return apiurl.ServiceBackend
}

func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	service := h.Route(r.URL.Path)
	requestID := middleware.GetRequestID(r.Context())

	p, ok := h.pools[service]
	if !ok {
		h.logger.Error("No pool configured", slog.String("service", string(service)))
		writeJSONError(w, http.StatusServiceUnavailable, "no upstream configured", service)
		return
	}

	instance, err := p.Acquire()
	if err != nil {
		h.logger.Warn("No available upstream",
			slog.String("service", string(service)),
			slog.String("request_id", requestID))
		h.metricsCollector.Emit(metrics.MetricEvent{
			Type:    metrics.EventRequestRejected,
			Service: string(service),
		})
		writeJSONError(w, http.StatusServiceUnavailable, "no healthy upstream available", service)
		return
	}
	defer instance.DecrementConn()

	target := instance.URL().String()

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:     metrics.EventRequestReceived,
		Service:  string(service),
		Upstream: target,
	})

	h.logger.Debug("Forwarding to upstream",
		slog.String("request_id", requestID),
		slog.String("service", string(service)),
		slog.String("upstream", target),
		slog.String("path", r.URL.Path))

	w.Header().Set(HeaderUpstreamService, string(service))
	w.Header().Set(HeaderUpstreamServer, target)

	start := time.Now()
	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	instance.ReverseProxy().ServeHTTP(wrapped, r)
	duration := time.Since(start)

	// A client that went away says nothing about the upstream.
	if cb := p.Breaker(instance); cb != nil && r.Context().Err() == nil {
		if wrapped.statusCode >= http.StatusInternalServerError {
			cb.RecordFailure()
		} else {
			cb.RecordSuccess()
		}
	}

	instance.RecordResponse(duration)
	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Service:    string(service),
		Upstream:   target,
		Duration:   duration,
		StatusCode: wrapped.statusCode,
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string, service apiurl.Service) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   msg,
		"service": string(service),
	})
}
