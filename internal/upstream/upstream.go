package upstream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/angeloszaimis/map-gateway/internal/apiurl"
	"github.com/angeloszaimis/map-gateway/internal/tracing"
)

// Upstream is one instance of a proxied service.
type Upstream struct {
	service           apiurl.Service
	url               *url.URL
	proxy             *httputil.ReverseProxy
	mutex             sync.Mutex
	isHealthy         bool
	activeConnections int
	ewmaResponseTime  time.Duration
	hasEWMA           bool
}

const ewmaAlpha = 0.2

// New creates an Upstream for service at u. It starts healthy so traffic
// flows before the first health check completes.
func New(service apiurl.Service, u *url.URL, logger *slog.Logger) *Upstream {
	up := &Upstream{
		service:   service,
		url:       u,
		isHealthy: true,
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.Transport = tracing.Transport(nil)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("Upstream request failed",
			slog.String("service", string(service)),
			slog.String("upstream", u.String()),
			slog.String("path", r.URL.Path),
			slog.Any("err", err))
		writeBadGateway(w, service)
	}
	up.proxy = proxy

	return up
}

func writeBadGateway(w http.ResponseWriter, service apiurl.Service) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "upstream unavailable",
		"service": string(service),
	})
}

// ReverseProxy returns the HTTP reverse proxy for this instance.
func (u *Upstream) ReverseProxy() *httputil.ReverseProxy {
	return u.proxy
}

// Service returns the service this instance belongs to.
func (u *Upstream) Service() apiurl.Service {
	return u.service
}

// URL returns the instance URL.
func (u *Upstream) URL() *url.URL {
	return u.url
}

// IncrementConn increments the active connection count.
func (u *Upstream) IncrementConn() {
	u.mutex.Lock()
	u.activeConnections++
	u.mutex.Unlock()
}

// DecrementConn decrements the active connection count.
func (u *Upstream) DecrementConn() {
	u.mutex.Lock()
	if u.activeConnections > 0 {
		u.activeConnections--
	}
	u.mutex.Unlock()
}

// ActiveConnections returns the current number of active connections.
func (u *Upstream) ActiveConnections() int {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.activeConnections
}

// IsHealthy returns true if the instance is currently healthy.
func (u *Upstream) IsHealthy() bool {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.isHealthy
}

// SetHealthy updates the health status.
// Returns true if the status changed.
func (u *Upstream) SetHealthy(healthy bool) (changed bool) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.isHealthy == healthy {
		return false
	}

	u.isHealthy = healthy
	return true
}

// RecordResponse folds duration into the exponentially weighted moving
// average response time.
func (u *Upstream) RecordResponse(duration time.Duration) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if !u.hasEWMA {
		u.ewmaResponseTime = duration
		u.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	u.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(u.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the moving average response time, or 0 before the
// first response.
func (u *Upstream) EWMATime() time.Duration {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if !u.hasEWMA {
		return 0
	}

	return u.ewmaResponseTime
}
