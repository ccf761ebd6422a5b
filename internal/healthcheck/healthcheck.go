package healthcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/map-gateway/internal/metrics"
	"github.com/angeloszaimis/map-gateway/internal/upstream"
)

type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Path     string
}

// HealthCheck probes u once immediately and then every cfg.Interval until
// ctx is cancelled. Only 200 OK counts as healthy. collector may be nil.
func HealthCheck(
	ctx context.Context,
	u *upstream.Upstream,
	cfg Config,
	collector *metrics.Collector,
	logger *slog.Logger,
) {
	client := &http.Client{
		Timeout: cfg.Timeout,
	}
	healthURL := u.URL().ResolveReference(&url.URL{Path: cfg.Path}).String()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		healthy := probe(ctx, client, healthURL)
		if ctx.Err() != nil {
			logger.Info("Health check stopped",
				slog.String("upstream", u.URL().String()))
			return
		}

		if u.SetHealthy(healthy) {
			if healthy {
				logger.Info("Upstream is back up",
					slog.String("service", string(u.Service())),
					slog.String("upstream", u.URL().String()))
			} else {
				logger.Warn("Upstream is down",
					slog.String("service", string(u.Service())),
					slog.String("upstream", u.URL().String()))
			}

			collector.Emit(metrics.MetricEvent{
				Type:     metrics.EventHealthChanged,
				Service:  string(u.Service()),
				Upstream: u.URL().String(),
				Healthy:  healthy,
			})
		}

		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("upstream", u.URL().String()))
			return
		case <-ticker.C:
		}
	}
}

func probe(ctx context.Context, client *http.Client, healthURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}

	res, err := client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	return res.StatusCode == http.StatusOK
}
