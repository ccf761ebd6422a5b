package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/map-gateway/config"
	"github.com/angeloszaimis/map-gateway/internal/apiurl"
	"github.com/angeloszaimis/map-gateway/internal/circuitbreaker"
	"github.com/angeloszaimis/map-gateway/internal/handler"
	"github.com/angeloszaimis/map-gateway/internal/healthcheck"
	"github.com/angeloszaimis/map-gateway/internal/httpserver"
	"github.com/angeloszaimis/map-gateway/internal/metrics"
	"github.com/angeloszaimis/map-gateway/internal/pool"
	"github.com/angeloszaimis/map-gateway/internal/strategy"
	"github.com/angeloszaimis/map-gateway/internal/tracing"
	"github.com/angeloszaimis/map-gateway/internal/upstream"
	"github.com/angeloszaimis/map-gateway/pkg/logger"
)

const serviceName = "community-arctic-map"

var errNoUpstreams = errors.New("no valid upstream URLs")

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Mode)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracingEnabled := cfg.Tracing.Endpoint != ""
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.Endpoint, serviceName)
	if err != nil {
		log.Warn("Tracing disabled", slog.Any("err", err))
		tracingEnabled = false
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("Failed to flush traces", slog.Any("err", err))
		}
	}()

	apiCfg := cfg.APIConfig()
	log.Info("Resolved API base URLs",
		slog.String("backend", apiCfg.Backend),
		slog.String("download", apiCfg.Download))

	exporter := metrics.NewExporter()
	collector := metrics.NewCollector(cfg.Metrics.BufferSize, exporter, log)
	collector.Start(ctx)

	breakers := newBreakerRegistry(cfg, collector, log)

	pools, err := buildPools(ctx, cfg, breakers, collector, log)
	if err != nil {
		log.Error("Failed to initialize upstreams", slog.Any("err", err))
		os.Exit(1)
	}

	gateway := handler.NewGatewayHandler(log, pools, cfg.Upstreams.DownloadPrefixes, collector)
	router := setupRouter(log, routes{
		gateway:   gateway,
		apiConfig: apiCfg,
		spa:       handler.NewSPAHandler(cfg.Server.StaticDir, log),
		collector: collector,
		exporter:  exporter,
		strategy:  cfg.Upstreams.Strategy,
		tracing:   tracingEnabled,
	})

	shutdownTimeout, _ := time.ParseDuration(cfg.Server.ShutdownTimeout)
	srv, err := httpserver.New(cfg.Server.Address, router, httpserver.WithShutdownTimeout(shutdownTimeout))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		log.Info("Gateway listening", slog.String("addr", srv.Addr()))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting gateway", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// buildPools creates one pool per service. Every pool gets its own strategy
// instance so selection state is never shared across services.
func buildPools(
	ctx context.Context,
	cfg *config.Config,
	breakers *circuitbreaker.Registry,
	collector *metrics.Collector,
	log *slog.Logger,
) ([]*pool.Pool, error) {
	var pools []*pool.Pool
	for _, service := range apiurl.Services() {
		strat, err := createStrategy(log, cfg.Upstreams.Strategy)
		if err != nil {
			return nil, fmt.Errorf("%s strategy: %w", service, err)
		}

		instances, err := initializeUpstreams(ctx, cfg, service, collector, log)
		if err != nil {
			return nil, fmt.Errorf("%s upstreams: %w", service, err)
		}

		pools = append(pools, pool.New(service, instances, strat, breakers))
	}
	return pools, nil
}

// initializeUpstreams builds the instances of service and starts a health
// check for each. Unparseable URLs are skipped. The initial health of every
// instance is reported so it shows up in metrics before the first change.
func initializeUpstreams(
	ctx context.Context,
	cfg *config.Config,
	service apiurl.Service,
	collector *metrics.Collector,
	log *slog.Logger,
) ([]*upstream.Upstream, error) {
	hcCfg, err := healthCheckConfig(cfg)
	if err != nil {
		return nil, err
	}

	var instances []*upstream.Upstream
	for _, raw := range cfg.UpstreamURLs(service) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			log.Error("Failed to parse upstream URL",
				slog.String("service", string(service)),
				slog.String("url", raw))
			continue
		}

		instance := upstream.New(service, u, log)
		instances = append(instances, instance)
		collector.Emit(metrics.MetricEvent{
			Type:     metrics.EventHealthChanged,
			Service:  string(service),
			Upstream: instance.URL().String(),
			Healthy:  instance.IsHealthy(),
		})
		go healthcheck.HealthCheck(ctx, instance, hcCfg, collector, log)
	}

	if len(instances) == 0 {
		return nil, errNoUpstreams
	}

	return instances, nil
}

func healthCheckConfig(cfg *config.Config) (healthcheck.Config, error) {
	interval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return healthcheck.Config{}, err
	}
	timeout, err := time.ParseDuration(cfg.HealthCheck.Timeout)
	if err != nil {
		return healthcheck.Config{}, err
	}

	return healthcheck.Config{
		Interval: interval,
		Timeout:  timeout,
		Path:     cfg.HealthCheck.Path,
	}, nil
}

func newBreakerRegistry(cfg *config.Config, collector *metrics.Collector, log *slog.Logger) *circuitbreaker.Registry {
	resetTimeout, err := time.ParseDuration(cfg.CircuitBreaker.ResetTimeout)
	if err != nil {
		resetTimeout = 30 * time.Second
	}

	registry := circuitbreaker.NewRegistry(cfg.CircuitBreaker.Threshold, resetTimeout)
	registry.OnChange(func(upstreamURL string, from, to circuitbreaker.State) {
		log.Warn("Circuit breaker changed state",
			slog.String("upstream", upstreamURL),
			slog.String("from", from.String()),
			slog.String("to", to.String()))
		collector.Emit(metrics.MetricEvent{
			Type:         metrics.EventBreakerChanged,
			Upstream:     upstreamURL,
			BreakerState: to.String(),
		})
	})

	return registry
}

func createStrategy(log *slog.Logger, name string) (strategy.Strategy, error) {
	strat, err := strategy.New(name)
	if err != nil {
		log.Warn("Unknown strategy, defaulting to round-robin", slog.String("requested", name))
		return strategy.NewRoundRobinStrategy(), nil
	}
	return strat, nil
}
