package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/map-gateway/internal/apiurl"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	StrategyRoundRobin    = "round-robin"
	StrategyRandom        = "random"
	StrategyLeastConn     = "least-conn"
	StrategyLeastResponse = "least-response"
)

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	StaticDir       string `mapstructure:"static_dir"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// APIConfig carries the client-facing base URL overrides. A nil field
// means the override was not supplied at all.
type APIConfig struct {
	BackendURL  *string `mapstructure:"backend_url"`
	DownloadURL *string `mapstructure:"download_url"`
}

type UpstreamsConfig struct {
	Backend          []string `mapstructure:"backend"`
	Download         []string `mapstructure:"download"`
	Strategy         string   `mapstructure:"strategy"`
	DownloadPrefixes []string `mapstructure:"download_prefixes"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval"`
	Path     string `mapstructure:"path"`
	Timeout  string `mapstructure:"timeout"`
}

type CircuitBreakerConfig struct {
	Threshold    int    `mapstructure:"threshold"`
	ResetTimeout string `mapstructure:"reset_timeout"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// TracingConfig enables OTLP trace export when Endpoint is set.
type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type Config struct {
	Mode           string               `mapstructure:"mode"`
	Server         ServerConfig         `mapstructure:"server"`
	API            APIConfig            `mapstructure:"api"`
	Upstreams      UpstreamsConfig      `mapstructure:"upstreams"`
	HealthCheck    HealthCheckConfig    `mapstructure:"health_check"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

// Load resolves the mode, loads the dotenv files for it and then reads
// config.yaml, the environment and defaults, in viper's precedence order.
func Load() (*Config, error) {
	mode, ok := os.LookupEnv(apiurl.EnvMode)
	if !ok {
		mode = string(apiurl.ModeDevelopment)
	}

	files, err := LoadDotenv(".", mode)
	if err != nil {
		slog.Error("failed to load dotenv files", slog.String("error", err.Error()))
		return nil, err
	}
	for _, f := range files {
		slog.Info("loaded dotenv file", slog.String("file", f))
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	cfg.warnTrailingSlash()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(apiurl.ModeDevelopment))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.static_dir", "frontend/dist")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("upstreams.backend", []string{apiurl.DevelopmentBackendURL})
	v.SetDefault("upstreams.download", []string{apiurl.DevelopmentDownloadURL})
	v.SetDefault("upstreams.strategy", StrategyRoundRobin)
	v.SetDefault("upstreams.download_prefixes", []string{"/api/shapefiles/"})
	v.SetDefault("health_check.interval", "2s")
	v.SetDefault("health_check.path", "/health")
	v.SetDefault("health_check.timeout", "5s")
	v.SetDefault("circuit_breaker.threshold", 5)
	v.SetDefault("circuit_breaker.reset_timeout", "30s")
	v.SetDefault("metrics.buffer_size", 1000)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("tracing.endpoint", "")
}

// bindEnv maps keys whose variable names do not follow the key path.
// api.* must never get a default: presence is what selects an override.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"mode":               apiurl.EnvMode,
		"api.backend_url":    apiurl.EnvBackendURL,
		"api.download_url":   apiurl.EnvDownloadURL,
		"upstreams.backend":  "BACKEND_API_URL",
		"upstreams.download": "DOWNLOAD_API_URL",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	if err := v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"); err != nil {
		return fmt.Errorf("bind tracing.endpoint: %w", err)
	}

	return nil
}

// Overrides returns the supplied client-facing base URLs.
func (c *Config) Overrides() apiurl.Overrides {
	overrides := make(apiurl.Overrides, 2)
	if c.API.BackendURL != nil {
		overrides[apiurl.ServiceBackend] = *c.API.BackendURL
	}
	if c.API.DownloadURL != nil {
		overrides[apiurl.ServiceDownload] = *c.API.DownloadURL
	}
	return overrides
}

// APIConfig resolves the base URL record for the configured mode.
func (c *Config) APIConfig() apiurl.Config {
	return apiurl.Resolve(apiurl.Mode(c.Mode), c.Overrides())
}

// UpstreamURLs returns the configured instances of service.
func (c *Config) UpstreamURLs(service apiurl.Service) []string {
	if service == apiurl.ServiceDownload {
		return c.Upstreams.Download
	}
	return c.Upstreams.Backend
}

func (c *Config) warnTrailingSlash() {
	for service, base := range c.Overrides() {
		if strings.HasSuffix(base, "/") {
			slog.Warn("api base URL ends with a slash, joined URLs will contain a double slash",
				slog.String("service", string(service)),
				slog.String("url", base))
		}
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.ShutdownTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.API,
			validation.By(func(value interface{}) error {
				ac, ok := value.(APIConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an APIConfig")
				}
				return validation.ValidateStruct(&ac,
					validation.Field(&ac.BackendURL, validation.By(validateOptionalURL)),
					validation.Field(&ac.DownloadURL, validation.By(validateOptionalURL)),
				)
			}),
		),
		validation.Field(&c.Upstreams,
			validation.Required,
			validation.By(func(value interface{}) error {
				uc, ok := value.(UpstreamsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an UpstreamsConfig")
				}
				return validation.ValidateStruct(&uc,
					validation.Field(&uc.Backend,
						validation.Required,
						validation.Each(validation.By(validateServerURL)),
					),
					validation.Field(&uc.Download,
						validation.Required,
						validation.Each(validation.By(validateServerURL)),
					),
					validation.Field(&uc.Strategy,
						validation.Required,
						validation.In(StrategyRoundRobin, StrategyRandom, StrategyLeastConn, StrategyLeastResponse),
					),
					validation.Field(&uc.DownloadPrefixes,
						validation.Each(validation.By(validatePrefix)),
					),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.Path,
						validation.Required,
						validation.By(validatePrefix),
					),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker,
			validation.Required,
			validation.By(func(value interface{}) error {
				cc, ok := value.(CircuitBreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CircuitBreakerConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.Threshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&cc.ResetTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Tracing,
			validation.By(func(value interface{}) error {
				tc, ok := value.(TracingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a TracingConfig")
				}
				return validation.ValidateStruct(&tc,
					validation.Field(&tc.Endpoint,
						validation.When(tc.Endpoint != "", validation.By(validateServerURL)),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validatePrefix(value interface{}) error {
	prefix, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if !strings.HasPrefix(prefix, "/") {
		return validation.NewError("validation_invalid_path", "must start with /")
	}

	return nil
}

// validateOptionalURL accepts a missing or empty override; anything else
// must be an absolute http(s) URL.
func validateOptionalURL(value interface{}) error {
	ptr, ok := value.(*string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string pointer")
	}

	if ptr == nil || *ptr == "" {
		return nil
	}

	return validateServerURL(*ptr)
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return validation.NewError("validation_empty_url", "server URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
