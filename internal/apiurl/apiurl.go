package apiurl

import (
	"os"
	"sync"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// IsDevelopment reports whether m selects the localhost defaults.
func (m Mode) IsDevelopment() bool {
	return m == ModeDevelopment
}

type Service string

const (
	ServiceBackend  Service = "backend"
	ServiceDownload Service = "download"
)

const (
	DevelopmentBackendURL  = "http://localhost:8000"
	DevelopmentDownloadURL = "http://localhost:8001"
)

const (
	EnvMode        = "MODE"
	EnvBackendURL  = "VITE_BACKEND_API_URL"
	EnvDownloadURL = "VITE_DOWNLOAD_API_URL"
)

// Services returns every known service in a stable order.
func Services() []Service {
	return []Service{ServiceBackend, ServiceDownload}
}

// ParseService maps a selector to a Service. Anything other than exactly
// "download" selects the backend.
func ParseService(s string) Service {
	if s == string(ServiceDownload) {
		return ServiceDownload
	}
	return ServiceBackend
}

// Overrides holds externally supplied base URLs. A key that is present
// counts as supplied even when its value is empty.
type Overrides map[Service]string

// OverridesFromLookup reads the VITE_* variables through lookup, which has
// the shape of os.LookupEnv.
func OverridesFromLookup(lookup func(string) (string, bool)) Overrides {
	overrides := make(Overrides, 2)

	if v, ok := lookup(EnvBackendURL); ok {
		overrides[ServiceBackend] = v
	}
	if v, ok := lookup(EnvDownloadURL); ok {
		overrides[ServiceDownload] = v
	}

	return overrides
}

// Config is the resolved record of base URLs. An empty field means
// "no base URL, build relative paths".
type Config struct {
	Backend  string `json:"backend"`
	Download string `json:"download"`
}

// Resolve selects the base URL of every service for the given mode.
func Resolve(mode Mode, overrides Overrides) Config {
	if mode.IsDevelopment() {
		return Config{
			Backend:  DevelopmentBackendURL,
			Download: DevelopmentDownloadURL,
		}
	}

	// A missing key yields "", which is the relative-URL fallback.
	return Config{
		Backend:  overrides[ServiceBackend],
		Download: overrides[ServiceDownload],
	}
}

var fromEnv = sync.OnceValue(func() Config {
	return Resolve(Mode(os.Getenv(EnvMode)), OverridesFromLookup(os.LookupEnv))
})

// FromEnv resolves the record from the process environment on first use
// and returns the same record for the lifetime of the process.
func FromEnv() Config {
	return fromEnv()
}

// Base returns the base URL of service. Unknown services get the backend
// base URL.
func (c Config) Base(service Service) string {
	if service == ServiceDownload {
		return c.Download
	}
	return c.Backend
}

// ServiceURL joins the base URL of service with path. The path is expected
// to start with "/" and the base URL to have no trailing "/"; neither is
// checked. With an empty base URL the path is returned unchanged.
func (c Config) ServiceURL(path string, service Service) string {
	base := c.Base(service)
	if base == "" {
		return path
	}
	return base + path
}

// URL joins the backend base URL with path.
func (c Config) URL(path string) string {
	return c.ServiceURL(path, ServiceBackend)
}
