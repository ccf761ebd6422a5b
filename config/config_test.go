package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/map-gateway/config"
	"github.com/angeloszaimis/map-gateway/internal/apiurl"
)

var envKeys = []string{
	"MODE",
	"VITE_BACKEND_API_URL",
	"VITE_DOWNLOAD_API_URL",
	"BACKEND_API_URL",
	"DOWNLOAD_API_URL",
	"UPSTREAMS_STRATEGY",
	"LOGGING_LEVEL",
	"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
}

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
}

func writeFile(dir, name, content string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)).To(Succeed())
}

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		for _, k := range envKeys {
			os.Unsetenv(k)
		}

		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
		for _, k := range envKeys {
			os.Unsetenv(k)
		}
	})

	Describe("Load", func() {
		Context("without a config file", func() {
			It("should use defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Mode).To(Equal("development"))
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Upstreams.Strategy).To(Equal(config.StrategyRoundRobin))
				Expect(cfg.Upstreams.Backend).To(Equal([]string{"http://localhost:8000"}))
				Expect(cfg.Upstreams.Download).To(Equal([]string{"http://localhost:8001"}))
				Expect(cfg.Upstreams.DownloadPrefixes).To(Equal([]string{"/api/shapefiles/"}))
				Expect(cfg.HealthCheck.Path).To(Equal("/health"))
			})

			It("should leave API overrides unset", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.API.BackendURL).To(BeNil())
				Expect(cfg.API.DownloadURL).To(BeNil())
				Expect(cfg.Overrides()).To(BeEmpty())
			})

			It("should resolve localhost base URLs in development", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.APIConfig()).To(Equal(apiurl.Config{
					Backend:  "http://localhost:8000",
					Download: "http://localhost:8001",
				}))
			})
		})

		Context("with environment variables", func() {
			It("should read overrides in production", func() {
				setenv("MODE", "production")
				setenv("VITE_BACKEND_API_URL", "https://api.example.com")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Mode).To(Equal("production"))
				Expect(cfg.API.BackendURL).NotTo(BeNil())
				Expect(*cfg.API.BackendURL).To(Equal("https://api.example.com"))
				Expect(cfg.APIConfig()).To(Equal(apiurl.Config{Backend: "https://api.example.com"}))
			})

			It("should treat an empty override as present", func() {
				setenv("MODE", "production")
				setenv("VITE_DOWNLOAD_API_URL", "")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Overrides()).To(HaveKeyWithValue(apiurl.ServiceDownload, ""))
			})

			It("should split comma separated upstream lists", func() {
				setenv("BACKEND_API_URL", "http://10.0.0.1:8000,http://10.0.0.2:8000")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.UpstreamURLs(apiurl.ServiceBackend)).To(Equal([]string{
					"http://10.0.0.1:8000",
					"http://10.0.0.2:8000",
				}))
			})

			It("should reject an unknown strategy", func() {
				setenv("UPSTREAMS_STRATEGY", "consistent_hash")

				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should treat an empty mode as non-development", func() {
				setenv("MODE", "")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Mode).To(BeEmpty())
				Expect(cfg.APIConfig()).To(Equal(apiurl.Config{}))
			})

			It("should read the OTLP endpoint", func() {
				setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Tracing.Endpoint).To(Equal("http://collector:4318"))
			})

			It("should reject an OTLP endpoint that is not an http URL", func() {
				setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "collector:4318")

				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject an override that is not an http URL", func() {
				setenv("MODE", "production")
				setenv("VITE_BACKEND_API_URL", "ftp://files.example.com")

				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with dotenv files", func() {
			It("should read overrides for the active mode", func() {
				setenv("MODE", "production")
				writeFile(tempDir, ".env.production", "VITE_DOWNLOAD_API_URL=https://dl.example.com\n")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.APIConfig().Download).To(Equal("https://dl.example.com"))
			})

			It("should let the process environment win", func() {
				setenv("MODE", "production")
				setenv("VITE_BACKEND_API_URL", "https://env.example.com")
				writeFile(tempDir, ".env", "VITE_BACKEND_API_URL=https://file.example.com\n")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.APIConfig().Backend).To(Equal("https://env.example.com"))
			})
		})

		Context("with a config file", func() {
			BeforeEach(func() {
				writeFile(tempDir, "config.yaml", `
mode: "production"

server:
  address: ":9090"
  static_dir: "dist"

api:
  backend_url: "https://api.example.com"

upstreams:
  backend:
    - "http://backend-1:8000"
    - "http://backend-2:8000"
  download:
    - "http://download:8001"
  strategy: "least-conn"

health_check:
  interval: "10s"

logging:
  level: "debug"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":9090"))
				Expect(cfg.Server.StaticDir).To(Equal("dist"))
				Expect(cfg.Upstreams.Backend).To(HaveLen(2))
				Expect(cfg.Upstreams.Strategy).To(Equal(config.StrategyLeastConn))
				Expect(cfg.HealthCheck.Interval).To(Equal("10s"))
				Expect(cfg.Logging.Level).To(Equal("debug"))
			})

			It("should resolve the configured override", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.APIConfig()).To(Equal(apiurl.Config{Backend: "https://api.example.com"}))
			})

			It("should let the environment override the file", func() {
				setenv("VITE_BACKEND_API_URL", "https://other.example.com")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.APIConfig().Backend).To(Equal("https://other.example.com"))
			})
		})
	})

	Describe("LoadDotenv", func() {
		It("should load files in priority order", func() {
			writeFile(tempDir, ".env", "VITE_BACKEND_API_URL=https://base.example.com\nVITE_DOWNLOAD_API_URL=https://base-dl.example.com\n")
			writeFile(tempDir, ".env.staging", "VITE_BACKEND_API_URL=https://staging.example.com\n")

			files, err := config.LoadDotenv(tempDir, "staging")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(Equal([]string{
				filepath.Join(tempDir, ".env.staging"),
				filepath.Join(tempDir, ".env"),
			}))
			Expect(os.Getenv("VITE_BACKEND_API_URL")).To(Equal("https://staging.example.com"))
			Expect(os.Getenv("VITE_DOWNLOAD_API_URL")).To(Equal("https://base-dl.example.com"))
		})

		It("should skip .env.local in test mode", func() {
			writeFile(tempDir, ".env.local", "VITE_BACKEND_API_URL=https://local.example.com\n")

			files, err := config.LoadDotenv(tempDir, "test")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(BeEmpty())
			Expect(os.Getenv("VITE_BACKEND_API_URL")).To(BeEmpty())
		})

		It("should only read the shared files for an empty mode", func() {
			writeFile(tempDir, ".env", "VITE_BACKEND_API_URL=https://base.example.com\n")

			files, err := config.LoadDotenv(tempDir, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(Equal([]string{filepath.Join(tempDir, ".env")}))
		})

		It("should return nothing when no files exist", func() {
			files, err := config.LoadDotenv(tempDir, "production")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(BeEmpty())
		})
	})
})
