package apiurl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/map-gateway/internal/apiurl"
)

var _ = Describe("Resolve", func() {
	Context("in development mode", func() {
		It("should use the localhost defaults", func() {
			cfg := apiurl.Resolve(apiurl.ModeDevelopment, nil)
			Expect(cfg.Backend).To(Equal("http://localhost:8000"))
			Expect(cfg.Download).To(Equal("http://localhost:8001"))
		})

		It("should ignore overrides", func() {
			cfg := apiurl.Resolve(apiurl.ModeDevelopment, apiurl.Overrides{
				apiurl.ServiceBackend:  "https://api.example.com",
				apiurl.ServiceDownload: "https://dl.example.com",
			})
			Expect(cfg).To(Equal(apiurl.Config{
				Backend:  apiurl.DevelopmentBackendURL,
				Download: apiurl.DevelopmentDownloadURL,
			}))
		})
	})

	Context("outside development mode", func() {
		DescribeTable("without overrides every base URL is empty",
			func(mode apiurl.Mode) {
				cfg := apiurl.Resolve(mode, apiurl.Overrides{})
				Expect(cfg.Backend).To(BeEmpty())
				Expect(cfg.Download).To(BeEmpty())
			},
			Entry("production", apiurl.ModeProduction),
			Entry("staging", apiurl.Mode("staging")),
			Entry("test", apiurl.Mode("test")),
			Entry("empty mode", apiurl.Mode("")),
			Entry("mixed case development", apiurl.Mode("Development")),
		)

		It("should use overrides verbatim", func() {
			cfg := apiurl.Resolve(apiurl.ModeProduction, apiurl.Overrides{
				apiurl.ServiceBackend: "https://api.example.com/",
			})
			Expect(cfg.Backend).To(Equal("https://api.example.com/"))
			Expect(cfg.Download).To(BeEmpty())
		})

		It("should keep an explicitly empty override", func() {
			cfg := apiurl.Resolve(apiurl.ModeProduction, apiurl.Overrides{
				apiurl.ServiceDownload: "",
			})
			Expect(cfg.Download).To(BeEmpty())
		})
	})

	It("should be idempotent", func() {
		overrides := apiurl.Overrides{apiurl.ServiceBackend: "https://api.example.com"}
		first := apiurl.Resolve(apiurl.ModeProduction, overrides)
		second := apiurl.Resolve(apiurl.ModeProduction, overrides)
		Expect(first).To(Equal(second))
	})
})

var _ = Describe("OverridesFromLookup", func() {
	It("should only include variables that are present", func() {
		env := map[string]string{apiurl.EnvDownloadURL: ""}
		overrides := apiurl.OverridesFromLookup(func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		})

		Expect(overrides).To(HaveLen(1))
		Expect(overrides).To(HaveKeyWithValue(apiurl.ServiceDownload, ""))
		Expect(overrides).NotTo(HaveKey(apiurl.ServiceBackend))
	})

	It("should map both variables", func() {
		env := map[string]string{
			apiurl.EnvBackendURL:  "https://api.example.com",
			apiurl.EnvDownloadURL: "https://dl.example.com",
		}
		overrides := apiurl.OverridesFromLookup(func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		})

		Expect(overrides[apiurl.ServiceBackend]).To(Equal("https://api.example.com"))
		Expect(overrides[apiurl.ServiceDownload]).To(Equal("https://dl.example.com"))
	})
})

var _ = Describe("Config", func() {
	Describe("ServiceURL", func() {
		It("should return the path unchanged when the base URL is empty", func() {
			cfg := apiurl.Resolve(apiurl.ModeProduction, nil)
			for _, s := range apiurl.Services() {
				Expect(cfg.ServiceURL("/api/geojson/layer", s)).To(Equal("/api/geojson/layer"))
			}
		})

		It("should prefix the localhost ports in development", func() {
			cfg := apiurl.Resolve(apiurl.ModeDevelopment, nil)
			Expect(cfg.ServiceURL("/x", apiurl.ServiceBackend)).To(Equal("http://localhost:8000/x"))
			Expect(cfg.ServiceURL("/x", apiurl.ServiceDownload)).To(Equal("http://localhost:8001/x"))
		})

		It("should concatenate an override without inserting a separator", func() {
			cfg := apiurl.Resolve(apiurl.ModeProduction, apiurl.Overrides{
				apiurl.ServiceDownload: "https://dl.example.com",
			})
			Expect(cfg.ServiceURL("/api/shapefiles/a.zip", apiurl.ServiceDownload)).
				To(Equal("https://dl.example.com/api/shapefiles/a.zip"))
			Expect(cfg.ServiceURL("no-slash", apiurl.ServiceDownload)).
				To(Equal("https://dl.example.comno-slash"))
		})

		It("should fall back to the backend for unknown services", func() {
			cfg := apiurl.Resolve(apiurl.ModeDevelopment, nil)
			Expect(cfg.ServiceURL("/x", apiurl.Service("other"))).To(Equal("http://localhost:8000/x"))
			Expect(cfg.ServiceURL("/x", apiurl.Service(""))).To(Equal("http://localhost:8000/x"))
		})
	})

	Describe("URL", func() {
		It("should behave like the backend selector", func() {
			cfg := apiurl.Resolve(apiurl.ModeProduction, apiurl.Overrides{
				apiurl.ServiceBackend: "https://api.example.com",
			})
			Expect(cfg.URL("/api/geojson/layer")).
				To(Equal(cfg.ServiceURL("/api/geojson/layer", apiurl.ServiceBackend)))
			Expect(cfg.URL("/api/geojson/layer")).To(Equal("https://api.example.com/api/geojson/layer"))
		})
	})

	Describe("Base", func() {
		It("should select the base URL per service", func() {
			cfg := apiurl.Config{Backend: "b", Download: "d"}
			Expect(cfg.Base(apiurl.ServiceBackend)).To(Equal("b"))
			Expect(cfg.Base(apiurl.ServiceDownload)).To(Equal("d"))
			Expect(cfg.Base(apiurl.Service("other"))).To(Equal("b"))
		})
	})
})

var _ = Describe("ParseService", func() {
	DescribeTable("selectors",
		func(in string, want apiurl.Service) {
			Expect(apiurl.ParseService(in)).To(Equal(want))
		},
		Entry("backend", "backend", apiurl.ServiceBackend),
		Entry("download", "download", apiurl.ServiceDownload),
		Entry("upper case download", "DOWNLOAD", apiurl.ServiceBackend),
		Entry("padded download", " download ", apiurl.ServiceBackend),
		Entry("empty", "", apiurl.ServiceBackend),
		Entry("unknown", "other", apiurl.ServiceBackend),
	)
})

var _ = Describe("FromEnv", func() {
	It("should return the same record on every call", func() {
		Expect(apiurl.FromEnv()).To(Equal(apiurl.FromEnv()))
	})
})
