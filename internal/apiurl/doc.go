// Package apiurl resolves the base URLs of the backend and download APIs
// and joins them with request paths.
//
// In development mode both services are reached on fixed localhost ports
// and environment overrides are ignored. In any other mode an override is
// used verbatim when present; without one the base URL is empty and paths
// stay relative, so a same-origin gateway can route them.
//
//	cfg := apiurl.Resolve(apiurl.ModeProduction, apiurl.Overrides{
//		apiurl.ServiceDownload: "https://download.example.com",
//	})
//	cfg.URL("/api/geojson/layer")                                // "/api/geojson/layer"
//	cfg.ServiceURL("/api/shapefiles/a.zip", apiurl.ServiceDownload) // "https://download.example.com/api/shapefiles/a.zip"
//
// A resolved Config is an immutable value and may be shared freely
// between goroutines.
package apiurl
