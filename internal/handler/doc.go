// Package handler implements the HTTP handlers of the gateway: the /api
// proxy that routes between the backend and download services, the runtime
// API base URL document, the health endpoint and the single page app.
package handler
