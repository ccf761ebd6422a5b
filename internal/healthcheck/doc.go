// Package healthcheck periodically probes upstream instances and updates
// their health status from the HTTP status of the health endpoint.
package healthcheck
