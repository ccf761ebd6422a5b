// Package upstream implements reverse proxying to the instances of the
// backend and download services. It tracks health, active connections and
// response times per instance.
package upstream
