// Package middleware holds the chi middleware stack of the gateway:
// request IDs, panic recovery and access logging.
package middleware
