// Package config handles loading and parsing of configuration from dotenv
// files, YAML files and environment variables. It defines the gateway
// configuration: server settings, the client-facing API base URL
// overrides, upstream instances, health checks, circuit breaking and
// logging.
package config
