// Package config loads and validates application configuration for both
// the server and worker processes. Values come from environment variables
// with the FORGE_ prefix (for example FORGE_SERVER_PORT), optionally layered
// over a config.yaml file; environment variables win.
package config
