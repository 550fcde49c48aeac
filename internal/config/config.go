// Package config resolves harness configuration from environment variables.
package config

import "os"

// Environment variables, all optional.
const (
	EnvGatewayURL   = "KATA_GATEWAY_URL"
	EnvGatewayToken = "KATA_GATEWAY_TOKEN"
	EnvMockToolsURL = "KATA_MOCKTOOLS_URL"
	EnvModel        = "KATA_MODEL"
)

// Defaults match the ports the bundled compose file exposes.
const (
	DefaultGatewayURL   = "http://localhost:18790"
	DefaultGatewayToken = "sandbox-token-12345"
	DefaultMockToolsURL = "http://localhost:3001"
	DefaultModel        = "anthropic/claude-sonnet-4-6"
)

// Config is the resolved harness configuration.
type Config struct {
	GatewayURL   string
	GatewayToken string
	MockToolsURL string
	Model        string
}

// Load reads the environment, filling defaults for anything unset.
func Load() Config {
	return Config{
		GatewayURL:   envOr(EnvGatewayURL, DefaultGatewayURL),
		GatewayToken: envOr(EnvGatewayToken, DefaultGatewayToken),
		MockToolsURL: envOr(EnvMockToolsURL, DefaultMockToolsURL),
		Model:        envOr(EnvModel, DefaultModel),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
