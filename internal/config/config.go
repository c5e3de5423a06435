package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds the proxy server configuration.
type Settings struct {
	Port      int    `envconfig:"NEKOAI_PORT" default:"8765"`
	Token     string `envconfig:"NEKOAI_TOKEN" default:""`
	Host      string `envconfig:"NEKOAI_HOST" default:""`
	StaticDir string `envconfig:"NEKOAI_STATIC_DIR" default:"static"`
	TimeoutS  int    `envconfig:"NEKOAI_TIMEOUT_SECONDS" default:"120"`

	// Redis backs the shared vibe token cache. Leave the address empty
	// to keep the cache in-process.
	RedisAddr     string `envconfig:"NEKOAI_REDIS_ADDR" default:""`
	RedisDB       int    `envconfig:"NEKOAI_REDIS_DB" default:"0"`
	RedisPassword string `envconfig:"NEKOAI_REDIS_PASSWORD" default:""`
}

// Load reads configuration from environment variables.
func Load() *Settings {
	var s Settings
	err := envconfig.Process("nekoai", &s)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return &s
}
