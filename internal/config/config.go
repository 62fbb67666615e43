// Package config provides runtime configuration values for the service.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds configuration knobs for the TCP server and persistence.
type Config struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
	DataDir         string        `envconfig:"DATA_DIR" default:"."`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	MaxMessageBytes int           `envconfig:"MAX_MESSAGE_BYTES" default:"1023"`
}

// Load collects configuration from environment with defaults.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
