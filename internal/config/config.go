// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, loaded from environment variables.
// An optional .env file is read by the godotenv autoloader in main.
type Config struct {
	// Addr is the websocket listen address.
	Addr string `env:"PALACE_ADDR" envDefault:":3012"`

	// OriginPatterns are the websocket origins accepted during the
	// handshake. Empty means same-origin only.
	OriginPatterns []string `env:"PALACE_ORIGIN_PATTERNS" envSeparator:","`

	// TurnTimer is the time a player gets to act; Leeway is added on the
	// server so a client-side countdown of TurnTimer never loses a race
	// against the server clock.
	TurnTimer time.Duration `env:"PALACE_TURN_TIMER" envDefault:"45s"`
	Leeway    time.Duration `env:"PALACE_TURN_LEEWAY" envDefault:"5s"`

	// AIMoveDelay paces auto-played seats so their moves stay watchable.
	AIMoveDelay time.Duration `env:"PALACE_AI_MOVE_DELAY" envDefault:"2s"`

	// Abandoned lobbies (every human seat disconnected for at least
	// PruneAfter) are dropped by a sweep that runs every PruneInterval.
	PruneAfter    time.Duration `env:"PALACE_PRUNE_AFTER" envDefault:"10m"`
	PruneInterval time.Duration `env:"PALACE_PRUNE_INTERVAL" envDefault:"1m"`

	LogLevel string `env:"PALACE_LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
